/*
Package descriptor holds the per-build metadata shared by staging and
packaging: configuration, channel, target grid, version and architecture,
plus the naming rules derived from them.

A Descriptor is assembled once at startup and passed by value afterwards;
nothing in stagepack mutates it.
*/
package descriptor

import (
	"fmt"
	"strings"

	"github.com/oarkflow/stagepack/internal/platform"
)

// Actions understood by the pipeline.
const (
	ActionCopy     = "copy"
	ActionPackage  = "package"
	ActionUnpacked = "unpacked"
)

// Product carries the naming inputs that do not change between builds.
type Product struct {
	// AppName is the human readable application name ("Cool VL Viewer").
	AppName string
	// InstallerPrefix starts every artifact name ("CoolVLViewer_").
	InstallerPrefix string
	// DefaultChannel is the channel that produces unsuffixed artifacts.
	DefaultChannel string
	// DefaultGrid is the grid the application connects to without flags.
	DefaultGrid string
}

// Descriptor is the read-only build description.
type Descriptor struct {
	Product Product

	Platform platform.Platform
	// Configuration is the build output directory name (Debug, Release,
	// RelWithDebInfo).
	Configuration string
	// BuildType is the optimisation level; "release" enables stripping.
	BuildType    string
	Channel      string
	LoginChannel string
	BrandingID   string
	Grid         string
	Arch         string
	Version      Version
	Actions      []string
	// InstallerName overrides the computed Linux installer name.
	InstallerName string
}

// Validate checks the fields every packaging path relies on.
func (d Descriptor) Validate() error {
	if d.Platform == "" {
		return fmt.Errorf("platform is required")
	}
	if d.Configuration == "" {
		return fmt.Errorf("configuration is required")
	}
	if len(d.Version) == 0 {
		return fmt.Errorf("version is required")
	}
	if d.Product.AppName == "" {
		return fmt.Errorf("product app name is required")
	}
	return nil
}

// IsDefaultGrid reports whether the build targets the default grid.
func (d Descriptor) IsDefaultGrid() bool {
	return d.Grid == "" || strings.EqualFold(d.Grid, d.Product.DefaultGrid)
}

// IsDefaultChannel reports whether the build uses the brand's default
// channel.
func (d Descriptor) IsDefaultChannel() bool {
	return d.Channel == "" || d.Channel == d.Product.DefaultChannel
}

// ChannelUnique is the channel with the application name stripped
// ("Cool VL Viewer Beta Test" -> "Beta Test").
func (d Descriptor) ChannelUnique() string {
	ch := d.Channel
	if d.Product.AppName != "" {
		ch = strings.ReplaceAll(ch, d.Product.AppName, "")
	}
	return strings.TrimSpace(ch)
}

// ChannelOneWord collapses ChannelUnique into a single word.
func (d Descriptor) ChannelOneWord() string {
	return strings.Join(strings.Fields(d.ChannelUnique()), "")
}

// ChannelLowerWord is ChannelOneWord in lower case.
func (d Descriptor) ChannelLowerWord() string {
	return strings.ToLower(d.ChannelOneWord())
}

// EffectiveLoginChannel is the channel reported at login. It is empty when
// no login channel was given; callers must not substitute Channel.
func (d Descriptor) EffectiveLoginChannel() string {
	return d.LoginChannel
}

// HasAction reports whether action was requested.
func (d Descriptor) HasAction(action string) bool {
	for _, a := range d.Actions {
		if strings.EqualFold(a, action) {
			return true
		}
	}
	return false
}

// IsRelease reports whether the build type is release.
func (d Descriptor) IsRelease() bool {
	return strings.EqualFold(d.BuildType, "release")
}

// IsDebug reports whether the configuration is a debug one.
func (d Descriptor) IsDebug() bool {
	return strings.EqualFold(d.Configuration, "debug")
}

// Suffix is the distinguishing tail shared by every artifact name:
//   - default channel, default grid: ""
//   - default channel, other grid:   "_" + upper(grid)
//   - other channel:                 "_" + upper(one-word channel)
func (d Descriptor) Suffix() string {
	if d.IsDefaultChannel() {
		if d.IsDefaultGrid() {
			return ""
		}
		return "_" + strings.ToUpper(d.Grid)
	}
	return "_" + strings.ToUpper(d.ChannelOneWord())
}

// ImageName is the macOS disk image base name, without extension.
func (d Descriptor) ImageName() string {
	return d.Product.InstallerPrefix + d.Version.Underscored() + d.Suffix()
}

// LinuxInstallerName is the archive and top-level directory name. An
// explicit InstallerName wins.
func (d Descriptor) LinuxInstallerName() string {
	if d.InstallerName != "" {
		return d.InstallerName
	}
	parts := make([]string, 0, len(d.Version)+1)
	if d.Arch != "" {
		parts = append(parts, d.Arch)
	}
	parts = append(parts, d.Version...)
	return d.Product.InstallerPrefix + strings.Join(parts, "_") + d.Suffix()
}

// VolumeName is the mounted disk image volume label.
func (d Descriptor) VolumeName() string {
	return d.Product.AppName + " Installer"
}

// VolumeAppName is the bundle name (without ".app") inside the disk image.
func (d Descriptor) VolumeAppName() string {
	if d.IsDefaultChannel() {
		if !d.IsDefaultGrid() {
			return d.Product.AppName + " " + d.Grid
		}
		return d.Product.AppName
	}
	return strings.TrimSpace(d.Channel)
}

// FlagsList returns the command line the staged application is launched
// with. helperURI is the already rendered helper URI for the target grid.
func (d Descriptor) FlagsList(helperURI string) string {
	var flags []string
	if !d.IsDefaultGrid() {
		flags = append(flags, "--grid", d.Grid)
		if helperURI != "" {
			flags = append(flags, "--helperuri", helperURI)
		}
	}
	return strings.TrimSpace(strings.Join(flags, " "))
}
