package packaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/manifest"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// Decorative files copied from the DMG template directory, and the names
// they get on the volume.
var dmgDecorations = []struct{ src, dst string }{
	{"_VolumeIcon.icns", ".VolumeIcon.icns"},
	{"background.jpg", "background.jpg"},
	{"_DS_Store", ".DS_Store"},
}

// Darwin builds a compressed disk image from the staged application bundle.
type Darwin struct {
	config    config.Darwin
	tmplCtx   *tmpl.Context
	runner    execx.Runner
	sourceDir string
	buildDir  string
}

// NewDarwin creates a new disk image packager.
func NewDarwin(o Options) *Darwin {
	return &Darwin{
		config:    o.Config.Darwin,
		tmplCtx:   o.Tmpl,
		runner:    o.Runner,
		sourceDir: o.SourceDir,
		buildDir:  o.BuildDir,
	}
}

// Finish creates a sparse image, mounts it, fills it with the bundle and
// the Finder decorations, then converts it to a read-only compressed image.
// Once the image is attached it is always detached again, and the sparse
// image never outlives the call.
func (p *Darwin) Finish(ctx context.Context, tree string, d descriptor.Descriptor) (h artifact.Handle, err error) {
	name := d.ImageName()
	sparse := filepath.Join(p.buildDir, name+".sparseimage")
	final := filepath.Join(p.buildDir, name+".dmg")

	for _, stale := range []string{sparse, final} {
		if err := removeFile(stale); err != nil {
			return h, fmt.Errorf("failed to remove stale image: %w", err)
		}
	}

	log.Info("Creating disk image", "name", name, "volume", d.VolumeName())

	if _, err := p.hdiutil(ctx, "create", sparse,
		"-volname", d.VolumeName(),
		"-fs", "HFS+",
		"-type", "SPARSE",
		"-megabytes", strconv.Itoa(p.config.Megabytes),
		"-layout", "SPUD",
	); err != nil {
		return h, err
	}
	defer func() {
		if rmErr := removeFile(sparse); rmErr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to remove sparse image: %w", rmErr)).ErrorOrNil()
		}
	}()

	out, err := p.hdiutil(ctx, "attach", "-private", sparse)
	if err != nil {
		return h, err
	}
	info, err := ParseAttachOutput(out)
	if err != nil {
		return h, p.detachPartial(ctx, info, err)
	}
	log.Debug("Attached disk image", "device", info.Device, "mount", info.MountPoint)

	if err := p.populate(ctx, tree, d, info.MountPoint); err != nil {
		if _, detachErr := p.hdiutil(ctx, "detach", "-force", info.Device); detachErr != nil {
			return h, multierror.Append(err, detachErr)
		}
		return h, err
	}

	if _, err := p.hdiutil(ctx, "detach", "-force", info.Device); err != nil {
		return h, err
	}

	if _, err := p.hdiutil(ctx, "convert", sparse,
		"-format", "UDZO",
		"-imagekey", "zlib-level=9",
		"-o", final,
	); err != nil {
		return h, err
	}

	log.Info("Disk image created", "path", final)
	h = artifact.NewHandle(final, artifact.KindImage, platform.Darwin)
	h.Extra = map[string]interface{}{"volume": d.VolumeName()}
	return h, nil
}

// detachPartial detaches an image whose attach output could only be partly
// parsed, returning cause combined with any detach failure.
func (p *Darwin) detachPartial(ctx context.Context, info AttachInfo, cause error) error {
	target := info.Device
	if target == "" {
		target = info.MountPoint
	}
	if target == "" {
		log.Warn("Cannot identify the attached image, leaving it mounted", "err", cause)
		return cause
	}
	if _, err := p.hdiutil(ctx, "detach", "-force", target); err != nil {
		return multierror.Append(cause, err)
	}
	return cause
}

// populate copies the bundle and the decorations onto the mounted volume
// and sets their Finder attributes.
func (p *Darwin) populate(ctx context.Context, tree string, d descriptor.Descriptor, volume string) error {
	app := filepath.Join(volume, d.VolumeAppName()+".app")
	log.Info("Copying bundle to volume", "dst", app)
	if err := manifest.CopyTree(tree, app, nil, nil); err != nil {
		return fmt.Errorf("failed to copy bundle: %w", err)
	}

	template, err := p.templateDir()
	if err != nil {
		return err
	}
	log.Debug("Using DMG template", "dir", template)

	for _, f := range dmgDecorations {
		dst := filepath.Join(volume, f.dst)
		if err := manifest.CopyFile(filepath.Join(template, f.src), dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", f.src, err)
		}
		// Hidden from the Finder.
		if _, err := p.runner.Run(ctx, "SetFile", "-a", "V", dst); err != nil {
			return err
		}
	}

	apps := filepath.Join(volume, "Applications")
	if _, err := p.runner.Run(ctx, "Rez", filepath.Join(p.sourceDir, p.config.AliasResource), "-o", apps); err != nil {
		return err
	}
	// Alias with a custom icon.
	if _, err := p.runner.Run(ctx, "SetFile", "-a", "AC", apps); err != nil {
		return err
	}
	// The volume itself uses the custom icon.
	_, err = p.runner.Run(ctx, "SetFile", "-a", "C", volume)
	return err
}

// templateDir returns the first configured DMG template directory that
// exists.
func (p *Darwin) templateDir() (string, error) {
	candidates := make([]string, 0, len(p.config.DMGTemplates))
	for _, c := range p.config.DMGTemplates {
		rendered, err := p.tmplCtx.Apply(c)
		if err != nil {
			return "", fmt.Errorf("failed to render DMG template path %q: %w", c, err)
		}
		candidates = append(candidates, filepath.Join(p.sourceDir, rendered))
	}
	dir, err := manifest.Resolve(candidates...).Require()
	if err != nil {
		return "", fmt.Errorf("DMG template: %w", err)
	}
	return dir, nil
}

func (p *Darwin) hdiutil(ctx context.Context, verb string, args ...string) (string, error) {
	return p.runner.Run(ctx, "hdiutil", append([]string{verb}, args...)...)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
