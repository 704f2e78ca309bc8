/*
Package config provides configuration loading and validation for stagepack.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = ".stagepack.yaml"

// DefaultHelperURITemplate renders the helper URI of a preview grid.
const DefaultHelperURITemplate = "http://preview-{{ .Grid }}.secondlife.com/helpers/"

// Archive formats accepted in linux.format.
var archiveFormats = map[string]bool{
	"tar.bz2": true,
	"tar.gz":  true,
	"tar.xz":  true,
	"tar.zst": true,
}

// Config represents the complete stagepack configuration
type Config struct {
	// Version of the configuration schema
	Version int `yaml:"version"`

	// Include other configuration files
	Includes []string `yaml:"includes,omitempty"`

	// Custom template variables
	Variables map[string]string `yaml:"variables,omitempty"`

	Product    Product    `yaml:"product"`
	Paths      Paths      `yaml:"paths,omitempty"`
	Descriptor Descriptor `yaml:"descriptor,omitempty"`
	Darwin     Darwin     `yaml:"darwin,omitempty"`
	Linux      Linux      `yaml:"linux,omitempty"`

	// Components maps an optional component name to its policy.
	Components map[string]Policy `yaml:"components,omitempty"`

	// Before hooks run before staging starts
	Before Hooks `yaml:"before,omitempty"`

	// After hooks run once the artifact exists
	After Hooks `yaml:"after,omitempty"`

	Checksum Checksum `yaml:"checksum,omitempty"`
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, include := range cfg.Includes {
		includePath := include
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, include)
		}

		matches, err := filepath.Glob(includePath)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %s: %w", include, err)
		}

		for _, match := range matches {
			includeCfg, err := load(match)
			if err != nil {
				return nil, fmt.Errorf("failed to load include %s: %w", match, err)
			}

			if err := mergo.Merge(&cfg, includeCfg, mergo.WithAppendSlice); err != nil {
				return nil, fmt.Errorf("failed to merge include %s: %w", match, err)
			}
		}
	}

	return &cfg, nil
}

// Default returns a configuration with every default filled in. It is used
// when no configuration file exists.
func Default() *Config {
	cfg := &Config{Version: 1}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Paths.Source == "" {
		c.Paths.Source = "."
	}
	if c.Paths.Build == "" {
		c.Paths.Build = "build"
	}
	if c.Paths.Dest == "" {
		c.Paths.Dest = filepath.Join(c.Paths.Build, "packaged")
	}
	if c.Paths.Libraries == "" {
		c.Paths.Libraries = "../../libraries"
	}
	if c.Paths.Scripts == "" {
		c.Paths.Scripts = "../../scripts"
	}
	if c.Paths.Etc == "" {
		c.Paths.Etc = "../../etc"
	}

	if c.Product.HelperURITemplate == "" {
		c.Product.HelperURITemplate = DefaultHelperURITemplate
	}
	if c.Product.DefaultGrid == "" {
		c.Product.DefaultGrid = "agni"
	}
	if c.Product.BuiltExe == "" {
		c.Product.BuiltExe = "secondlife-bin.exe"
	}

	if len(c.Darwin.DMGTemplates) == 0 {
		c.Darwin.DMGTemplates = []string{
			"installers/darwin/{{ .BrandingID }}-dmg",
			"installers/darwin/release-dmg",
		}
	}
	if c.Darwin.AliasResource == "" {
		c.Darwin.AliasResource = "installers/darwin/release-dmg/Applications-alias.r"
	}
	if c.Darwin.Megabytes == 0 {
		c.Darwin.Megabytes = 700
	}
	if c.Darwin.StripFlags == nil {
		c.Darwin.StripFlags = []string{"-S"}
	}
	if len(c.Darwin.Locales) == 0 {
		c.Darwin.Locales = []string{
			"English", "German", "Japanese", "Korean", "da", "es", "fr", "hu",
			"it", "nl", "pl", "pt", "ru", "tr", "uk", "zh-Hans",
		}
	}

	if c.Linux.Format == "" {
		c.Linux.Format = "tar.bz2"
	}

	if c.Descriptor.Configuration == "" {
		c.Descriptor.Configuration = "Release"
	}
	if c.Descriptor.BuildType == "" {
		c.Descriptor.BuildType = "Release"
	}
	if len(c.Descriptor.Actions) == 0 {
		c.Descriptor.Actions = []string{"copy", "package"}
	}
}

// ApplyOverrides replaces descriptor defaults with every non-empty field of
// o. It is how command line flags win over the file.
func (c *Config) ApplyOverrides(o Descriptor) error {
	if err := mergo.Merge(&c.Descriptor, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	return nil
}

// PolicyFor returns the policy of an optional component. Unknown components
// are skipped.
func (c *Config) PolicyFor(component string) Policy {
	if p, ok := c.Components[component]; ok && p != "" {
		return p
	}
	return PolicySkip
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Product.AppName == "" {
		return fmt.Errorf("product.app_name is required")
	}
	if c.Product.InstallerPrefix == "" {
		return fmt.Errorf("product.installer_prefix is required")
	}
	if !archiveFormats[c.Linux.Format] {
		return fmt.Errorf("unsupported linux.format %q", c.Linux.Format)
	}
	if c.Darwin.Megabytes < 0 {
		return fmt.Errorf("darwin.megabytes must be positive")
	}

	for name, p := range c.Components {
		if p != PolicySkip && p != PolicyRequire {
			return fmt.Errorf("components.%s: unknown policy %q (want skip or require)", name, p)
		}
	}

	return c.validateTemplates()
}

// validateTemplates validates all template strings in the configuration
func (c *Config) validateTemplates() error {
	templateRe := regexp.MustCompile(`\{\{.*?\}\}`)

	validateTemplate := func(name, tmpl string) error {
		if !templateRe.MatchString(tmpl) {
			return nil
		}
		if _, err := template.New(name).Parse(tmpl); err != nil {
			return fmt.Errorf("invalid template in %s: %w", name, err)
		}
		return nil
	}

	if err := validateTemplate("product.helper_uri_template", c.Product.HelperURITemplate); err != nil {
		return err
	}
	if err := validateTemplate("descriptor.installer_name", c.Descriptor.InstallerName); err != nil {
		return err
	}
	for i, dir := range c.Darwin.DMGTemplates {
		if err := validateTemplate(fmt.Sprintf("darwin.dmg_templates[%d]", i), dir); err != nil {
			return err
		}
	}
	for i, h := range append(c.Before.Hooks, c.After.Hooks...) {
		if err := validateTemplate(fmt.Sprintf("hooks[%d].cmd", i), h.Cmd); err != nil {
			return err
		}
	}

	return nil
}

// DefaultTemplate returns the default configuration template
func DefaultTemplate() string {
	return `# stagepack configuration file

version: 1

product:
  app_name: Cool VL Viewer
  installer_prefix: CoolVLViewer_
  final_exe: CoolVLViewer.exe
  binary_name: cool_vl_viewer-bin
  wrapper_name: cool_vl_viewer
  icon: cvlv_icon.png
  mac_icon: cool_vl_viewer.icns
  info_plist: Info-CoolVLViewer.plist
  readmes:
    - ../../doc/CoolVLViewerReadme.txt
    - ../../doc/RestrainedLoveReadme.txt
  default_channel: Cool VL Viewer Release
  default_grid: agni
  helper_uri_template: "http://preview-{{ .Grid }}.secondlife.com/helpers/"

paths:
  source: indra/newview
  build: build/newview
  dest: build/newview/packaged
  libraries: ../../libraries

descriptor:
  configuration: Release
  build_type: Release
  channel: Cool VL Viewer Release
  version: 1.0.0.0
  actions:
    - copy
    - package

darwin:
  dmg_templates:
    - "installers/darwin/{{ .BrandingID }}-dmg"
    - installers/darwin/release-dmg
  megabytes: 700
  strip_flags:
    - -S

linux:
  format: tar.bz2

# Optional components: skip (default) or require.
components:
  codec: skip
  tcmalloc: skip

checksum:
  algorithm: sha256
`
}
