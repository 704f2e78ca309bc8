package config

// Product holds the branding and file names that stay the same from one
// build to the next.
type Product struct {
	// AppName is the display name and macOS bundle name.
	AppName string `yaml:"app_name"`

	// InstallerPrefix starts every artifact name.
	InstallerPrefix string `yaml:"installer_prefix"`

	// FinalExe is the Windows executable name in the staging tree.
	FinalExe string `yaml:"final_exe,omitempty"`

	// BuiltExe is the executable name produced by the Windows build.
	BuiltExe string `yaml:"built_exe,omitempty"`

	// BinaryName is the Linux binary name under bin/.
	BinaryName string `yaml:"binary_name,omitempty"`

	// WrapperName is the Linux launcher script name.
	WrapperName string `yaml:"wrapper_name,omitempty"`

	// Icon is the Linux icon file under res/.
	Icon string `yaml:"icon,omitempty"`

	// MacIcon is the .icns file copied into the bundle resources.
	MacIcon string `yaml:"mac_icon,omitempty"`

	// InfoPlist is the source plist copied to Contents/Info.plist.
	InfoPlist string `yaml:"info_plist,omitempty"`

	// Readmes are copied to the staging root under their base names.
	Readmes []string `yaml:"readmes,omitempty"`

	DefaultChannel string `yaml:"default_channel,omitempty"`
	DefaultGrid    string `yaml:"default_grid,omitempty"`

	// HelperURITemplate renders the --helperuri flag for non-default grids.
	HelperURITemplate string `yaml:"helper_uri_template,omitempty"`
}

// Paths locates the source tree, the build tree and the staging tree.
type Paths struct {
	// Source is the directory recipes select from.
	Source string `yaml:"source,omitempty"`

	// Build is the directory artifacts are written to.
	Build string `yaml:"build,omitempty"`

	// Dest is the staging tree.
	Dest string `yaml:"dest,omitempty"`

	// Libraries is the prebuilt third-party library root, relative to
	// Source.
	Libraries string `yaml:"libraries,omitempty"`

	// Scripts and Etc hold the message template and message.xml, relative
	// to Source.
	Scripts string `yaml:"scripts,omitempty"`
	Etc     string `yaml:"etc,omitempty"`
}

// Darwin configures the disk image choreography.
type Darwin struct {
	// DMGTemplates are candidate directories (relative to Source) holding
	// the volume icon, background and Finder layout. The first existing one
	// is used. "{{ .BrandingID }}" may appear in the names.
	DMGTemplates []string `yaml:"dmg_templates,omitempty"`

	// AliasResource is the Rez source of the Applications alias.
	AliasResource string `yaml:"alias_resource,omitempty"`

	// Megabytes is the sparse image size.
	Megabytes int `yaml:"megabytes,omitempty"`

	// StripFlags are passed to strip before the binary path.
	StripFlags []string `yaml:"strip_flags,omitempty"`

	// Locales are the .lproj directories copied into Resources.
	Locales []string `yaml:"locales,omitempty"`
}

// Linux configures the tarball.
type Linux struct {
	// Format is one of tar.bz2, tar.gz, tar.xz, tar.zst.
	Format string `yaml:"format,omitempty"`
}

// Descriptor supplies defaults for the build description. Command line
// flags override every field.
type Descriptor struct {
	Configuration string   `yaml:"configuration,omitempty"`
	BuildType     string   `yaml:"build_type,omitempty"`
	Channel       string   `yaml:"channel,omitempty"`
	LoginChannel  string   `yaml:"login_channel,omitempty"`
	BrandingID    string   `yaml:"branding_id,omitempty"`
	Grid          string   `yaml:"grid,omitempty"`
	Version       string   `yaml:"version,omitempty"`
	Arch          string   `yaml:"arch,omitempty"`
	Platform      string   `yaml:"platform,omitempty"`
	Actions       []string `yaml:"actions,omitempty"`
	InstallerName string   `yaml:"installer_name,omitempty"`
}

// Policy decides what happens when an optional component is absent.
type Policy string

const (
	// PolicySkip logs the absence and continues.
	PolicySkip Policy = "skip"
	// PolicyRequire turns the absence into a packaging failure.
	PolicyRequire Policy = "require"
)

// Hooks are shell commands run around the pipeline.
type Hooks struct {
	Hooks []Hook `yaml:"hooks,omitempty"`
}

// Hook represents a single hook
type Hook struct {
	// Command to run
	Cmd string `yaml:"cmd"`

	// Directory to run the command in
	Dir string `yaml:"dir,omitempty"`

	// Environment variables
	Env map[string]string `yaml:"env,omitempty"`

	// Condition evaluated as a template; the hook runs when it renders
	// "true" or "1".
	If string `yaml:"if,omitempty"`

	// FailFast turns a failing hook into a pipeline failure.
	FailFast bool `yaml:"fail_fast,omitempty"`
}

// Checksum configures the sidecar checksum file.
type Checksum struct {
	Algorithm string `yaml:"algorithm,omitempty"`
	Disable   bool   `yaml:"disable,omitempty"`
}
