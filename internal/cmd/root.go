/*
Package cmd provides the CLI commands for stagepack.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/pipeline"
	"github.com/oarkflow/stagepack/internal/platform"
)

var (
	cfgFile string
	verbose bool
	debug   bool

	overrides config.Descriptor
	actions   string

	sourceDir string
	buildDir  string
	destDir   string

	clean     bool
	symlink   bool
	skipHooks bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stagepack",
	Short: "Stage and package a desktop application build",
	Long: `stagepack copies a compiled application's runtime files into a
platform-specific staging tree and turns that tree into an installer
artifact: a compressed disk image on macOS, a tarball on Linux, or a
verified directory for the Windows installer tool.

Example:
  stagepack stage --platform linux        # Populate the staging tree only
  stagepack package --version 1.30.2.7    # Stage and package
  stagepack package --actions package     # Package an existing tree
  stagepack check                         # Validate the configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initConfig

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is "+config.DefaultFile+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&debug, "debug", false, "enable debug output")

	// Descriptor overrides
	pf.StringVar(&overrides.Configuration, "configuration", "", "build configuration (Debug, Release, RelWithDebInfo)")
	pf.StringVar(&overrides.BuildType, "buildtype", "", "build type; release builds are stripped")
	pf.StringVar(&overrides.Channel, "channel", "", "distribution channel")
	pf.StringVar(&overrides.LoginChannel, "login-channel", "", "channel reported at login")
	pf.StringVar(&overrides.BrandingID, "branding-id", "", "branding identifier")
	pf.StringVar(&overrides.Grid, "grid", "", "target grid")
	pf.StringVar(&overrides.Version, "version", "", "version, e.g. 1.30.2.7")
	pf.StringVar(&overrides.Arch, "arch", "", "architecture token used in Linux names")
	pf.StringVar(&overrides.Platform, "platform", "", "target platform (default is the host)")
	pf.StringVar(&actions, "actions", "", "comma separated actions (copy, package, unpacked)")
	pf.StringVar(&overrides.InstallerName, "installer-name", "", "Linux installer name, may be a template")

	// Path overrides
	pf.StringVar(&sourceDir, "source", "", "source root")
	pf.StringVar(&buildDir, "build", "", "build output directory")
	pf.StringVar(&destDir, "dest", "", "staging tree")

	_ = rootCmd.RegisterFlagCompletionFunc("platform", completePlatforms)

	// Add subcommands
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else if verbose {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	// Build logs usually end up in CI output or files.
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFormatter(log.LogfmtFormatter)
	}

	// init creates the file the flag names.
	if cfgFile != "" && cmd != initCmd {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", cfgFile)
		}
	}
	return nil
}

// pipelineOptions collects the flag values shared by every command.
func pipelineOptions() pipeline.Options {
	o := overrides
	if actions != "" {
		o.Actions = nil
		for _, a := range strings.Split(actions, ",") {
			if a = strings.TrimSpace(a); a != "" {
				o.Actions = append(o.Actions, a)
			}
		}
	}

	return pipeline.Options{
		ConfigFile: cfgFile,
		Overrides:  o,
		Source:     sourceDir,
		Build:      buildDir,
		Dest:       destDir,
		Clean:      clean,
		Symlink:    symlink,
		SkipHooks:  skipHooks,
	}
}

func completePlatforms(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, p := range platform.All() {
		names = append(names, p.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
