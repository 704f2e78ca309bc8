package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oarkflow/stagepack"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration file",
	Long: `Check if the configuration file and the flags describe a valid run.

This validates:
  - YAML syntax
  - Required fields
  - Template syntax
  - Include statements
  - Version, platform and component policies
  - The source root exists`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = pipeline.FindConfigFile()
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		opts := pipelineOptions()
		opts.ConfigFile = configPath
		p, err := pipeline.New(opts)
		if err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		if err := p.Check(); err != nil {
			return fmt.Errorf("check failed: %w", err)
		}

		d := p.Descriptor()
		fmt.Printf("✓ Configuration file %s is valid\n", configPath)
		fmt.Printf("  Platform: %s\n", d.Platform)
		fmt.Printf("  Version:  %s\n", d.Version)
		fmt.Printf("  Channel:  %s\n", d.Channel)
		if d.Platform.IsLinux() {
			fmt.Printf("  Archive:  %s\n", d.LinuxInstallerName())
		} else {
			fmt.Printf("  Image:    %s\n", d.ImageName())
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: `Initialize a new ` + config.DefaultFile + ` configuration file.

This creates a basic configuration file that you can customize
for your product.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultFile
		if cfgFile != "" {
			configPath = cfgFile
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}

		template := config.DefaultTemplate()
		if err := os.WriteFile(configPath, []byte(template), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("✓ Created %s\n", configPath)
		fmt.Println("\nEdit this file to describe your product and build layout.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build date of stagepack.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stagepack %s\n", stagepack.Version)
		if stagepack.GitCommit != "" {
			fmt.Printf("  Commit: %s\n", stagepack.GitCommit)
		}
		if stagepack.BuildDate != "" {
			fmt.Printf("  Built:  %s\n", stagepack.BuildDate)
		}
	},
}
