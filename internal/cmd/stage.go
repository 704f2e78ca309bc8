package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oarkflow/stagepack/internal/pipeline"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Populate the staging tree only",
	Long: `Copy the platform recipe into the staging tree without packaging.

This is useful for checking what a build ships, or for iterating locally
with --symlink so the tree points back at the build output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := pipeline.New(pipelineOptions())
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		if err := p.Stage(ctx); err != nil {
			return fmt.Errorf("stage failed: %w", err)
		}

		fmt.Println(p.DestDir())
		return nil
	},
}

func init() {
	stageCmd.Flags().BoolVar(&clean, "clean", false, "remove the staging tree before copying")
	stageCmd.Flags().BoolVar(&symlink, "symlink", false, "link staged files to their sources instead of copying")
}
