package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oarkflow/stagepack/internal/pipeline"
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Stage and package",
	Long: `Run the requested actions for the target platform.

This includes:
  - Running before hooks
  - Copying the platform recipe into the staging tree (action "copy")
  - Finishing the tree into an installer artifact (action "package")
  - Writing the checksum and the artifact record
  - Running after hooks

Without the "package" action the staging tree is left unpacked and
recorded as a directory artifact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := pipeline.New(pipelineOptions())
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		h, err := p.Run(ctx)
		if err != nil {
			return fmt.Errorf("package failed: %w", err)
		}

		fmt.Println(h.Path)
		return nil
	},
}

func init() {
	packageCmd.Flags().BoolVar(&clean, "clean", false, "remove the staging tree before copying")
	packageCmd.Flags().BoolVar(&skipHooks, "skip-hooks", false, "do not run before and after hooks")
}
