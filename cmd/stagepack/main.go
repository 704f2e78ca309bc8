/*
Package main provides the CLI entry point for stagepack.
*/
package main

import (
	"os"

	"github.com/oarkflow/stagepack/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
