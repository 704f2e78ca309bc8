package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/config"
)

// These tests share the package-level flag variables and do not run in parallel.

func TestPipelineOptionsSplitsActions(t *testing.T) {
	actions = " copy, package,,"
	overrides.Grid = "aditi"
	t.Cleanup(func() {
		actions = ""
		overrides = config.Descriptor{}
	})

	o := pipelineOptions()
	require.Equal(t, []string{"copy", "package"}, o.Overrides.Actions)
	require.Equal(t, "aditi", o.Overrides.Grid)
}

func TestInitWritesTemplateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	t.Cleanup(func() {
		cfgFile = ""
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"init", "--config", path})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultTemplate(), string(data))

	rootCmd.SetArgs([]string{"init", "--config", path})
	require.ErrorContains(t, rootCmd.Execute(), "already exists")
}

func TestMissingConfigFileIsRejected(t *testing.T) {
	t.Cleanup(func() {
		cfgFile = ""
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"check", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.ErrorContains(t, rootCmd.Execute(), "config file not found")
}

func TestCompletePlatforms(t *testing.T) {
	names, _ := completePlatforms(nil, nil, "")
	require.Contains(t, names, "darwin")
	require.Contains(t, names, "linux-x86_64")
}
