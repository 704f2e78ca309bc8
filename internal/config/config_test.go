package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaultTemplate(t *testing.T) {
	t.Parallel()

	p := writeConfig(t, t.TempDir(), DefaultFile, DefaultTemplate())

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "Cool VL Viewer", cfg.Product.AppName)
	require.Equal(t, "tar.bz2", cfg.Linux.Format)
	require.Equal(t, 700, cfg.Darwin.Megabytes)
	require.Len(t, cfg.Darwin.Locales, 16)
	require.Equal(t, PolicySkip, cfg.PolicyFor("codec"))
	require.Equal(t, PolicySkip, cfg.PolicyFor("unknown"))
}

func TestLoadIncludesAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STAGEPACK_TEST_PREFIX", "App_")

	writeConfig(t, dir, "brand.yaml", `
product:
  default_grid: aditi
components:
  codec: require
variables:
  domain: example.com
`)
	p := writeConfig(t, dir, DefaultFile, `
version: 1
includes:
  - brand.yaml
product:
  app_name: App
  installer_prefix: ${STAGEPACK_TEST_PREFIX}
linux:
  format: tar.gz
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "App_", cfg.Product.InstallerPrefix)
	require.Equal(t, "aditi", cfg.Product.DefaultGrid)
	require.Equal(t, PolicyRequire, cfg.PolicyFor("codec"))
	require.Equal(t, "example.com", cfg.Variables["domain"])
	require.Equal(t, "tar.gz", cfg.Linux.Format)
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Descriptor.Channel = "App Release"
	cfg.Descriptor.Grid = "agni"

	require.NoError(t, cfg.ApplyOverrides(Descriptor{Grid: "aditi", Version: "2.0.1"}))
	require.Equal(t, "aditi", cfg.Descriptor.Grid)
	require.Equal(t, "2.0.1", cfg.Descriptor.Version)
	require.Equal(t, "App Release", cfg.Descriptor.Channel, "empty override keeps the file value")
	require.Equal(t, "Release", cfg.Descriptor.Configuration)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Error(t, cfg.Validate(), "app name is required")

	cfg.Product.AppName = "App"
	cfg.Product.InstallerPrefix = "App_"
	require.NoError(t, cfg.Validate())

	cfg.Linux.Format = "zip"
	require.Error(t, cfg.Validate())
	cfg.Linux.Format = "tar.xz"

	cfg.Components = map[string]Policy{"codec": "maybe"}
	require.Error(t, cfg.Validate())
	cfg.Components = nil

	cfg.Product.HelperURITemplate = "http://{{ if }}"
	require.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
