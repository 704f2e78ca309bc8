package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/archive"
	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/checksum"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/manifest"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/recipe/recipetest"
)

type linuxRun struct {
	root   string
	source string
	cfg    *config.Config
	hooks  *execx.Recorder
}

func newLinuxRun(t *testing.T) *linuxRun {
	t.Helper()

	root, source := recipetest.Workspace(t)
	cfg := recipetest.Config()
	recipetest.Write(t, source, platform.LinuxX86_64, cfg)

	cfg.Paths.Source = recipetest.SourceDir
	cfg.Paths.Build = "build"
	cfg.Paths.Dest = "build/packaged"
	cfg.Linux.Format = "tar.gz"
	cfg.Descriptor.Platform = "linux-x86_64"
	cfg.Descriptor.Version = "1.30.2.7"
	cfg.Before.Hooks = []config.Hook{{Cmd: "echo staging {{ .Version }}", FailFast: true}}
	cfg.After.Hooks = []config.Hook{{Cmd: "echo built {{ .ArtifactName }}", FailFast: true}}

	return &linuxRun{root: root, source: source, cfg: cfg, hooks: execx.NewRecorder()}
}

func (r *linuxRun) pipeline(t *testing.T, overrides config.Descriptor) *Pipeline {
	t.Helper()

	p, err := New(Options{
		Config:    r.cfg,
		BaseDir:   r.root,
		Overrides: overrides,
		Runner:    execx.NewRecorder(),
		HookExec: func(string, []string) execx.Runner {
			return r.hooks
		},
	})
	require.NoError(t, err)
	return p
}

func TestRunLinuxEndToEnd(t *testing.T) {
	t.Parallel()

	r := newLinuxRun(t)
	p := r.pipeline(t, config.Descriptor{})

	h, err := p.Run(context.Background())
	require.NoError(t, err)

	const name = "CoolVLViewer_x86_64_1_30_2_7"
	require.Equal(t, artifact.KindArchive, h.Kind)
	require.Equal(t, filepath.Join(r.root, "build", name+".tar.gz"), h.Path)
	require.NotEmpty(t, h.RunID)
	require.NotEmpty(t, h.Checksum)

	// The staging tree is back under its own name.
	require.DirExists(t, filepath.Join(r.root, "build", "packaged"))
	require.NoDirExists(t, filepath.Join(r.root, "build", name))

	entries, err := archive.List(h.Path)
	require.NoError(t, err)
	names := make(map[string]os.FileMode)
	for _, e := range entries {
		require.True(t, strings.HasPrefix(e.Name, name+"/"), e.Name)
		names[strings.TrimPrefix(e.Name, name+"/")] = e.Mode.Perm()
	}
	require.Contains(t, names, "bin/cool_vl_viewer-bin")
	require.Contains(t, names, "app_settings/settings.xml")
	require.Contains(t, names, "skins/default/textures/arrow.tga")
	require.NotContains(t, names, "app_settings/logcontrol.xml")
	require.Equal(t, os.FileMode(0o755), names["bin/cool_vl_viewer-bin"])
	require.Equal(t, os.FileMode(0o644), names["gpu_table.txt"])

	ok, err := checksum.VerifyChecksum(h.Path, h.Checksum, checksum.AlgorithmSHA256)
	require.NoError(t, err)
	require.True(t, ok)
	require.FileExists(t, h.Path+".sha256")

	recorded := artifact.NewManager()
	require.NoError(t, recorded.Load(filepath.Join(r.root, "build", RecordFile)))
	all := recorded.All()
	require.Len(t, all, 2)
	require.Equal(t, h.RunID, all[1].RunID)
	require.Equal(t, artifact.KindChecksum, all[1].Kind)

	require.Equal(t, []string{"-c", "echo staging 1.30.2.7"}, r.hooks.Calls[0].Args)
	require.Equal(t, []string{"-c", "echo built " + name + ".tar.gz"}, r.hooks.Calls[1].Args)
}

func TestRunCopyOnlyLeavesTreeUnpacked(t *testing.T) {
	t.Parallel()

	r := newLinuxRun(t)
	p := r.pipeline(t, config.Descriptor{Actions: []string{descriptor.ActionCopy}, Grid: "aditi"})

	h, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, artifact.KindDirectory, h.Kind)
	require.Equal(t, p.DestDir(), h.Path)
	require.Empty(t, h.Checksum)
	require.Len(t, p.Artifacts(), 1)

	flags, err := os.ReadFile(filepath.Join(p.DestDir(), "gridargs.dat"))
	require.NoError(t, err)
	require.Equal(t, "--grid aditi --helperuri http://preview-aditi.secondlife.com/helpers/", string(flags))

	matches, err := filepath.Glob(filepath.Join(p.BuildDir(), "*.tar.*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestRunStopsOnMissingRequiredFile(t *testing.T) {
	t.Parallel()

	r := newLinuxRun(t)
	recipetest.Remove(t, r.source, "gpu_table.txt")
	p := r.pipeline(t, config.Descriptor{})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, manifest.ErrNoMatch)
	require.Contains(t, err.Error(), "gpu_table")
	require.NoFileExists(t, filepath.Join(r.root, "build", RecordFile))
	require.Len(t, r.hooks.Calls, 1, "after hooks must not run")
}

func TestStageCleanRemovesLeftovers(t *testing.T) {
	t.Parallel()

	r := newLinuxRun(t)
	leftover := filepath.Join(r.root, "build", "packaged", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(leftover), 0o755))
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0o644))

	p, err := New(Options{Config: r.cfg, BaseDir: r.root, Clean: true, Runner: execx.NewRecorder()})
	require.NoError(t, err)
	require.NoError(t, p.Stage(context.Background()))

	require.NoFileExists(t, leftover)
	require.FileExists(t, filepath.Join(p.DestDir(), "gpu_table.txt"))
}

func TestNewFromConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`version: 1
product:
  app_name: Cool VL Viewer
  installer_prefix: CoolVLViewer_
  default_channel: Cool VL Viewer Release
paths:
  source: indra/newview
  build: build/newview
descriptor:
  version: 1.30.2.7
  platform: linux
`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "indra", "newview"), 0o755))

	p, err := New(Options{
		ConfigFile: path,
		Overrides:  config.Descriptor{Platform: "linux-i686", Channel: "Cool VL Viewer Beta Test"},
	})
	require.NoError(t, err)

	d := p.Descriptor()
	require.Equal(t, platform.LinuxX86, d.Platform)
	require.Equal(t, "i686", d.Arch)
	require.Equal(t, "Release", d.Configuration)
	require.Equal(t, "CoolVLViewer_i686_1_30_2_7_BETATEST", d.LinuxInstallerName())

	require.Equal(t, filepath.Join(dir, "build", "newview"), p.BuildDir())
	require.Equal(t, filepath.Join(dir, "build", "newview", "packaged"), p.DestDir())
	require.NoError(t, p.Check())
}

func TestCheckFailsWithoutSource(t *testing.T) {
	t.Parallel()

	cfg := recipetest.Config()
	cfg.Descriptor.Version = "1.0"
	cfg.Descriptor.Platform = "windows"

	p, err := New(Options{Config: cfg, BaseDir: t.TempDir(), Source: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	require.Error(t, p.Check())
}

func TestNewDescriptor(t *testing.T) {
	t.Parallel()

	cfg := recipetest.Config()
	cfg.Descriptor.Version = "v2.1.0"

	d, err := NewDescriptor(cfg)
	require.NoError(t, err)
	require.Equal(t, platform.Host(), d.Platform)
	require.Equal(t, platform.Host().Arch(), d.Arch)
	require.Equal(t, cfg.Product.DefaultChannel, d.Channel)
	require.Equal(t, descriptor.Version{"2", "1", "0"}, d.Version)
	require.True(t, d.HasAction(descriptor.ActionPackage))

	cfg.Descriptor.Arch = "armv7"
	cfg.Descriptor.Platform = "linux"
	d, err = NewDescriptor(cfg)
	require.NoError(t, err)
	require.Equal(t, "armv7", d.Arch)

	cfg.Descriptor.Platform = "amiga"
	_, err = NewDescriptor(cfg)
	require.Error(t, err)

	cfg.Descriptor.Platform = ""
	cfg.Descriptor.Version = "one.two"
	_, err = NewDescriptor(cfg)
	require.Error(t, err)
}
