package hook

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

func newTestRunner(rec *execx.Recorder, dirs *[]string, envs *[][]string) *Runner {
	d := descriptor.Descriptor{
		Product:  descriptor.Product{AppName: "App"},
		Platform: platform.LinuxX86_64,
		Grid:     "aditi",
		Version:  descriptor.Version{"1", "2"},
	}
	return NewRunner(tmpl.New(d, nil), "/work").WithExec(func(dir string, env []string) execx.Runner {
		*dirs = append(*dirs, dir)
		*envs = append(*envs, env)
		return rec
	})
}

func TestRunHooks(t *testing.T) {
	t.Parallel()

	rec := execx.NewRecorder()
	var dirs []string
	var envs [][]string
	r := newTestRunner(rec, &dirs, &envs)

	err := r.RunHooks(context.Background(), []config.Hook{
		{Cmd: "echo {{ .Version }}", Dir: "sub", Env: map[string]string{"GRID": "{{ .Grid }}"}},
		{Cmd: "echo skipped", If: "{{ .IsDefaultGrid }}"},
		{Cmd: "   "},
	})
	require.NoError(t, err)

	require.Len(t, rec.Calls, 1)
	args := rec.Calls[0].Args
	require.Equal(t, "echo 1.2", args[len(args)-1])
	require.Equal(t, []string{filepath.Join("/work", "sub")}, dirs)
	require.Equal(t, [][]string{{"GRID=aditi"}}, envs)
}

func TestFailFast(t *testing.T) {
	t.Parallel()

	rec := execx.NewRecorder()
	rec.Hook = func(execx.Call) error { return errors.New("boom") }
	var dirs []string
	var envs [][]string
	r := newTestRunner(rec, &dirs, &envs)

	require.NoError(t, r.Run(context.Background(), config.Hook{Cmd: "false"}))
	require.Error(t, r.Run(context.Background(), config.Hook{Cmd: "false", FailFast: true}))
}
