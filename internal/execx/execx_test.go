package execx

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	t.Parallel()

	r := NewRunner(t.TempDir())

	out, err := r.Run(context.Background(), "/bin/sh", "-c", "echo hello")
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)

	_, err = r.Run(context.Background(), "/bin/sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.Code)
	require.Contains(t, exitErr.Output, "broken")
	require.Contains(t, err.Error(), "exit status 3")
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Responses["hdiutil attach"] = "/dev/disk2\tApple_HFS\t/Volumes/X\n"
	r.Failures["SetFile"] = errors.New("boom")

	out, err := r.Run(context.Background(), "hdiutil", "attach", "-private", "x.sparseimage")
	require.NoError(t, err)
	require.Contains(t, out, "/Volumes/X")

	_, err = r.Run(context.Background(), "SetFile", "-a", "V", "/Volumes/X/.DS_Store")
	require.Error(t, err)

	require.Equal(t, []string{"hdiutil attach", "SetFile"}, r.Commands())
}

func TestQuote(t *testing.T) {
	t.Parallel()

	require.Equal(t, `hdiutil create "My Image.sparseimage" -megabytes 700`,
		Quote("hdiutil", "create", "My Image.sparseimage", "-megabytes", "700"))
}
