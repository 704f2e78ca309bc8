package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/platform"
)

func TestWriteSidecar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "App_1_2_3.tar.bz2")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	g := NewGenerator(config.Checksum{})
	h, side, ok, err := g.Write(artifact.NewHandle(p, artifact.KindArchive, platform.LinuxX86_64))
	require.NoError(t, err)
	require.True(t, ok)

	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	require.Equal(t, want, h.Checksum)
	require.Equal(t, p+".sha256", side.Path)
	require.Equal(t, artifact.KindChecksum, side.Kind)

	data, err := os.ReadFile(side.Path)
	require.NoError(t, err)
	require.Equal(t, want+"  App_1_2_3.tar.bz2\n", string(data))

	ok, err = VerifyChecksum(p, want, AlgorithmSHA256)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWriteSkipsDirectoriesAndDisabled(t *testing.T) {
	t.Parallel()

	dir := artifact.NewHandle(t.TempDir(), artifact.KindDirectory, platform.Windows)
	_, _, ok, err := NewGenerator(config.Checksum{}).Write(dir)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, ok, err = NewGenerator(config.Checksum{Disable: true}).Write(artifact.Handle{Kind: artifact.KindArchive})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	_, err := CalculateForFile("whatever", Algorithm("crc32"))
	require.Error(t, err)
}
