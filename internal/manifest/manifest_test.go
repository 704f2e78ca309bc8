package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files (relative path -> contents) below root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func newBuilder(t *testing.T, files map[string]string, opts ...Option) *Builder {
	t.Helper()

	src := t.TempDir()
	writeTree(t, src, files)

	b, err := NewBuilder(src, filepath.Join(t.TempDir(), "stage"), opts...)
	require.NoError(t, err)
	return b
}

func stagedRel(t *testing.T, b *Builder) []string {
	t.Helper()

	out := make([]string, 0)
	for _, p := range b.Staged() {
		rel, err := filepath.Rel(b.DstRoot(), p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFramePushPop(t *testing.T) {
	t.Parallel()

	root := NewFrame("/src", "/dst")

	a := root.Push("app_settings", "settings")
	b := a.Push("shaders", "")
	require.Equal(t, filepath.FromSlash("/src/app_settings/shaders"), b.Src())
	require.Equal(t, filepath.FromSlash("/dst/settings"), b.Dst())
	require.Equal(t, 2, b.Depth())

	back, err := b.Pop()
	require.NoError(t, err)
	require.Equal(t, a, back)

	back, err = back.Pop()
	require.NoError(t, err)
	require.Equal(t, root, back)
	require.True(t, back.IsRoot())

	_, err = back.Pop()
	require.ErrorIs(t, err, ErrFrameUnderflow)
}

func TestPathPreservesRelativeStructure(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"skins/default/xui/en-us/floater.xml": "x",
		"skins/default/xui/fr/floater.xml":    "x",
		"skins/default/colors.xml":            "x",
		"skins/dark/colors.xml":               "x",
		"skins/paths.xml":                     "x",
	})

	f := b.Root().Sub("skins")

	n, err := b.Path(f, "*/xui/*/*.xml", "")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = b.Path(f, "*/*.xml", "")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = b.Path(f, "paths.xml", "")
	require.NoError(t, err)

	require.Equal(t, []string{
		"skins/dark/colors.xml",
		"skins/default/colors.xml",
		"skins/default/xui/en-us/floater.xml",
		"skins/default/xui/fr/floater.xml",
		"skins/paths.xml",
	}, stagedRel(t, b))
}

func TestPathWildcardUnderExplicitDestination(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"skins/default/xui/en-us/floater.xml": "x",
		"skins/default/xui/fr/floater.xml":    "x",
		"skins/dark/xui/en-us/floater.xml":    "x",
	})

	n, err := b.Path(b.Root().Sub("skins"), "*/xui/*/*.xml", "ui")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.Equal(t, []string{
		"skins/ui/dark/xui/en-us/floater.xml",
		"skins/ui/default/xui/en-us/floater.xml",
		"skins/ui/default/xui/fr/floater.xml",
	}, stagedRel(t, b))
}

func TestPathWildcardFrame(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"skins/default/textures/a.tga":        "x",
		"skins/default/textures/textures.xml": "x",
		"skins/dark/textures/b.tga":           "x",
		"skins/dark/textures/ignored.bmp":     "x",
	})

	f := b.Root().Sub("skins").Sub("*/textures")

	_, err := b.Path(f, "*.tga", "")
	require.NoError(t, err)
	_, err = b.Path(f, "textures.xml", "")
	require.NoError(t, err)

	require.Equal(t, []string{
		"skins/dark/textures/b.tga",
		"skins/default/textures/a.tga",
		"skins/default/textures/textures.xml",
	}, stagedRel(t, b))
}

func TestPathDirectoryAndRename(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"app_settings/shaders/class1/a.glsl": "x",
		"app_settings/shaders/class2/b.glsl": "x",
		"release/viewer-bin.exe":             "bin",
	})

	root := b.Root()

	n, err := b.Path(root.Sub("app_settings"), "shaders", "")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = b.Path(root, "release/viewer-bin.exe", "Viewer.exe")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(b.DstRoot(), "Viewer.exe"))
	require.NoError(t, err)
	require.Equal(t, "bin", string(data))

	require.Equal(t, []string{
		"Viewer.exe",
		"app_settings/shaders/class1/a.glsl",
		"app_settings/shaders/class2/b.glsl",
	}, stagedRel(t, b))
}

func TestPathMissing(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{"a.txt": "x"})

	_, err := b.Path(b.Root(), "nope.dll", "")
	require.ErrorIs(t, err, ErrNoMatch)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	require.True(t, IsMissing(err))

	_, err = b.Path(b.Root(), "*.dll", "")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestExclusionIsMonotonic(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"app_settings/settings.xml":     "x",
		"app_settings/logcontrol.xml":   "x",
		"app_settings/.svn/entries":     "x",
		"character/avatar.xml":          "x",
		"character/logcontrol.xml":      "x",
		"fonts/.svn/text-base/font.ttf": "x",
		"fonts/font.ttf":                "x",
	})

	root := b.Root()
	require.NoError(t, b.Exclude("*.svn*"))

	settings := root.Sub("app_settings")
	require.NoError(t, b.Exclude("logcontrol.xml"))
	_, err := b.Path(settings, "*.xml", "")
	require.NoError(t, err)
	root, err = settings.Pop()
	require.NoError(t, err)

	// The exclusion added under app_settings still applies here.
	_, err = b.Path(root, "character", "")
	require.NoError(t, err)
	_, err = b.Path(root, "fonts", "")
	require.NoError(t, err)

	require.Equal(t, []string{
		"app_settings/settings.xml",
		"character/avatar.xml",
		"fonts/font.ttf",
	}, stagedRel(t, b))
}

func TestPathExclusionWithSlash(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{
		"res/a.png":      "x",
		"res/skip/b.png": "x",
	})
	require.NoError(t, b.Exclude("res/skip/*"))

	_, err := b.Path(b.Root(), "res", "")
	require.NoError(t, err)
	require.Equal(t, []string{"res/a.png"}, stagedRel(t, b))
}

func TestResolveFirstExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "debug", "viewer.exe")
	bPath := filepath.Join(dir, "release", "viewer.exe")
	c := filepath.Join(dir, "relwithdebinfo", "viewer.exe")
	writeTree(t, dir, map[string]string{
		"release/viewer.exe":        "b",
		"relwithdebinfo/viewer.exe": "c",
	})

	res := Resolve(a, bPath, c)
	require.True(t, res.Found())
	require.Equal(t, bPath, res.Path())
	require.Equal(t, []string{a, bPath, c}, res.Tried())

	none := Resolve(a, filepath.Join(dir, "nothing"))
	require.False(t, none.Found())

	_, err := none.Require()
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, IsMissing(err))
}

func TestBuilderResolveRelativeToFrame(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{"lib/release/libcodec.so": "x"})

	f := b.Root().Sub("lib")
	res := b.Resolve(f, "debug/libcodec.so", "release/libcodec.so")
	require.True(t, res.Found())
	require.Equal(t, filepath.Join(b.SrcRoot(), "lib", "release", "libcodec.so"), res.Path())
}

func TestSymlinkMode(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{"data/a.txt": "x"}, WithCopyMode(Symlink))

	_, err := b.Path(b.Root(), "data", "")
	require.NoError(t, err)

	info, err := os.Lstat(filepath.Join(b.DstRoot(), "data", "a.txt"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestPutInFileAndPermissionsKept(t *testing.T) {
	t.Parallel()

	b := newBuilder(t, map[string]string{"bin/tool": "#!/bin/sh\n"})
	require.NoError(t, os.Chmod(filepath.Join(b.SrcRoot(), "bin", "tool"), 0o755))

	_, err := b.Path(b.Root(), "bin/tool", "")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(b.DstRoot(), "bin", "tool"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	require.NoError(t, b.PutInFile(b.Root().Push("", "Resources"), "--grid aditi", "arguments.txt"))
	data, err := os.ReadFile(filepath.Join(b.DstRoot(), "Resources", "arguments.txt"))
	require.NoError(t, err)
	require.Equal(t, "--grid aditi", string(data))
}
