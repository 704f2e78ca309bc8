package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"windows":      Windows,
		"Win32":        Windows,
		"darwin":       Darwin,
		"macos":        Darwin,
		"linux-i686":   LinuxX86,
		"i686":         LinuxX86,
		"linux":        LinuxX86_64,
		"linux-x86_64": LinuxX86_64,
	}

	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := Parse("solaris")
	require.Error(t, err)
}

func TestArch(t *testing.T) {
	t.Parallel()

	require.Equal(t, "i686", LinuxX86.Arch())
	require.Equal(t, "x86_64", LinuxX86_64.Arch())
	require.Empty(t, Darwin.Arch())
	require.True(t, LinuxX86.IsLinux())
	require.False(t, Windows.IsLinux())
}
