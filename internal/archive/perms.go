package archive

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// NormalizePermissions gives every entry below root a world-readable mode
// derived from its owner bits:
//
//	directories                      0755
//	owner-executable, owner-writable 0755
//	owner-executable, read-only      0555
//	other files, owner-writable      0644
//	other files, read-only           0444
//
// Symlinks are left alone. Running it twice changes nothing.
func NormalizePermissions(root string) error {
	changed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode().Perm()
		want := NormalizedMode(info.IsDir(), mode)
		if mode == want {
			return nil
		}
		changed++
		return os.Chmod(path, want)
	})
	if err != nil {
		return err
	}

	log.Debug("Normalized permissions", "root", root, "changed", changed)
	return nil
}

// NormalizedMode returns the mode NormalizePermissions assigns to an entry
// currently carrying perm.
func NormalizedMode(isDir bool, perm fs.FileMode) fs.FileMode {
	if isDir {
		return 0o755
	}

	writable := perm&0o200 != 0
	switch {
	case perm&0o100 != 0 && writable:
		return 0o755
	case perm&0o100 != 0:
		return 0o555
	case writable:
		return 0o644
	default:
		return 0o444
	}
}
