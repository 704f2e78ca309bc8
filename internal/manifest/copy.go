package manifest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyMode selects how selected files land in the staging tree.
type CopyMode int

const (
	// CopyFiles copies file contents and permission bits.
	CopyFiles CopyMode = iota
	// Symlink links each staged file back to its source. Useful for fast
	// local iteration; never for a tree that will be archived.
	Symlink
)

// CopyFile copies a single file, creating parent directories. Permission bits
// are preserved and an existing destination is replaced.
func CopyFile(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := removeExisting(dst); err != nil {
		return err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile honours the umask; restore the source bits exactly.
	return os.Chmod(dst, info.Mode().Perm())
}

// CopyTree copies the directory src to dst. skip, when non-nil, is consulted
// for every entry below src; returning true drops a file or a whole
// directory. visit is called for every file written.
func CopyTree(src, dst string, skip func(path string, d fs.DirEntry) bool, visit func(dst string)) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != src && skip != nil && skip(path, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}

		if err := CopyFile(path, target); err != nil {
			return err
		}
		if visit != nil {
			visit(target)
		}
		return nil
	})
}

// linkFile points dst at src.
func linkFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := removeExisting(dst); err != nil {
		return err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	return os.Symlink(abs, dst)
}

func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("destination %s is a directory", path)
	}
	return os.Remove(path)
}
