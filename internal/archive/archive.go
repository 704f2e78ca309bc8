/*
Package archive turns a staged Linux tree into a compressed tarball.

bzip2 archives are written by the system tar so the output matches what
build farms have always shipped; gzip, xz and zstd archives are written
in-process. Either way, entries carry numeric ownership only.
*/
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/oarkflow/stagepack/internal/execx"
)

// Format is a tarball compression format.
type Format string

const (
	FormatTarBz2 Format = "tar.bz2"
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatTarZst Format = "tar.zst"
)

// ParseFormat accepts the format names and their short aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "tar.bz2", "tbz2", "bz2":
		return FormatTarBz2, nil
	case "tar.gz", "tgz", "gz":
		return FormatTarGz, nil
	case "tar.xz", "txz", "xz":
		return FormatTarXz, nil
	case "tar.zst", "tzst", "zst", "zstd":
		return FormatTarZst, nil
	}
	return "", fmt.Errorf("unsupported archive format: %s", s)
}

// Ext returns the file extension including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Create archives dir/name into dir/name<ext>, with name as the single top
// level entry. It returns the archive path.
func Create(ctx context.Context, runner execx.Runner, dir, name string, format Format) (string, error) {
	out := filepath.Join(dir, name+format.Ext())
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove stale archive: %w", err)
	}

	log.Info("Creating archive", "path", out, "format", format)

	if format == FormatTarBz2 {
		// --numeric-owner keeps the builder's account names out of the
		// archive.
		if _, err := runner.Run(ctx, "tar", "-C", dir, "--numeric-owner", "-cjf", out, name); err != nil {
			return "", fmt.Errorf("tar failed: %w", err)
		}
		return out, nil
	}

	if err := createInProcess(out, dir, name, format); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	return out, nil
}

func createInProcess(out, dir, name string, format Format) (err error) {
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	var cw io.WriteCloser
	switch format {
	case FormatTarGz:
		cw, err = gzip.NewWriterLevel(file, gzip.BestCompression)
	case FormatTarXz:
		cw, err = xz.NewWriter(file)
	case FormatTarZst:
		cw, err = zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	default:
		err = fmt.Errorf("unsupported archive format: %s", format)
	}
	if err != nil {
		return err
	}

	tw := tar.NewWriter(cw)
	werr := writeTree(tw, dir, name)

	var merr *multierror.Error
	if werr != nil {
		merr = multierror.Append(merr, werr)
	}
	if cerr := tw.Close(); cerr != nil {
		merr = multierror.Append(merr, fmt.Errorf("close tar: %w", cerr))
	}
	if cerr := cw.Close(); cerr != nil {
		merr = multierror.Append(merr, fmt.Errorf("close %s: %w", format, cerr))
	}
	return merr.ErrorOrNil()
}

func writeTree(tw *tar.Writer, dir, name string) error {
	root := filepath.Join(dir, name)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}
		header.Uname = ""
		header.Gname = ""

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
}

// Entry is one member of an archive as reported by List.
type Entry struct {
	Name  string
	Mode  os.FileMode
	Uid   int
	Gid   int
	Uname string
	Gname string
	Link  string
}

// List reads the member headers of a tarball in any supported format.
func List(path string) ([]Entry, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader
	switch format {
	case FormatTarBz2:
		r = bzip2.NewReader(f)
	case FormatTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case FormatTarXz:
		if r, err = xz.NewReader(f); err != nil {
			return nil, fmt.Errorf("open xz: %w", err)
		}
	case FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var entries []Entry
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		entries = append(entries, Entry{
			Name:  h.Name,
			Mode:  h.FileInfo().Mode(),
			Uid:   h.Uid,
			Gid:   h.Gid,
			Uname: h.Uname,
			Gname: h.Gname,
			Link:  h.Linkname,
		})
	}
}

func formatOf(path string) (Format, error) {
	for _, f := range []Format{FormatTarBz2, FormatTarGz, FormatTarXz, FormatTarZst} {
		if strings.HasSuffix(path, f.Ext()) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported archive format: %s", filepath.Base(path))
}
