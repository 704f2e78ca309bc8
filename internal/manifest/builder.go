/*
Package manifest selects files from build output and copies them into a
staging tree.

A Builder owns one staging tree for the duration of a construction pass.
Selection happens relative to a Frame, a (source, destination) directory pair
that callers push and pop explicitly:

	f := b.Root()
	f = f.Sub("app_settings")
	b.Exclude("logcontrol.xml")
	b.Path(f, "*.xml", "")
	b.Path(f, "shaders", "")   // whole subtree
	f, _ = f.Pop()

Sources that move around between build configurations are located with
Resolve, which returns a Result instead of failing.
*/
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
)

// Builder copies selected sources into the staging tree.
type Builder struct {
	srcRoot string
	dstRoot string
	mode    CopyMode
	matcher *Matcher
	staged  map[string]struct{}
}

// Option configures a Builder.
type Option func(*Builder)

// WithCopyMode sets how files are placed in the staging tree.
func WithCopyMode(mode CopyMode) Option {
	return func(b *Builder) {
		b.mode = mode
	}
}

// NewBuilder returns a Builder reading from srcRoot and writing to dstRoot.
// Both are made absolute.
func NewBuilder(srcRoot, dstRoot string, opts ...Option) (*Builder, error) {
	src, err := filepath.Abs(srcRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	dst, err := filepath.Abs(dstRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve destination root: %w", err)
	}

	b := &Builder{
		srcRoot: src,
		dstRoot: dst,
		matcher: NewMatcher(src),
		staged:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Root returns the root frame (source root, staging root).
func (b *Builder) Root() Frame {
	return NewFrame(b.srcRoot, b.dstRoot)
}

// SrcRoot returns the absolute source root.
func (b *Builder) SrcRoot() string { return b.srcRoot }

// DstRoot returns the absolute staging root.
func (b *Builder) DstRoot() string { return b.dstRoot }

// Exclude adds a pattern to the exclusion set for the rest of the pass.
func (b *Builder) Exclude(pattern string) error {
	return b.matcher.Exclude(pattern)
}

// Exclusions lists the active exclusion patterns.
func (b *Builder) Exclusions() []string {
	return b.matcher.Exclusions()
}

// Resolve searches candidates relative to the frame source.
func (b *Builder) Resolve(f Frame, candidates ...string) Result {
	abs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		abs = append(abs, f.SrcPath(c))
	}
	return Resolve(abs...)
}

// Path selects src under frame f and stages it at dst under the frame
// destination. It returns the number of files staged.
//
// A src containing wildcards stages every match at the same relative
// location it had below the frame source (or inside dst when one is given).
// A src naming a directory stages the whole subtree. A src naming a file is
// staged at dst, defaulting to the same relative name.
//
// A source that does not exist, or a pattern that matches nothing, yields a
// *MissingError. Sources filtered out by exclusions are skipped silently.
func (b *Builder) Path(f Frame, src, dst string) (int, error) {
	abs := f.SrcPath(src)
	if hasMeta(abs) {
		return b.pathGlob(f, abs, src, dst)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return 0, &MissingError{Pattern: abs}
	}
	if err != nil {
		return 0, err
	}

	if dst == "" {
		dst = defaultDst(src)
	}
	target := f.DstPath(dst)
	if hasMeta(target) {
		return 0, fmt.Errorf("destination %s still contains wildcards", target)
	}
	if b.matcher.Excluded(abs, f.Src()) {
		log.Debug("Excluded", "src", abs)
		return 0, nil
	}

	if info.IsDir() {
		return b.stageTree(abs, target, f.Src())
	}
	if err := b.stageFile(abs, target); err != nil {
		return 0, err
	}
	return 1, nil
}

func (b *Builder) pathGlob(f Frame, pattern, src, dst string) (int, error) {
	matches, err := b.matcher.Glob(pattern)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, &MissingError{Pattern: pattern}
	}

	count := 0
	for _, match := range matches {
		srcDir, dstDir, rest := f.concrete(match)
		if b.matcher.Excluded(match, srcDir) {
			log.Debug("Excluded", "src", match)
			continue
		}

		// dst relocates the matches but keeps their layout below the frame.
		target := filepath.Join(dstDir, dst, rest)

		info, err := os.Stat(match)
		if err != nil {
			return count, err
		}
		if info.IsDir() {
			n, err := b.stageTree(match, target, srcDir)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}
		if err := b.stageFile(match, target); err != nil {
			return count, err
		}
		count++
	}

	log.Debug("Matched", "pattern", src, "files", count)
	return count, nil
}

func (b *Builder) stageTree(src, dst, base string) (int, error) {
	count := 0
	skip := func(path string, _ fs.DirEntry) bool {
		return b.matcher.Excluded(path, base)
	}

	if b.mode == Symlink {
		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != src && skip(path, d) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			if err := b.stageFile(path, filepath.Join(dst, rel)); err != nil {
				return err
			}
			count++
			return nil
		})
		return count, err
	}

	err := CopyTree(src, dst, skip, func(target string) {
		b.staged[target] = struct{}{}
		count++
	})
	if err != nil {
		return count, fmt.Errorf("copy tree %s: %w", src, err)
	}
	return count, nil
}

func (b *Builder) stageFile(src, dst string) error {
	var err error
	if b.mode == Symlink {
		err = linkFile(src, dst)
	} else {
		err = CopyFile(src, dst)
	}
	if err != nil {
		return fmt.Errorf("stage %s: %w", src, err)
	}
	b.staged[dst] = struct{}{}
	log.Debug("Staged", "src", src, "dst", dst)
	return nil
}

// PutInFile writes contents to dst under the frame destination.
func (b *Builder) PutInFile(f Frame, contents, dst string) error {
	target := f.DstPath(dst)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	b.staged[target] = struct{}{}
	return nil
}

// Symlink creates a relative link at dst (under the frame destination)
// pointing at target. Used to share libraries between nested bundles.
func (b *Builder) Symlink(f Frame, target, dst string) error {
	link := f.DstPath(dst)
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	if err := removeExisting(link); err != nil {
		return err
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("link %s: %w", link, err)
	}
	b.staged[link] = struct{}{}
	return nil
}

// Staged returns every staged destination path, sorted.
func (b *Builder) Staged() []string {
	out := make([]string, 0, len(b.staged))
	for p := range b.staged {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func defaultDst(src string) string {
	if filepath.IsAbs(src) || !filepath.IsLocal(src) {
		return filepath.Base(src)
	}
	return src
}
