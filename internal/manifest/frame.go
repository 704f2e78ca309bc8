package manifest

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Frame is one (source, destination) directory pair of the prefix stack.
// Frames are values: Push returns a new frame that remembers its parent and
// Pop hands the parent back, so nesting is carried explicitly by the caller
// instead of living in shared state.
//
// A frame source may contain single-segment wildcards ("skins/*/textures").
// When its destination mirrors the source (see Sub), the wildcard segments of
// the destination are filled in from whatever each match actually hit.
type Frame struct {
	src    string
	dst    string
	parent *Frame
}

// NewFrame returns a root frame.
func NewFrame(src, dst string) Frame {
	return Frame{src: filepath.Clean(src), dst: filepath.Clean(dst)}
}

// Src returns the absolute source directory (possibly a glob).
func (f Frame) Src() string { return f.src }

// Dst returns the absolute destination directory (possibly a glob when the
// frame mirrors a wildcard source).
func (f Frame) Dst() string { return f.dst }

// Depth is the number of pushes above the root.
func (f Frame) Depth() int {
	n := 0
	for p := f.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

// IsRoot reports whether f has no parent.
func (f Frame) IsRoot() bool { return f.parent == nil }

// Push enters src below the current source and dst below the current
// destination. An absolute src replaces the source directory; an empty
// argument keeps the parent's directory on that side.
func (f Frame) Push(src, dst string) Frame {
	parent := f
	return Frame{
		src:    joinUnder(f.src, src),
		dst:    joinUnder(f.dst, dst),
		parent: &parent,
	}
}

// Sub enters the same relative directory on both sides.
func (f Frame) Sub(dir string) Frame {
	return f.Push(dir, dir)
}

// Pop returns the frame that was current before the matching Push.
func (f Frame) Pop() (Frame, error) {
	if f.parent == nil {
		return f, ErrFrameUnderflow
	}
	return *f.parent, nil
}

// SrcPath resolves rel against the frame source.
func (f Frame) SrcPath(rel string) string {
	return joinUnder(f.src, rel)
}

// DstPath resolves rel against the frame destination.
func (f Frame) DstPath(rel string) string {
	return joinUnder(f.dst, rel)
}

func joinUnder(base, rel string) string {
	if rel == "" {
		return base
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(base, rel)
}

// concrete maps a path that matched a glob rooted at the frame source onto
// the frame's concrete source and destination directories. rest is the part
// of match below the frame source.
func (f Frame) concrete(match string) (srcDir, dstDir, rest string) {
	srcSegs := splitSlash(f.src)
	matchSegs := splitSlash(match)
	if len(matchSegs) < len(srcSegs) {
		return f.src, f.dst, filepath.Base(match)
	}

	head := matchSegs[:len(srcSegs)]
	srcDir = filepath.FromSlash(strings.Join(head, "/"))
	rest = filepath.FromSlash(strings.Join(matchSegs[len(srcSegs):], "/"))

	dstSegs := splitSlash(f.dst)
	for i := range dstSegs {
		if !hasMeta(dstSegs[i]) {
			continue
		}
		// Align from the end: a mirrored destination shares its trailing
		// segments with the source.
		j := len(srcSegs) - (len(dstSegs) - i)
		if j >= 0 && j < len(head) && srcSegs[j] == dstSegs[i] {
			dstSegs[i] = head[j]
		}
	}
	dstDir = filepath.FromSlash(strings.Join(dstSegs, "/"))
	return srcDir, dstDir, rest
}

func splitSlash(p string) []string {
	return strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
}

func hasMeta(s string) bool {
	return doublestar.ValidatePattern(s) && strings.ContainsAny(s, "*?[{")
}
