package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher expands selection patterns and filters them through the exclusion
// set. Exclusions only ever grow during a construction pass, so a pattern
// excluded once stays excluded for every later match under any frame.
type Matcher struct {
	root     string
	segments []string
	paths    []string
	seen     map[string]struct{}
}

// NewMatcher returns a Matcher whose path exclusions are relative to root.
func NewMatcher(root string) *Matcher {
	return &Matcher{
		root: filepath.Clean(root),
		seen: make(map[string]struct{}),
	}
}

// Exclude adds pattern to the exclusion set. A pattern without a slash is
// tested against every path segment ("*.svn*", "logcontrol.xml"); one with a
// slash is tested against the whole slash-separated path.
func (m *Matcher) Exclude(pattern string) error {
	pattern = strings.TrimSpace(filepath.ToSlash(pattern))
	if pattern == "" {
		return nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid exclude pattern %q", pattern)
	}
	if _, ok := m.seen[pattern]; ok {
		return nil
	}
	m.seen[pattern] = struct{}{}

	if strings.Contains(pattern, "/") {
		m.paths = append(m.paths, strings.TrimPrefix(pattern, "/"))
	} else {
		m.segments = append(m.segments, pattern)
	}
	return nil
}

// Exclusions returns the patterns added so far, in order of insertion within
// each kind.
func (m *Matcher) Exclusions() []string {
	out := make([]string, 0, len(m.segments)+len(m.paths))
	out = append(out, m.segments...)
	return append(out, m.paths...)
}

// Excluded reports whether path is filtered out. base is the directory the
// current selection is relative to; it is used for sources that live outside
// the matcher root (prebuilt library directories and the like).
func (m *Matcher) Excluded(path, base string) bool {
	if len(m.segments) == 0 && len(m.paths) == 0 {
		return false
	}

	for _, rel := range m.relatives(path, base) {
		if rel == "" || rel == "." {
			continue
		}
		for _, seg := range strings.Split(rel, "/") {
			for _, p := range m.segments {
				if ok, _ := doublestar.Match(p, seg); ok {
					return true
				}
			}
		}
		for _, p := range m.paths {
			if ok, _ := doublestar.Match(p, rel); ok {
				return true
			}
			if ok, _ := doublestar.Match("**/"+p, rel); ok {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) relatives(path, base string) []string {
	var out []string
	for _, dir := range []string{m.root, base} {
		if dir == "" {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	if len(out) == 0 {
		out = append(out, filepath.ToSlash(filepath.Base(path)))
	}
	return out
}

// Glob expands an absolute pattern. Results are sorted so staging order does
// not depend on directory listing order.
func (m *Matcher) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
