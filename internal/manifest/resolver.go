package manifest

import (
	"os"
)

// Result is the outcome of resolving a candidate list. Absence is a normal
// value here; callers decide whether it is fatal.
type Result struct {
	path  string
	tried []string
}

// Resolve returns the first candidate that exists on disk.
func Resolve(candidates ...string) Result {
	res := Result{tried: append([]string(nil), candidates...)}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			res.path = c
			return res
		}
	}
	return res
}

// Found reports whether any candidate exists.
func (r Result) Found() bool { return r.path != "" }

// Path returns the winning candidate, or "" when none exists.
func (r Result) Path() string { return r.path }

// Tried returns the candidate list in the order it was searched.
func (r Result) Tried() []string { return append([]string(nil), r.tried...) }

// Require turns absence into a *NotFoundError.
func (r Result) Require() (string, error) {
	if r.path == "" {
		return "", &NotFoundError{Candidates: r.Tried()}
	}
	return r.path, nil
}
