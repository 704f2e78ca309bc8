package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted version tuple kept as strings so leading zeros and
// build numbers survive untouched.
type Version []string

// ParseVersion splits "1.2.3" (or "1_2_3", "1,2,3") into a Version.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '_' || r == ','
	})
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return nil, fmt.Errorf("invalid version component %q in %q", p, s)
		}
	}
	return Version(parts), nil
}

// String joins the components with dots.
func (v Version) String() string {
	return strings.Join(v, ".")
}

// Underscored joins the components with underscores, as used in artifact
// names.
func (v Version) Underscored() string {
	return strings.Join(v, "_")
}
