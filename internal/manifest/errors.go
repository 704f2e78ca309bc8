package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoMatch is returned when a selection rule copies nothing because
	// its source does not exist or its pattern matches nothing.
	ErrNoMatch = errors.New("no files matched")
	// ErrNotFound is returned when none of a candidate list exists.
	ErrNotFound = errors.New("no candidate exists")
	// ErrFrameUnderflow is returned by Pop on the root frame.
	ErrFrameUnderflow = errors.New("pop on root prefix frame")
)

// MissingError reports a selection rule whose source could not be found.
type MissingError struct {
	Pattern string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoMatch, e.Pattern)
}

func (e *MissingError) Unwrap() error {
	return ErrNoMatch
}

// NotFoundError lists the candidates that were tried.
type NotFoundError struct {
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s among [%s]", ErrNotFound, strings.Join(e.Candidates, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsMissing reports whether err means an optional source was absent, as
// opposed to an I/O or programming failure.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNoMatch) || errors.Is(err, ErrNotFound)
}
