package execx

import (
	"context"
	"strings"
	"sync"
)

// Call is one command seen by a Recorder.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way it would appear on a command line.
func (c Call) String() string {
	return Quote(c.Name, c.Args...)
}

// Recorder is a Runner that never starts a process. It records every call and
// answers from Responses, keyed by command name (or "name subcommand" when the
// first argument is a subcommand such as "hdiutil attach"). Tests use it in
// place of the real tools.
type Recorder struct {
	mu sync.Mutex

	Calls []Call
	// Responses maps a key to the stdout returned for it.
	Responses map[string]string
	// Failures maps a key to the error returned for it.
	Failures map[string]error
	// Hook, when set, runs before the response is chosen; a non-nil error
	// is returned as the command's failure.
	Hook func(c Call) error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Responses: make(map[string]string),
		Failures:  make(map[string]error),
	}
}

// Run records the call and returns the configured response.
func (r *Recorder) Run(_ context.Context, name string, args ...string) (string, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	r.mu.Unlock()

	if r.Hook != nil {
		if err := r.Hook(call); err != nil {
			return "", err
		}
	}

	for _, key := range keys(call) {
		if err, ok := r.Failures[key]; ok {
			return "", &ExitError{Command: call.String(), Code: 1, Err: err}
		}
	}
	for _, key := range keys(call) {
		if out, ok := r.Responses[key]; ok {
			return out, nil
		}
	}
	return "", nil
}

// Commands returns the recorded calls rendered as "name first-arg" keys, in
// order. It is handy for asserting the sequence of tool invocations.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, keys(c)[0])
	}
	return out
}

func keys(c Call) []string {
	if len(c.Args) > 0 && !strings.HasPrefix(c.Args[0], "-") && !strings.ContainsAny(c.Args[0], "/.") {
		return []string{c.Name + " " + c.Args[0], c.Name}
	}
	return []string{c.Name}
}
