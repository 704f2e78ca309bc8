// Package execx runs the external tools used while staging and packaging
// (hdiutil, SetFile, Rez, strip, tar, sh).
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Runner runs one external command to completion and returns its standard
// output. A non-zero exit is reported as *ExitError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExitError describes a command that could not be started or exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.Code > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.Code)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// NewRunner returns a Runner that executes in dir.
func NewRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// Run executes name with args. Stdout is returned; stderr is captured and
// attached to the error on failure.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	line := Quote(name, args...)
	log.Debug("Running command", "cmd", line)

	if err := cmd.Run(); err != nil {
		exitErr := &ExitError{
			Command: line,
			Output:  stderr.String() + stdout.String(),
			Err:     err,
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitErr.Code = ee.ExitCode()
		}
		return stdout.String(), exitErr
	}

	return stdout.String(), nil
}

// Shell runs a command line through the user's shell, the same way lifecycle
// hooks are run.
func Shell(ctx context.Context, r Runner, line string) (string, error) {
	shell := os.Getenv("SHELL")
	if runtime.GOOS == "windows" {
		if shell == "" {
			shell = "powershell.exe"
		}
		return r.Run(ctx, shell, "-Command", line)
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return r.Run(ctx, shell, "-c", line)
}

// Quote renders a command line for logs and error messages.
func Quote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
