// Package packaging turns a finished staging tree into the platform's
// installer artifact: a verified directory on Windows, a compressed disk
// image on macOS and a tarball on Linux.
package packaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/recipe"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// ErrIncompleteTree is returned when a staging tree lacks a file the
// installer tooling depends on.
var ErrIncompleteTree = errors.New("staging tree is incomplete")

// Packager finishes a staging tree.
type Packager interface {
	Finish(ctx context.Context, tree string, d descriptor.Descriptor) (artifact.Handle, error)
}

// Options carries what every packager may need.
type Options struct {
	Config *config.Config
	Tmpl   *tmpl.Context
	Runner execx.Runner

	// SourceDir is the absolute source root; DMG templates and the alias
	// resource are resolved against it.
	SourceDir string

	// BuildDir is where images and archives are written.
	BuildDir string
}

// For returns the packager for p.
func For(p platform.Platform, o Options) (Packager, error) {
	switch {
	case p == platform.Windows:
		return NewWindows(o.Config), nil
	case p == platform.Darwin:
		return NewDarwin(o), nil
	case p.IsLinux():
		return NewLinux(o), nil
	}
	return nil, fmt.Errorf("no packager for platform %q", p)
}

// Windows leaves installer assembly to an external authoring tool and only
// checks that the tree is ready for it.
type Windows struct {
	config *config.Config
}

// NewWindows creates a new Windows packager.
func NewWindows(cfg *config.Config) *Windows {
	return &Windows{config: cfg}
}

// Finish verifies that the executable and its .config companion are both
// present under the same base name.
func (w *Windows) Finish(_ context.Context, tree string, _ descriptor.Descriptor) (artifact.Handle, error) {
	exe := recipe.FinalExe(w.config)
	for _, name := range []string{exe, exe + ".config"} {
		info, err := os.Stat(filepath.Join(tree, name))
		if err != nil {
			if os.IsNotExist(err) {
				return artifact.Handle{}, fmt.Errorf("%w: %s is missing", ErrIncompleteTree, name)
			}
			return artifact.Handle{}, err
		}
		if !info.Mode().IsRegular() {
			return artifact.Handle{}, fmt.Errorf("%w: %s is not a regular file", ErrIncompleteTree, name)
		}
	}

	log.Info("Staging tree ready for the installer tool", "tree", tree, "executable", exe)

	h := artifact.NewHandle(tree, artifact.KindDirectory, platform.Windows)
	h.Extra = map[string]interface{}{"executable": exe}
	return h, nil
}
