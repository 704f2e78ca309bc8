package packaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/oarkflow/stagepack/internal/archive"
	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// Linux archives the staging tree as a tarball whose single top-level
// directory carries the installer name.
type Linux struct {
	config   config.Linux
	tmplCtx  *tmpl.Context
	runner   execx.Runner
	buildDir string
}

// NewLinux creates a new tarball packager.
func NewLinux(o Options) *Linux {
	return &Linux{
		config:   o.Config.Linux,
		tmplCtx:  o.Tmpl,
		runner:   o.Runner,
		buildDir: o.BuildDir,
	}
}

// Finish normalizes permissions, renames the tree to the installer name for
// the duration of the archive step and renames it back whatever happens.
func (p *Linux) Finish(ctx context.Context, tree string, d descriptor.Descriptor) (h artifact.Handle, err error) {
	format, err := archive.ParseFormat(p.config.Format)
	if err != nil {
		return h, err
	}
	name, err := p.InstallerName(d)
	if err != nil {
		return h, err
	}

	log.Info("Normalizing permissions", "tree", tree)
	if err := archive.NormalizePermissions(tree); err != nil {
		return h, fmt.Errorf("failed to normalize permissions: %w", err)
	}

	renamed := filepath.Join(p.buildDir, name)
	if filepath.Clean(tree) != filepath.Clean(renamed) {
		if _, statErr := os.Lstat(renamed); statErr == nil {
			return h, fmt.Errorf("cannot rename staging tree: %s already exists", renamed)
		}
		if err := os.Rename(tree, renamed); err != nil {
			return h, fmt.Errorf("failed to rename staging tree: %w", err)
		}
		defer func() {
			if mvErr := os.Rename(renamed, tree); mvErr != nil {
				err = multierror.Append(err, fmt.Errorf("failed to restore staging tree: %w", mvErr)).ErrorOrNil()
			}
		}()
	}

	path, err := archive.Create(ctx, p.runner, p.buildDir, name, format)
	if err != nil {
		return h, err
	}

	log.Info("Archive created", "path", path)
	h = artifact.NewHandle(path, artifact.KindArchive, d.Platform)
	h.Extra = map[string]interface{}{
		"format":    string(format),
		"top_level": name,
	}
	return h, nil
}

// InstallerName is the archive base name and its top-level directory. An
// explicit override is rendered as a template first.
func (p *Linux) InstallerName(d descriptor.Descriptor) (string, error) {
	if d.InstallerName != "" {
		rendered, err := p.tmplCtx.Apply(d.InstallerName)
		if err != nil {
			return "", fmt.Errorf("failed to render installer name: %w", err)
		}
		d.InstallerName = strings.TrimSpace(rendered)
	}

	name := d.LinuxInstallerName()
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid installer name %q", name)
	}
	return name, nil
}
