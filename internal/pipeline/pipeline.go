/*
Package pipeline provides the staging and packaging orchestration for
stagepack.

A run loads the configuration, derives the package descriptor, runs the
before hooks, stages the platform recipe into the destination tree, finishes
the tree with the platform packager, records the artifact (with its checksum)
and runs the after hooks.
*/
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/checksum"
	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/hook"
	"github.com/oarkflow/stagepack/internal/manifest"
	"github.com/oarkflow/stagepack/internal/packaging"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/recipe"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// RecordFile is the artifact record written to the build directory.
const RecordFile = "stagepack-artifacts.json"

// Options contains options for a packaging run
type Options struct {
	// ConfigFile is read when Config is nil. Empty means the first default
	// file found in the working directory.
	ConfigFile string

	// Config, when set, is used as is (after defaults and overrides).
	Config *config.Config

	// BaseDir anchors the relative paths of the configuration. It defaults
	// to the directory of the configuration file, or the working directory.
	BaseDir string

	// Overrides replace descriptor defaults from the file.
	Overrides config.Descriptor

	// Path overrides, relative to the working directory.
	Source string
	Build  string
	Dest   string

	// Clean removes the staging tree before copying.
	Clean bool

	// Symlink stages links instead of copies, for local iteration only.
	Symlink bool

	// SkipHooks disables the before and after hooks.
	SkipHooks bool

	// Runner runs external tools. Defaults to processes started in the
	// source directory.
	Runner execx.Runner

	// HookExec replaces how hook processes are started.
	HookExec hook.ExecFactory
}

// Pipeline orchestrates one staging and packaging run
type Pipeline struct {
	config    *config.Config
	options   Options
	desc      descriptor.Descriptor
	tmplCtx   *tmpl.Context
	runner    execx.Runner
	hooks     *hook.Runner
	artifacts *artifact.Manager

	baseDir   string
	sourceDir string
	buildDir  string
	destDir   string

	runID     string
	startTime time.Time
}

// New loads the configuration and prepares a run.
func New(opts Options) (*Pipeline, error) {
	cfg := opts.Config
	baseDir := opts.BaseDir
	if cfg == nil {
		cfgPath := opts.ConfigFile
		if cfgPath == "" {
			cfgPath = FindConfigFile()
		}

		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if baseDir == "" {
			baseDir = filepath.Dir(cfgPath)
		}
	}
	if baseDir == "" {
		baseDir = "."
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyOverrides(opts.Overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	desc, err := NewDescriptor(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}

	p := &Pipeline{
		config:    cfg,
		options:   opts,
		desc:      desc,
		tmplCtx:   tmpl.New(desc, cfg.Variables),
		artifacts: artifact.NewManager(),
		baseDir:   baseDir,
		runID:     uuid.NewString(),
		startTime: time.Now(),
	}

	if p.sourceDir, err = p.resolve(opts.Source, cfg.Paths.Source); err != nil {
		return nil, err
	}
	if p.buildDir, err = p.resolve(opts.Build, cfg.Paths.Build); err != nil {
		return nil, err
	}
	if p.destDir, err = p.resolve(opts.Dest, cfg.Paths.Dest); err != nil {
		return nil, err
	}

	p.runner = opts.Runner
	if p.runner == nil {
		p.runner = execx.NewRunner(p.sourceDir)
	}
	p.hooks = hook.NewRunner(p.tmplCtx, baseDir)
	if opts.HookExec != nil {
		p.hooks.WithExec(opts.HookExec)
	}

	p.tmplCtx.Set("SourceDir", p.sourceDir)
	p.tmplCtx.Set("BuildDir", p.buildDir)
	p.tmplCtx.Set("DestDir", p.destDir)
	p.tmplCtx.Set("RunID", p.runID)

	return p, nil
}

// NewDescriptor derives the package descriptor from the configuration's
// descriptor section. The platform defaults to the host and the
// architecture to the platform's.
func NewDescriptor(cfg *config.Config) (descriptor.Descriptor, error) {
	o := cfg.Descriptor

	p := platform.Host()
	if o.Platform != "" {
		var err error
		if p, err = platform.Parse(o.Platform); err != nil {
			return descriptor.Descriptor{}, err
		}
	}

	version, err := descriptor.ParseVersion(o.Version)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	arch := o.Arch
	if arch == "" {
		arch = p.Arch()
	}
	channel := o.Channel
	if channel == "" {
		channel = cfg.Product.DefaultChannel
	}

	d := descriptor.Descriptor{
		Product: descriptor.Product{
			AppName:         cfg.Product.AppName,
			InstallerPrefix: cfg.Product.InstallerPrefix,
			DefaultChannel:  cfg.Product.DefaultChannel,
			DefaultGrid:     cfg.Product.DefaultGrid,
		},
		Platform:      p,
		Configuration: o.Configuration,
		BuildType:     o.BuildType,
		Channel:       channel,
		LoginChannel:  o.LoginChannel,
		BrandingID:    o.BrandingID,
		Grid:          o.Grid,
		Arch:          arch,
		Version:       version,
		Actions:       append([]string(nil), o.Actions...),
		InstallerName: o.InstallerName,
	}
	return d, d.Validate()
}

// Descriptor returns the descriptor of the run.
func (p *Pipeline) Descriptor() descriptor.Descriptor { return p.desc }

// Config returns the effective configuration.
func (p *Pipeline) Config() *config.Config { return p.config }

// DestDir returns the absolute staging tree path.
func (p *Pipeline) DestDir() string { return p.destDir }

// BuildDir returns the absolute build output path.
func (p *Pipeline) BuildDir() string { return p.buildDir }

// Artifacts returns everything recorded so far.
func (p *Pipeline) Artifacts() []artifact.Handle { return p.artifacts.All() }

// Run executes the requested actions and returns the final artifact.
func (p *Pipeline) Run(ctx context.Context) (artifact.Handle, error) {
	log.Info("Starting packaging run",
		"app", p.desc.Product.AppName,
		"platform", p.desc.Platform,
		"version", p.desc.Version.String(),
		"actions", p.desc.Actions)

	if err := p.runHooks(ctx, p.config.Before, "before"); err != nil {
		return artifact.Handle{}, err
	}

	if p.desc.HasAction(descriptor.ActionCopy) {
		if err := p.Stage(ctx); err != nil {
			return artifact.Handle{}, err
		}
	} else {
		log.Info("Not copying, using the existing staging tree", "tree", p.destDir)
	}

	var (
		h   artifact.Handle
		err error
	)
	if p.desc.HasAction(descriptor.ActionPackage) {
		h, err = p.Package(ctx)
	} else {
		h, err = p.unpacked()
	}
	if err != nil {
		return h, err
	}

	if h, err = p.record(h); err != nil {
		return h, err
	}

	p.tmplCtx.Set("ArtifactPath", h.Path)
	p.tmplCtx.Set("ArtifactName", h.Name)
	if err := p.runHooks(ctx, p.config.After, "after"); err != nil {
		return h, err
	}

	log.Info("Packaging run complete", "artifact", h.Path, "duration", time.Since(p.startTime).Round(time.Millisecond))
	return h, nil
}

// Stage populates the staging tree from the platform recipe.
func (p *Pipeline) Stage(ctx context.Context) error {
	if p.options.Clean {
		log.Info("Cleaning staging tree", "path", p.destDir)
		if err := os.RemoveAll(p.destDir); err != nil {
			return fmt.Errorf("failed to clean staging tree: %w", err)
		}
	}
	if err := os.MkdirAll(p.destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging tree: %w", err)
	}

	var opts []manifest.Option
	if p.options.Symlink {
		opts = append(opts, manifest.WithCopyMode(manifest.Symlink))
	}
	b, err := manifest.NewBuilder(p.sourceDir, p.destDir, opts...)
	if err != nil {
		return err
	}

	log.Info("Staging", "src", p.sourceDir, "dst", p.destDir, "platform", p.desc.Platform)
	session := recipe.NewSession(b, p.desc, p.config, p.runner, p.tmplCtx)
	if err := session.Construct(ctx); err != nil {
		return fmt.Errorf("staging failed: %w", err)
	}

	log.Info("Staged", "files", len(b.Staged()))
	return nil
}

// Package finishes the staging tree with the platform packager.
func (p *Pipeline) Package(ctx context.Context) (artifact.Handle, error) {
	if _, err := os.Stat(p.destDir); err != nil {
		return artifact.Handle{}, fmt.Errorf("staging tree not found: %w", err)
	}
	if err := os.MkdirAll(p.buildDir, 0o755); err != nil {
		return artifact.Handle{}, err
	}

	packager, err := packaging.For(p.desc.Platform, packaging.Options{
		Config:    p.config,
		Tmpl:      p.tmplCtx,
		Runner:    p.runner,
		SourceDir: p.sourceDir,
		BuildDir:  p.buildDir,
	})
	if err != nil {
		return artifact.Handle{}, err
	}

	h, err := packager.Finish(ctx, p.destDir, p.desc)
	if err != nil {
		return h, fmt.Errorf("packaging failed: %w", err)
	}
	return h, nil
}

// Check validates the run without touching the staging tree: the source
// root must exist and the recipe must be known for the platform.
func (p *Pipeline) Check() error {
	info, err := os.Stat(p.sourceDir)
	if err != nil {
		return fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %s is not a directory", p.sourceDir)
	}
	if _, err := recipe.Steps(p.desc.Platform); err != nil {
		return err
	}
	if _, err := packaging.For(p.desc.Platform, packaging.Options{Config: p.config}); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) unpacked() (artifact.Handle, error) {
	if _, err := os.Stat(p.destDir); err != nil {
		return artifact.Handle{}, fmt.Errorf("staging tree not found: %w", err)
	}
	log.Info("Leaving staging tree unpacked", "tree", p.destDir)
	return artifact.NewHandle(p.destDir, artifact.KindDirectory, p.desc.Platform), nil
}

// record checksums the artifact and saves the run's artifact list next to
// it.
func (p *Pipeline) record(h artifact.Handle) (artifact.Handle, error) {
	h.RunID = p.runID

	h, sidecar, ok, err := checksum.NewGenerator(p.config.Checksum).Write(h)
	if err != nil {
		return h, err
	}
	p.artifacts.Add(h)
	if ok {
		p.artifacts.Add(sidecar)
	}

	path := filepath.Join(p.buildDir, RecordFile)
	if err := p.artifacts.Save(path); err != nil {
		return h, fmt.Errorf("failed to write artifact record: %w", err)
	}
	log.Debug("Artifact record saved", "path", path)
	return h, nil
}

func (p *Pipeline) runHooks(ctx context.Context, hooks config.Hooks, phase string) error {
	if p.options.SkipHooks || len(hooks.Hooks) == 0 {
		return nil
	}
	log.Debug("Running hooks", "phase", phase, "count", len(hooks.Hooks))
	if err := p.hooks.RunHooks(ctx, hooks.Hooks); err != nil {
		return fmt.Errorf("%s hook: %w", phase, err)
	}
	return nil
}

// resolve picks the flag value over the configured one. Flag values are
// relative to the working directory, configured ones to the base directory.
func (p *Pipeline) resolve(flag, configured string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured), nil
	}
	return filepath.Join(p.baseDir, configured), nil
}

// FindConfigFile returns the first default configuration file present in
// the working directory.
func FindConfigFile() string {
	candidates := []string{
		config.DefaultFile,
		".stagepack.yml",
		"stagepack.yaml",
		"stagepack.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}

	return config.DefaultFile
}
