/*
Package recipe describes what goes into the staging tree for each platform.

A recipe is an ordered list of Steps. Every platform starts from the shared
content steps (settings, characters, fonts, skins) and adds its own
executables, libraries and plugins. Steps drive a manifest.Builder through a
Session; optional components are wrapped in Session.Optional so their
absence is logged and skipped unless the configuration requires them.
*/
package recipe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/manifest"
	"github.com/oarkflow/stagepack/internal/platform"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// Step is one named unit of a recipe. f is the frame the step's content is
// placed under.
type Step struct {
	Name string
	Run  func(ctx context.Context, s *Session, f manifest.Frame) error
}

// Session carries everything a step needs for one construction pass.
type Session struct {
	Builder *manifest.Builder
	Desc    descriptor.Descriptor
	Config  *config.Config
	Runner  execx.Runner
	Tmpl    *tmpl.Context

	found map[string]bool
}

// NewSession returns a Session for one construction pass.
func NewSession(b *manifest.Builder, d descriptor.Descriptor, cfg *config.Config, r execx.Runner, t *tmpl.Context) *Session {
	return &Session{
		Builder: b,
		Desc:    d,
		Config:  cfg,
		Runner:  r,
		Tmpl:    t,
		found:   make(map[string]bool),
	}
}

// Steps returns the recipe for p.
func Steps(p platform.Platform) ([]Step, error) {
	switch p {
	case platform.Windows:
		return concat(commonSteps(), windowsSteps()), nil
	case platform.Darwin:
		return concat([]Step{exclusionStep()}, darwinSteps()), nil
	case platform.LinuxX86:
		return concat(commonSteps(), linuxSteps(), linuxX86Steps()), nil
	case platform.LinuxX86_64:
		return concat(commonSteps(), linuxSteps(), linuxX86_64Steps()), nil
	}
	return nil, fmt.Errorf("no recipe for platform %q", p)
}

// Construct runs the recipe for the session's platform against the
// builder's root frame.
func (s *Session) Construct(ctx context.Context) error {
	steps, err := Steps(s.Desc.Platform)
	if err != nil {
		return err
	}
	return s.Run(ctx, s.Builder.Root(), steps)
}

// Run executes steps in order under f and stops at the first failure.
func (s *Session) Run(ctx context.Context, f manifest.Frame, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug("Running step", "step", step.Name, "dst", f.Dst())
		if err := step.Run(ctx, s, f); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

// Optional runs fn for a component that may legitimately be absent. A
// missing source is logged and skipped unless the component's policy is
// "require"; any other failure is returned unchanged.
func (s *Session) Optional(component string, fn func() error) error {
	err := fn()
	s.found[component] = err == nil
	if err == nil || !manifest.IsMissing(err) {
		return err
	}

	if s.Config.PolicyFor(component) == config.PolicyRequire {
		return fmt.Errorf("required component %s is missing: %w", component, err)
	}
	log.Warn("Skipping "+component, "reason", err)
	return nil
}

// Found reports whether an optional component was staged.
func (s *Session) Found(component string) bool {
	return s.found[component]
}

// copy stages one source. An empty dst keeps the source's relative name.
func (s *Session) copy(f manifest.Frame, src, dst string) error {
	_, err := s.Builder.Path(f, src, dst)
	return err
}

// copyAll stages each source under its own name.
func (s *Session) copyAll(f manifest.Frame, srcs ...string) error {
	for _, src := range srcs {
		if err := s.copy(f, src, ""); err != nil {
			return err
		}
	}
	return nil
}

// resolveCopy stages the first existing candidate at dst.
func (s *Session) resolveCopy(f manifest.Frame, dst string, candidates ...string) error {
	src, err := s.Builder.Resolve(f, candidates...).Require()
	if err != nil {
		return err
	}
	log.Debug("Resolved", "dst", dst, "src", src)
	return s.copy(f, src, dst)
}

// configuration is the build output directory name.
func (s *Session) configuration() string {
	return s.Desc.Configuration
}

// library resolves rel inside the platform's prebuilt library directory.
func (s *Session) library(sub, rel string) string {
	return filepath.Join(s.Config.Paths.Libraries, sub, rel)
}

// flagsList renders the launch flags for the target grid.
func (s *Session) flagsList() (string, error) {
	uri := ""
	if !s.Desc.IsDefaultGrid() {
		var err error
		if uri, err = s.Tmpl.Apply(s.Config.Product.HelperURITemplate); err != nil {
			return "", fmt.Errorf("render helper uri: %w", err)
		}
	}
	return s.Desc.FlagsList(uri), nil
}

// FinalExe is the Windows executable name in the staging tree.
func FinalExe(cfg *config.Config) string {
	if cfg.Product.FinalExe != "" {
		return cfg.Product.FinalExe
	}
	return strings.Join(strings.Fields(cfg.Product.AppName), "") + ".exe"
}

func concat(groups ...[]Step) []Step {
	var out []Step
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
