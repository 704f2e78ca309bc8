// Package hook provides lifecycle hook execution.
package hook

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/execx"
	"github.com/oarkflow/stagepack/internal/tmpl"
)

// ExecFactory returns the Runner a hook is executed with.
type ExecFactory func(dir string, env []string) execx.Runner

// Runner executes lifecycle hooks.
type Runner struct {
	tmplCtx *tmpl.Context
	workDir string
	newExec ExecFactory
}

// NewRunner creates a new hook runner.
func NewRunner(tmplCtx *tmpl.Context, workDir string) *Runner {
	return &Runner{
		tmplCtx: tmplCtx,
		workDir: workDir,
		newExec: func(dir string, env []string) execx.Runner {
			return &execx.ExecRunner{Dir: dir, Env: env}
		},
	}
}

// WithExec replaces how hook processes are started.
func (r *Runner) WithExec(f ExecFactory) *Runner {
	r.newExec = f
	return r
}

// Run executes a hook.
func (r *Runner) Run(ctx context.Context, hook config.Hook) error {
	if hook.If != "" {
		condition, err := r.tmplCtx.Apply(hook.If)
		if err != nil {
			return fmt.Errorf("failed to evaluate condition: %w", err)
		}
		if condition = strings.TrimSpace(condition); condition != "true" && condition != "1" {
			log.Debug("Skipping hook due to condition", "condition", hook.If)
			return nil
		}
	}

	if strings.TrimSpace(hook.Cmd) == "" {
		return nil
	}

	cmd, err := r.tmplCtx.Apply(hook.Cmd)
	if err != nil {
		return fmt.Errorf("failed to apply template to command: %w", err)
	}

	dir := r.workDir
	if hook.Dir != "" {
		dir = hook.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.workDir, dir)
		}
	}

	env := make([]string, 0, len(hook.Env))
	for _, key := range sortedKeys(hook.Env) {
		value, err := r.tmplCtx.Apply(hook.Env[key])
		if err != nil {
			return fmt.Errorf("failed to apply template to %s: %w", key, err)
		}
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	log.Info("Running hook", "cmd", cmd)

	out, err := execx.Shell(ctx, r.newExec(dir, env), cmd)
	if out = strings.TrimSpace(out); out != "" {
		log.Debug("Hook output", "cmd", cmd, "output", out)
	}
	if err != nil {
		if hook.FailFast {
			return fmt.Errorf("hook failed: %w", err)
		}
		log.Warn("Hook failed but continuing", "cmd", cmd, "error", err)
	}

	return nil
}

// RunHooks executes multiple hooks.
func (r *Runner) RunHooks(ctx context.Context, hooks []config.Hook) error {
	for _, hook := range hooks {
		if err := r.Run(ctx, hook); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
