// Package process implements ports.CommandRunner on top of os/exec.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/ports"
)

// Runner executes local processes. It supports an optional allow-list: when
// any binary has been registered via Allow, everything else is refused. The
// orchestrator registers the configured toolchain binaries (cargo, git,
// git-cliff, ...) so a workflow file cannot smuggle in arbitrary commands.
type Runner struct {
	allowed map[string]bool
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a structured logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a process runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{allowed: make(map[string]bool)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Allow adds binaries to the allow-list. Calling Allow at least once switches
// the runner into strict mode.
func (r *Runner) Allow(names ...string) {
	for _, n := range names {
		r.allowed[n] = true
	}
}

// Run executes the command and captures its output.
// Arguments are passed as argv, never through a shell, which closes the
// injection path for values interpolated from commit messages or tags.
func (r *Runner) Run(ctx context.Context, spec ports.CommandSpec) (ports.CommandResult, error) {
	if len(r.allowed) > 0 && !r.allowed[spec.Name] {
		return ports.CommandResult{ExitCode: -1}, fmt.Errorf("command not allow-listed: %s", spec.Name)
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.DebugContext(ctx, "exec", "cmd", spec.Name, "args", spec.Args, "dir", spec.Dir)
	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d: %s", spec.Name, result.ExitCode, firstLine(stderr.String()))
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to start %s: %w", spec.Name, err)
	}

	return result, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
