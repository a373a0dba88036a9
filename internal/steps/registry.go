// Package steps implements the builtin pipeline steps and the plain-command
// step. The Registry satisfies scheduler.StepExecutor: the scheduler decides
// when a step runs, the registry decides what it does.
//
// Builtins follow an allow-list registry pattern: a `uses:` name resolves to
// a known handler, `with:` parameters decode into that handler's typed
// config via mapstructure. Unknown names are load-order errors, not silent
// no-ops.
package steps

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// Output keys exported into the run context. These are the artifact and
// changelog handoff points between jobs.
const (
	OutputChangelogBody = "changelog.body"
	OutputBuildArtifact = "build.artifact"
)

type handler func(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error)

// Registry executes steps against the injected ports.
type Registry struct {
	runner ports.CommandRunner
	cache  ports.CacheStore
	forge  ports.Forge
	logger *slog.Logger
	osID   string

	builtins map[string]handler
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithCacheStore wires the dependency cache. Without it, cache steps degrade
// to logged no-ops.
func WithCacheStore(store ports.CacheStore) Option {
	return func(r *Registry) { r.cache = store }
}

// WithForge wires the hosting-system write surface. Release steps fail
// without it.
func WithForge(f ports.Forge) Option {
	return func(r *Registry) { r.forge = f }
}

// WithOSID overrides the runner OS class used in cache keys (tests).
func WithOSID(osID string) Option {
	return func(r *Registry) { r.osID = osID }
}

// NewRegistry creates a Registry around a command runner.
func NewRegistry(runner ports.CommandRunner, opts ...Option) *Registry {
	r := &Registry{
		runner: runner,
		osID:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}

	r.builtins = map[string]handler{
		"toolchain":         r.toolchainStep,
		"cache":             r.cacheStep,
		"changelog":         r.changelogStep,
		"publish-changelog": r.publishChangelogStep,
		"build":             r.buildStep,
		"release":           r.releaseStep,
	}
	return r
}

// Builtins returns the known `uses:` names, for config validation.
func (r *Registry) Builtins() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	return names
}

// Execute runs one step. Plain `run:` commands go straight to the command
// runner; `uses:` steps dispatch to a builtin.
func (r *Registry) Execute(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	if step.Run != "" {
		return r.runCommand(ctx, step.Run, rc)
	}

	h, ok := r.builtins[step.Uses]
	if !ok {
		return "", fmt.Errorf("unknown builtin step: %q", step.Uses)
	}
	return h(ctx, step, rc)
}

func (r *Registry) runCommand(ctx context.Context, command string, rc *scheduler.RunContext) (string, error) {
	argv, err := splitCommand(command)
	if err != nil {
		return "", err
	}

	result, err := r.runner.Run(ctx, ports.CommandSpec{
		Name: argv[0],
		Args: argv[1:],
		Dir:  rc.Workdir,
	})
	output := combinedOutput(result)
	if err != nil {
		return output, err
	}
	return output, nil
}

// decodeWith maps a step's `with:` block into a typed config.
func decodeWith(step domain.Step, target any) error {
	if err := mapstructure.Decode(step.With, target); err != nil {
		return fmt.Errorf("invalid parameters for %q: %w", step.Uses, err)
	}
	return nil
}

func combinedOutput(result ports.CommandResult) string {
	out := strings.TrimSpace(result.Stdout)
	errOut := strings.TrimSpace(result.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	}
	return out + "\n" + errOut
}

// splitCommand tokenizes a `run:` line into argv. A deliberately small
// splitter: single and double quotes group words, nothing is expanded. Steps
// needing real shell features should invoke `sh -c` explicitly.
func splitCommand(command string) ([]string, error) {
	var argv []string
	var cur strings.Builder
	var quote rune
	inWord := false

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				argv = append(argv, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unbalanced quote in command: %s", command)
	}
	if inWord {
		argv = append(argv, cur.String())
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}
