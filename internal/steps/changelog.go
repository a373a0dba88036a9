package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

type changelogConfig struct {
	// Mode is "continuous" (default) or "release".
	Mode string `mapstructure:"mode"`

	// Command is the generator binary, default "git-cliff".
	Command string `mapstructure:"command"`

	// Config is the generator's own configuration file, passed through
	// opaquely. Empty means the generator's defaults.
	Config string `mapstructure:"config"`

	// Output is the changelog file written in continuous mode.
	Output string `mapstructure:"output"`
}

const (
	changelogModeContinuous = "continuous"
	changelogModeRelease    = "release"

	// DefaultChangelogFile is the committed changelog path.
	DefaultChangelogFile = "CHANGELOG.md"
)

// changelogStep drives the external changelog generator.
//
// Continuous mode regenerates the whole changelog file in place, to be
// committed by the publish step. Release mode asks the generator for just
// the latest-tag excerpt with the top-level header stripped and exports it
// as the changelog.body output; nothing touches the working tree.
func (r *Registry) changelogStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg changelogConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if cfg.Mode == "" {
		cfg.Mode = changelogModeContinuous
	}
	if cfg.Command == "" {
		cfg.Command = "git-cliff"
	}
	if cfg.Output == "" {
		cfg.Output = DefaultChangelogFile
	}

	var args []string
	if cfg.Config != "" {
		args = append(args, "--config", cfg.Config)
	}

	switch cfg.Mode {
	case changelogModeContinuous:
		args = append(args, "--output", cfg.Output)
	case changelogModeRelease:
		args = append(args, "--latest", "--strip", "header")
	default:
		return "", fmt.Errorf("unknown changelog mode %q", cfg.Mode)
	}

	result, err := r.runner.Run(ctx, ports.CommandSpec{
		Name: cfg.Command,
		Args: args,
		Dir:  rc.Workdir,
	})
	if err != nil {
		// Generation failure is fatal to the job; the scheduler handles the
		// downstream containment.
		return combinedOutput(result), fmt.Errorf("changelog generation failed: %w", err)
	}

	if cfg.Mode == changelogModeRelease {
		body := strings.TrimSpace(result.Stdout)
		rc.SetOutput(OutputChangelogBody, body)
		return body, nil
	}
	return "changelog written to " + cfg.Output, nil
}
