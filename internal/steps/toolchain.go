package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

type toolchainConfig struct {
	// Tools lists required binaries; each is probed with "--version".
	Tools []string `mapstructure:"tools"`
}

// toolchainStep is the provisioner gate: it proves every required tool is
// present and runnable before any other step spends time. A missing tool
// fails the job immediately with the probe error.
func (r *Registry) toolchainStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg toolchainConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if len(cfg.Tools) == 0 {
		return "", fmt.Errorf("toolchain step requires a tools list")
	}

	var lines []string
	for _, tool := range cfg.Tools {
		result, err := r.runner.Run(ctx, ports.CommandSpec{
			Name: tool,
			Args: []string{"--version"},
			Dir:  rc.Workdir,
		})
		if err != nil {
			return strings.Join(lines, "\n"), fmt.Errorf("toolchain probe failed for %s: %w", tool, err)
		}
		lines = append(lines, strings.TrimSpace(result.Stdout))
		r.logger.InfoContext(ctx, "tool available", "run_id", rc.RunID, "tool", tool)
	}
	return strings.Join(lines, "\n"), nil
}
