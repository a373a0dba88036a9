package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
)

type buildConfig struct {
	// Command is the release-configuration build invocation.
	Command string `mapstructure:"command"`

	// Artifact is the fixed, predictable output path the build must
	// produce, relative to the workdir.
	Artifact string `mapstructure:"artifact"`
}

// buildStep compiles the release artifact. The contract is strict: exactly
// one regular file at the declared path. A build that "succeeds" without
// producing it fails with domain.ErrNoArtifact rather than letting the
// publisher attach nothing.
func (r *Registry) buildStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg buildConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if cfg.Command == "" {
		return "", fmt.Errorf("build step requires a command")
	}
	if cfg.Artifact == "" {
		return "", fmt.Errorf("build step requires an artifact path")
	}

	output, err := r.runCommand(ctx, cfg.Command, rc)
	if err != nil {
		return output, fmt.Errorf("release build failed: %w", err)
	}

	artifact := filepath.Join(rc.Workdir, cfg.Artifact)
	info, statErr := os.Stat(artifact)
	if statErr != nil || !info.Mode().IsRegular() {
		return output, fmt.Errorf("%w: %s", domain.ErrNoArtifact, cfg.Artifact)
	}

	rc.SetOutput(OutputBuildArtifact, artifact)
	r.logger.InfoContext(ctx, "artifact built", "run_id", rc.RunID, "path", artifact, "bytes", info.Size())
	return output, nil
}
