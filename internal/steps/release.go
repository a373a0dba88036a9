package steps

import (
	"context"
	"fmt"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
)

type releaseConfig struct {
	// Name is an optional release title; the tag is used when empty.
	Name string `mapstructure:"name"`
}

// releaseStep publishes the release record: tag from the trigger, body from
// the release-mode changelog excerpt, asset from the build output. It runs
// only after both producer jobs passed (scheduler gating), so missing
// outputs here mean a miswired workflow and are hard errors.
//
// Duplicate tags are rejected: the forge reports domain.ErrReleaseExists and
// nothing is overwritten.
func (r *Registry) releaseStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg releaseConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if r.forge == nil {
		return "", fmt.Errorf("release step requires a forge client")
	}

	tag := rc.Trigger.Tag()
	if tag == "" {
		return "", fmt.Errorf("release step requires a tag trigger, got %s on %s", rc.Trigger.Event, rc.Trigger.Ref)
	}

	body, ok := rc.Output(OutputChangelogBody)
	if !ok {
		return "", fmt.Errorf("release step: no changelog excerpt in run outputs")
	}
	artifact, ok := rc.Output(OutputBuildArtifact)
	if !ok {
		return "", fmt.Errorf("release step: no build artifact in run outputs")
	}

	rel := domain.Release{Tag: tag, Name: cfg.Name, Body: body, AssetPath: artifact}
	if err := r.forge.CreateRelease(ctx, rel); err != nil {
		return "", err
	}
	if err := r.forge.UploadAsset(ctx, tag, artifact); err != nil {
		// The release record exists but the asset did not attach. Partial
		// state requires manual cleanup; surface it loudly.
		return "", fmt.Errorf("release %s created but asset upload failed: %w", tag, err)
	}

	r.logger.InfoContext(ctx, "release published", "run_id", rc.RunID, "tag", tag, "asset", artifact)
	return "release " + tag + " published", nil
}
