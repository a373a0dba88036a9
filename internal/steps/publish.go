package steps

import (
	"context"

	"github.com/aretw0/gantry/internal/adapters/gitcli"
	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/internal/trigger"
	"github.com/aretw0/gantry/pkg/domain"
)

type publishChangelogConfig struct {
	// Branch to push to, default "main".
	Branch string `mapstructure:"branch"`

	// File is the changelog path, default CHANGELOG.md.
	File string `mapstructure:"file"`
}

// PublishCommitMessage is the fixed, machine-authored commit message.
// The skip marker is part of the contract: it is what keeps the auto-commit
// from re-triggering the test pipeline in a loop.
const PublishCommitMessage = "chore(changelog): regenerate " + DefaultChangelogFile + " " + trigger.SkipMarker

// publishChangelogStep commits and pushes the regenerated changelog.
// If the file is unchanged the step is a no-op, so an idle repository never
// accumulates empty commits. This is the only step permitted to write back
// to the main branch.
func (r *Registry) publishChangelogStep(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	var cfg publishChangelogConfig
	if err := decodeWith(step, &cfg); err != nil {
		return "", err
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.File == "" {
		cfg.File = DefaultChangelogFile
	}

	git := gitcli.New(r.runner, rc.Workdir)

	clean, err := git.IsClean(ctx, cfg.File)
	if err != nil {
		return "", err
	}
	if clean {
		r.logger.InfoContext(ctx, "changelog unchanged", "run_id", rc.RunID, "file", cfg.File)
		return "changelog unchanged, nothing to publish", nil
	}

	if err := git.CommitAndPush(ctx, cfg.Branch, PublishCommitMessage, cfg.File); err != nil {
		return "", err
	}
	r.logger.InfoContext(ctx, "changelog published", "run_id", rc.RunID, "branch", cfg.Branch)
	return "changelog committed and pushed to " + cfg.Branch, nil
}
