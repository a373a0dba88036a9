// Package gitcli drives the git binary through the CommandRunner port.
// It covers exactly the plumbing the pipelines need: cleanliness checks,
// the changelog auto-commit, tag lookups and head inspection.
package gitcli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/gantry/pkg/ports"
)

// Git wraps repository operations in a working directory.
type Git struct {
	runner ports.CommandRunner
	dir    string
}

// New creates a Git helper bound to a repository directory.
func New(runner ports.CommandRunner, dir string) *Git {
	return &Git{runner: runner, dir: dir}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	result, err := g.runner.Run(ctx, ports.CommandSpec{Name: "git", Args: args, Dir: g.dir})
	if err != nil {
		return result.Stdout, fmt.Errorf("git %s: %w", args[0], err)
	}
	return result.Stdout, nil
}

// IsClean reports whether the given paths (or the whole tree when empty)
// have no uncommitted changes.
func (g *Git) IsClean(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// CommitAndPush stages the paths, commits with the message and pushes to the
// branch on origin. Callers must check IsClean first; committing a clean
// tree is an error here, not a silent no-op, so the no-empty-commit decision
// stays visible at the call site.
func (g *Git) CommitAndPush(ctx context.Context, branch, message string, paths ...string) error {
	addArgs := append([]string{"add", "--"}, paths...)
	if _, err := g.run(ctx, addArgs...); err != nil {
		return err
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	if _, err := g.run(ctx, "push", "origin", "HEAD:"+branch); err != nil {
		return err
	}
	return nil
}

// LastTag returns the most recent reachable tag, or "" when none exists.
func (g *Git) LastTag(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		// A repository without tags is a normal state, not a failure.
		if strings.Contains(err.Error(), "exited with code 128") {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadMessage returns the full message of the head commit.
func (g *Git) HeadMessage(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "log", "-1", "--pretty=%B")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadSHA returns the head commit hash.
func (g *Git) HeadSHA(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
