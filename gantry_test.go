package gantry_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/adapters/memory"
	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// scriptedRunner fakes every external tool of the default pipelines.
// git status reports the changelog as dirty so the publish path is exercised.
type scriptedRunner struct {
	mu    sync.Mutex
	calls []ports.CommandSpec
	fail  map[string]string // "name arg0" -> stderr
}

func (r *scriptedRunner) Run(_ context.Context, spec ports.CommandSpec) (ports.CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, spec)
	r.mu.Unlock()

	key := spec.Name
	if len(spec.Args) > 0 {
		key += " " + spec.Args[0]
	}
	if msg, ok := r.fail[key]; ok {
		return ports.CommandResult{Stderr: msg, ExitCode: 1}, &exitErr{msg: msg}
	}

	switch {
	case spec.Name == "git" && len(spec.Args) > 0 && spec.Args[0] == "status":
		return ports.CommandResult{Stdout: " M CHANGELOG.md\n"}, nil
	case spec.Name == "git-cliff" && hasArg(spec.Args, "--latest"):
		return ports.CommandResult{Stdout: "## [1.2.0] - 2026-08-29\n\n### Added\n- widget\n"}, nil
	}
	return ports.CommandResult{}, nil
}

type exitErr struct{ msg string }

func (e *exitErr) Error() string { return e.msg }

func (r *scriptedRunner) ran(name, arg0 string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.Name == name && (arg0 == "" || (len(c.Args) > 0 && c.Args[0] == arg0)) {
			return true
		}
	}
	return false
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

type recordingForge struct {
	mu       sync.Mutex
	releases []domain.Release
	assets   []string
	statuses []ports.CommitState
}

func (f *recordingForge) CreateRelease(_ context.Context, rel domain.Release) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, rel)
	return nil
}

func (f *recordingForge) UploadAsset(_ context.Context, _ string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets = append(f.assets, path)
	return nil
}

func (f *recordingForge) ReportStatus(_ context.Context, _ string, state ports.CommitState, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, state)
	return nil
}

func setup(t *testing.T, runner ports.CommandRunner, opts ...gantry.Option) *gantry.Orchestrator {
	t.Helper()

	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "test.yml"), []byte(config.DefaultTestWorkflow), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "release.yml"), []byte(config.DefaultReleaseWorkflow), 0o644))

	workdir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workdir, "target", "release"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "target", "release", "app"), []byte("bin"), 0o755))

	opts = append([]gantry.Option{
		gantry.WithCommandRunner(runner),
		gantry.WithWorkdir(workdir),
	}, opts...)

	orch, err := gantry.New(configDir, opts...)
	require.NoError(t, err)
	return orch
}

func TestDispatch_PushToMainPublishesChangelog(t *testing.T) {
	runner := &scriptedRunner{}
	forge := &recordingForge{}
	store := memory.NewStore()
	orch := setup(t, runner, gantry.WithForge(forge), gantry.WithRunStore(store))

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event:   domain.EventPush,
		Ref:     "main",
		SHA:     "abc123",
		Message: "feat: add widget",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusPassed, results[0].Status)

	// Gate ran, changelog regenerated and pushed back.
	assert.True(t, runner.ran("cargo", "test"))
	assert.True(t, runner.ran("git-cliff", ""))
	assert.True(t, runner.ran("git", "push"))

	// Commit status went pending then success, and the run was persisted.
	assert.Equal(t, []ports.CommitState{ports.CommitPending, ports.CommitSuccess}, forge.statuses)
	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestDispatch_PullRequestDoesNotPublish(t *testing.T) {
	runner := &scriptedRunner{}
	orch := setup(t, runner)

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event: domain.EventPullRequest,
		Ref:   "main",
		SHA:   "abc123",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusPassed, results[0].Status)

	assert.True(t, runner.ran("cargo", "test"))
	assert.False(t, runner.ran("git", "push"))

	changelog := results[0].Job("changelog")
	require.NotNil(t, changelog)
	assert.Equal(t, domain.StatusSkipped, changelog.Status)
}

func TestDispatch_TagPublishesRelease(t *testing.T) {
	runner := &scriptedRunner{}
	forge := &recordingForge{}
	orch := setup(t, runner, gantry.WithForge(forge))

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event: domain.EventTagPush,
		Ref:   "v1.2.0",
		SHA:   "def456",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusPassed, results[0].Status)

	require.Len(t, forge.releases, 1)
	assert.Equal(t, "v1.2.0", forge.releases[0].Tag)
	assert.Contains(t, forge.releases[0].Body, "1.2.0")
	require.Len(t, forge.assets, 1)
	assert.True(t, strings.HasSuffix(forge.assets[0], filepath.Join("target", "release", "app")))
}

func TestDispatch_GateFailureSkipsChangelog(t *testing.T) {
	runner := &scriptedRunner{fail: map[string]string{"cargo test": "2 tests failed"}}
	forge := &recordingForge{}
	orch := setup(t, runner, gantry.WithForge(forge))

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event:   domain.EventPush,
		Ref:     "main",
		SHA:     "abc123",
		Message: "feat: broken",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusFailed, results[0].Status)

	assert.False(t, runner.ran("git", "push"))
	assert.Equal(t, []ports.CommitState{ports.CommitPending, ports.CommitFailure}, forge.statuses)
}

func TestDispatch_RefusesSkipMarkedTrigger(t *testing.T) {
	runner := &scriptedRunner{}
	orch := setup(t, runner)

	_, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event:   domain.EventPush,
		Ref:     "main",
		SHA:     "abc123",
		Message: "chore(changelog): regenerate CHANGELOG.md [skip ci]",
	})
	require.ErrorIs(t, err, domain.ErrSkipRequested)
	assert.Empty(t, runner.calls)
}

func TestDispatch_UnmatchedTriggerRunsNothing(t *testing.T) {
	runner := &scriptedRunner{}
	orch := setup(t, runner)

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event: domain.EventPush,
		Ref:   "feature/x",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, runner.calls)
}
