package scheduler_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
)

// fakeExecutor records executed steps and fails the ones listed in failOn.
type fakeExecutor struct {
	mu       sync.Mutex
	executed []string
	failOn   map[string]bool
}

func (f *fakeExecutor) Execute(ctx context.Context, step domain.Step, rc *scheduler.RunContext) (string, error) {
	f.mu.Lock()
	f.executed = append(f.executed, step.Label())
	f.mu.Unlock()
	if f.failOn[step.Label()] {
		return "boom", fmt.Errorf("step %s failed", step.Label())
	}
	return "ok", nil
}

func (f *fakeExecutor) ran(label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.executed {
		if l == label {
			return true
		}
	}
	return false
}

func testWorkflow() *domain.Workflow {
	return &domain.Workflow{
		Name: "test",
		On: domain.TriggerRule{
			Events:   []domain.EventKind{domain.EventPush, domain.EventPullRequest},
			Branches: []string{"main"},
		},
		Jobs: []domain.Job{
			{
				ID: "test",
				Steps: []domain.Step{
					{Name: "fmt-check", Run: "cargo fmt --all -- --check"},
					{Name: "lint", Run: "cargo clippy -- -D warnings"},
					{Name: "tests", Run: "cargo test"},
				},
			},
			{
				ID:    "changelog",
				Needs: []string{"test"},
				Only: &domain.TriggerRule{
					Events:   []domain.EventKind{domain.EventPush},
					Branches: []string{"main"},
				},
				Steps: []domain.Step{
					{Uses: "changelog"},
					{Uses: "publish-changelog"},
				},
			},
		},
	}
}

func releaseWorkflow() *domain.Workflow {
	return &domain.Workflow{
		Name: "release",
		On: domain.TriggerRule{
			Events: []domain.EventKind{domain.EventTagPush},
			Tags:   []string{"v*"},
		},
		Jobs: []domain.Job{
			{ID: "build", Steps: []domain.Step{{Uses: "build"}}},
			{ID: "notes", Steps: []domain.Step{{Uses: "changelog"}}},
			{ID: "publish", Needs: []string{"build", "notes"}, Steps: []domain.Step{{Uses: "release"}}},
		},
	}
}

func pushToMain() domain.Trigger {
	return domain.Trigger{Event: domain.EventPush, Ref: "main", SHA: "abc123"}
}

func TestExecutePushToMainRunsFullChain(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(exec)

	rc := scheduler.NewRunContext("run-1", pushToMain(), t.TempDir())
	result := s.Execute(context.Background(), testWorkflow(), rc)

	assert.Equal(t, domain.StatusPassed, result.Status)
	require.NotNil(t, result.Job("changelog"))
	assert.Equal(t, domain.StatusPassed, result.Job("changelog").Status)
	assert.True(t, exec.ran("publish-changelog"))
}

func TestExecutePullRequestSkipsChangelogPublisher(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(exec)

	trig := domain.Trigger{Event: domain.EventPullRequest, Ref: "main", SHA: "abc123"}
	rc := scheduler.NewRunContext("run-2", trig, t.TempDir())
	result := s.Execute(context.Background(), testWorkflow(), rc)

	// The run passes: a skipped push-only job is not a failure.
	assert.Equal(t, domain.StatusPassed, result.Status)
	assert.Equal(t, domain.StatusSkipped, result.Job("changelog").Status)
	assert.False(t, exec.ran("publish-changelog"))
}

func TestExecuteGateFailureIsFailFast(t *testing.T) {
	exec := &fakeExecutor{failOn: map[string]bool{"lint": true}}
	s := scheduler.New(exec)

	rc := scheduler.NewRunContext("run-3", pushToMain(), t.TempDir())
	result := s.Execute(context.Background(), testWorkflow(), rc)

	assert.Equal(t, domain.StatusFailed, result.Status)

	// The failing step aborts the job immediately: tests never ran.
	gate := result.Job("test")
	require.NotNil(t, gate)
	assert.Equal(t, domain.StatusFailed, gate.Status)
	assert.Len(t, gate.Steps, 2)
	assert.False(t, exec.ran("tests"))

	// And containment: no changelog side effect anywhere downstream.
	assert.Equal(t, domain.StatusSkipped, result.Job("changelog").Status)
	assert.False(t, exec.ran("changelog"))
	assert.False(t, exec.ran("publish-changelog"))
}

func TestExecuteReleaseBuildFailureSkipsPublisher(t *testing.T) {
	exec := &fakeExecutor{failOn: map[string]bool{"build": true}}
	s := scheduler.New(exec)

	trig := domain.Trigger{Event: domain.EventTagPush, Ref: "v1.2.0", SHA: "abc123"}
	rc := scheduler.NewRunContext("run-4", trig, t.TempDir())
	result := s.Execute(context.Background(), releaseWorkflow(), rc)

	assert.Equal(t, domain.StatusFailed, result.Status)
	assert.Equal(t, domain.StatusFailed, result.Job("build").Status)

	// The parallel branch still runs to completion.
	assert.Equal(t, domain.StatusPassed, result.Job("notes").Status)
	assert.True(t, exec.ran("changelog"))

	// The publisher is never invoked without a successful build.
	assert.Equal(t, domain.StatusSkipped, result.Job("publish").Status)
	assert.False(t, exec.ran("release"))
}

func TestExecuteReleaseHappyPath(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(exec)

	trig := domain.Trigger{Event: domain.EventTagPush, Ref: "v1.2.0", SHA: "abc123"}
	rc := scheduler.NewRunContext("run-5", trig, t.TempDir())
	result := s.Execute(context.Background(), releaseWorkflow(), rc)

	assert.Equal(t, domain.StatusPassed, result.Status)
	assert.True(t, exec.ran("release"))
}

func TestExecuteCanceledContext(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := scheduler.NewRunContext("run-6", pushToMain(), t.TempDir())
	result := s.Execute(ctx, testWorkflow(), rc)

	assert.Equal(t, domain.StatusCanceled, result.Status)
}

func TestExecuteFiresLifecycleHooks(t *testing.T) {
	exec := &fakeExecutor{}

	var mu sync.Mutex
	var events []domain.EventType
	hooks := domain.LifecycleHooks{
		OnRunStart:   func(_ context.Context, e *domain.RunEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
		OnRunFinish:  func(_ context.Context, e *domain.RunEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
		OnJobStart:   func(_ context.Context, e *domain.JobEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
		OnJobFinish:  func(_ context.Context, e *domain.JobEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
		OnStepStart:  func(_ context.Context, e *domain.StepEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) { mu.Lock(); events = append(events, e.Type); mu.Unlock() },
	}
	s := scheduler.New(exec, scheduler.WithLifecycleHooks(hooks))

	rc := scheduler.NewRunContext("run-7", pushToMain(), t.TempDir())
	s.Execute(context.Background(), testWorkflow(), rc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.EventRunStart, events[0])
	assert.Equal(t, domain.EventRunFinish, events[len(events)-1])
	assert.Contains(t, events, domain.EventJobStart)
	assert.Contains(t, events, domain.EventStepFinish)
}
