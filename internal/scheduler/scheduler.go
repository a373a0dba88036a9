// Package scheduler executes a workflow's jobs as an explicit DAG with
// topological, wave-parallel execution and strict fail-fast inside each job.
package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/gantry/internal/trigger"
	"github.com/aretw0/gantry/pkg/domain"
)

// StepExecutor runs a single step inside a run context and returns its
// combined output. Implemented by the steps registry; faked in tests.
type StepExecutor interface {
	Execute(ctx context.Context, step domain.Step, rc *RunContext) (string, error)
}

// Scheduler runs workflows. It owns no external resources itself; all side
// effects happen through the StepExecutor.
type Scheduler struct {
	exec   StepExecutor
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	// Parallelism caps concurrent jobs within a wave. Zero means unlimited.
	Parallelism int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) { s.hooks = hooks }
}

// WithParallelism limits concurrent jobs per wave.
func WithParallelism(n int) Option {
	return func(s *Scheduler) { s.Parallelism = n }
}

// New creates a Scheduler around a step executor.
func New(exec StepExecutor, opts ...Option) *Scheduler {
	s := &Scheduler{exec: exec}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Execute runs one pipeline instance for the workflow and trigger.
//
// Semantics:
//   - waves run in topological order; jobs within a wave run concurrently;
//   - a job whose `only` rule does not match the trigger is skipped without
//     failing the run;
//   - a job with a failed, skipped or canceled dependency is skipped;
//   - steps within a job are sequential and fail-fast;
//   - context cancellation marks unstarted jobs canceled.
//
// The returned RunResult is always non-nil.
func (s *Scheduler) Execute(ctx context.Context, wf *domain.Workflow, rc *RunContext) *domain.RunResult {
	started := time.Now()
	result := &domain.RunResult{
		RunID:    rc.RunID,
		Workflow: wf.Name,
		Trigger:  rc.Trigger,
		Status:   domain.StatusRunning,
		Started:  started,
	}

	s.fireRunEvent(ctx, domain.EventRunStart, result)

	dag, err := BuildDAG(wf.Jobs)
	if err != nil {
		s.logger.ErrorContext(ctx, "invalid workflow", "workflow", wf.Name, "err", err)
		result.Status = domain.StatusFailed
		result.Elapsed = time.Since(started)
		s.fireRunEvent(ctx, domain.EventRunFinish, result)
		return result
	}

	statuses := make(map[string]domain.RunStatus, len(wf.Jobs))
	var mu sync.Mutex // guards statuses and result.Jobs across wave goroutines

	for _, wave := range dag.Waves() {
		g := &errgroup.Group{}
		if s.Parallelism > 0 {
			g.SetLimit(s.Parallelism)
		}

		for _, jobID := range wave {
			job := dag.Job(jobID)

			if ctx.Err() != nil {
				mu.Lock()
				statuses[jobID] = domain.StatusCanceled
				result.Jobs = append(result.Jobs, domain.JobResult{JobID: jobID, Status: domain.StatusCanceled})
				mu.Unlock()
				continue
			}

			mu.Lock()
			skip, why := s.shouldSkip(job, rc.Trigger, statuses)
			if skip {
				statuses[jobID] = domain.StatusSkipped
				result.Jobs = append(result.Jobs, domain.JobResult{JobID: jobID, Status: domain.StatusSkipped})
				mu.Unlock()
				s.logger.InfoContext(ctx, "job skipped", "run_id", rc.RunID, "job", jobID, "reason", why)
				continue
			}
			mu.Unlock()

			g.Go(func() error {
				jobResult := s.runJob(ctx, job, rc)
				mu.Lock()
				statuses[jobID] = jobResult.Status
				result.Jobs = append(result.Jobs, jobResult)
				mu.Unlock()
				return nil
			})
		}

		// Wait for the whole wave. Sibling jobs are not canceled on failure:
		// parallel branches (build and release-mode changelog) run to
		// completion, only dependents get skipped.
		_ = g.Wait()
	}

	result.Outputs = rc.Outputs()
	result.Status = overallStatus(statuses, ctx.Err() != nil)
	result.Elapsed = time.Since(started)
	s.fireRunEvent(ctx, domain.EventRunFinish, result)
	return result
}

// shouldSkip decides job skipping, with a short reason for the log.
func (s *Scheduler) shouldSkip(job *domain.Job, trig domain.Trigger, statuses map[string]domain.RunStatus) (bool, string) {
	for _, need := range job.Needs {
		if statuses[need] != domain.StatusPassed {
			return true, "dependency " + need + " did not pass"
		}
	}
	if job.Only != nil && !trigger.Matches(*job.Only, trig) {
		return true, "trigger rule not matched"
	}
	return false, ""
}

func (s *Scheduler) runJob(ctx context.Context, job *domain.Job, rc *RunContext) domain.JobResult {
	jobResult := domain.JobResult{JobID: job.ID, Status: domain.StatusRunning}
	s.fireJobEvent(ctx, domain.EventJobStart, rc.RunID, &jobResult)
	s.logger.InfoContext(ctx, "job started", "run_id", rc.RunID, "job", job.ID)

	jobResult.Status = domain.StatusPassed
	for _, step := range job.Steps {
		stepResult := s.runStep(ctx, job.ID, step, rc)
		jobResult.Steps = append(jobResult.Steps, stepResult)
		if stepResult.Status != domain.StatusPassed {
			// Fail-fast: remaining steps are not attempted.
			jobResult.Status = stepResult.Status
			break
		}
	}

	s.fireJobEvent(ctx, domain.EventJobFinish, rc.RunID, &jobResult)
	s.logger.InfoContext(ctx, "job finished", "run_id", rc.RunID, "job", job.ID, "status", jobResult.Status)
	return jobResult
}

func (s *Scheduler) runStep(ctx context.Context, jobID string, step domain.Step, rc *RunContext) domain.StepResult {
	stepResult := domain.StepResult{
		Name:    step.Label(),
		Status:  domain.StatusRunning,
		Started: time.Now(),
	}
	s.fireStepEvent(ctx, domain.EventStepStart, rc.RunID, jobID, &stepResult)

	output, err := s.exec.Execute(ctx, step, rc)
	stepResult.Output = output
	stepResult.Elapsed = time.Since(stepResult.Started)

	switch {
	case ctx.Err() != nil:
		stepResult.Status = domain.StatusCanceled
		if err != nil {
			stepResult.Err = err.Error()
		}
	case err != nil:
		stepResult.Status = domain.StatusFailed
		stepResult.Err = err.Error()
		s.logger.ErrorContext(ctx, "step failed", "run_id", rc.RunID, "job", jobID, "step", stepResult.Name, "err", err)
	default:
		stepResult.Status = domain.StatusPassed
	}

	s.fireStepEvent(ctx, domain.EventStepFinish, rc.RunID, jobID, &stepResult)
	return stepResult
}

func overallStatus(statuses map[string]domain.RunStatus, canceled bool) domain.RunStatus {
	if canceled {
		return domain.StatusCanceled
	}
	for _, st := range statuses {
		if st == domain.StatusFailed {
			return domain.StatusFailed
		}
	}
	return domain.StatusPassed
}

func (s *Scheduler) fireRunEvent(ctx context.Context, typ domain.EventType, r *domain.RunResult) {
	ev := &domain.RunEvent{Timestamp: time.Now(), Type: typ, RunID: r.RunID, Workflow: r.Workflow, Status: r.Status, Elapsed: r.Elapsed}
	switch typ {
	case domain.EventRunStart:
		if s.hooks.OnRunStart != nil {
			s.hooks.OnRunStart(ctx, ev)
		}
	case domain.EventRunFinish:
		if s.hooks.OnRunFinish != nil {
			s.hooks.OnRunFinish(ctx, ev)
		}
	}
}

func (s *Scheduler) fireJobEvent(ctx context.Context, typ domain.EventType, runID string, j *domain.JobResult) {
	ev := &domain.JobEvent{Timestamp: time.Now(), Type: typ, RunID: runID, JobID: j.JobID, Status: j.Status}
	switch typ {
	case domain.EventJobStart:
		if s.hooks.OnJobStart != nil {
			s.hooks.OnJobStart(ctx, ev)
		}
	case domain.EventJobFinish:
		if s.hooks.OnJobFinish != nil {
			s.hooks.OnJobFinish(ctx, ev)
		}
	}
}

func (s *Scheduler) fireStepEvent(ctx context.Context, typ domain.EventType, runID, jobID string, st *domain.StepResult) {
	ev := &domain.StepEvent{
		Timestamp: time.Now(),
		Type:      typ,
		RunID:     runID,
		JobID:     jobID,
		StepName:  st.Name,
		Status:    st.Status,
		IsError:   st.Status == domain.StatusFailed,
	}
	switch typ {
	case domain.EventStepStart:
		if s.hooks.OnStepStart != nil {
			s.hooks.OnStepStart(ctx, ev)
		}
	case domain.EventStepFinish:
		if s.hooks.OnStepFinish != nil {
			s.hooks.OnStepFinish(ctx, ev)
		}
	}
}
