package gantry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/aretw0/gantry/internal/adapters/process"
	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/internal/steps"
	"github.com/aretw0/gantry/internal/trigger"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Orchestrator is the high-level entry point for the gantry library.
// It loads the workflow definitions once and dispatches triggers against them.
type Orchestrator struct {
	workflows []domain.Workflow
	executor  scheduler.StepExecutor
	scheduler *scheduler.Scheduler

	runner  ports.CommandRunner
	cache   ports.CacheStore
	forge   ports.Forge
	store   ports.RunStore
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	workdir string
	workers int
}

// Option defines a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithLifecycleHooks registers observability hooks fired around runs,
// jobs and steps.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = hooks }
}

// WithCommandRunner injects the process runner used by run-steps and
// builtins. Defaults to an unrestricted local runner.
func WithCommandRunner(r ports.CommandRunner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithCacheStore enables the cache builtin. Without it cache steps
// degrade to no-ops.
func WithCacheStore(store ports.CacheStore) Option {
	return func(o *Orchestrator) { o.cache = store }
}

// WithForge enables release publishing and commit status reporting.
func WithForge(f ports.Forge) Option {
	return func(o *Orchestrator) { o.forge = f }
}

// WithRunStore persists finished run results.
func WithRunStore(store ports.RunStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithWorkdir sets the checked-out source tree steps operate on.
// Defaults to the current directory.
func WithWorkdir(dir string) Option {
	return func(o *Orchestrator) { o.workdir = dir }
}

// WithParallelism caps concurrent jobs within a wave. Zero means unbounded.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// New loads all workflows from configDir and builds an Orchestrator
// around them. configDir defaults to .gantry/workflows when empty.
func New(configDir string, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.runner == nil {
		o.runner = process.NewRunner(process.WithLogger(o.logger))
	}
	if o.workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workdir: %w", err)
		}
		o.workdir = wd
	}

	registry := steps.NewRegistry(o.runner,
		steps.WithLogger(o.logger),
		steps.WithCacheStore(o.cache),
		steps.WithForge(o.forge),
	)
	o.executor = registry

	if configDir == "" {
		configDir = config.DefaultDir
	}
	loader := &config.Loader{Builtins: registry.Builtins(), ExpandEnv: true}
	workflows, err := loader.LoadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("load workflows: %w", err)
	}
	o.workflows = workflows

	o.scheduler = scheduler.New(o.executor,
		scheduler.WithLogger(o.logger),
		scheduler.WithLifecycleHooks(o.hooks),
		scheduler.WithParallelism(o.workers),
	)

	return o, nil
}

// Workflows returns the loaded workflow definitions.
func (o *Orchestrator) Workflows() []domain.Workflow {
	return o.workflows
}

// Dispatch matches the trigger against every loaded workflow and executes
// the matching ones sequentially, returning one result per run.
//
// Triggers whose commit message carries the skip marker are refused with
// ErrSkipRequested; this is the loop guard for the changelog commit the
// pipeline itself pushes.
func (o *Orchestrator) Dispatch(ctx context.Context, trig domain.Trigger) ([]*domain.RunResult, error) {
	if trigger.SkipRequested(trig) {
		o.logger.InfoContext(ctx, "trigger skipped", "ref", trig.Ref, "reason", "skip marker in commit message")
		return nil, domain.ErrSkipRequested
	}

	var results []*domain.RunResult
	for i := range o.workflows {
		wf := &o.workflows[i]
		if !trigger.Matches(wf.On, trig) {
			continue
		}
		result, err := o.run(ctx, wf, trig)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) run(ctx context.Context, wf *domain.Workflow, trig domain.Trigger) (*domain.RunResult, error) {
	runID := uuid.NewString()
	rc := scheduler.NewRunContext(runID, trig, o.workdir)

	o.logger.InfoContext(ctx, "run starting",
		"run_id", runID, "workflow", wf.Name, "event", trig.Event, "ref", trig.Ref)

	o.reportStatus(ctx, trig, ports.CommitPending, fmt.Sprintf("%s running", wf.Name))

	result := o.scheduler.Execute(ctx, wf, rc)

	state := ports.CommitSuccess
	if result.Status != domain.StatusPassed {
		state = ports.CommitFailure
	}
	o.reportStatus(ctx, trig, state, fmt.Sprintf("%s %s", wf.Name, result.Status))

	if o.store != nil {
		if err := o.store.Save(ctx, result); err != nil {
			// Persistence is advisory; the run outcome stands either way.
			o.logger.ErrorContext(ctx, "persist run", "run_id", runID, "err", err)
		}
	}

	o.logger.InfoContext(ctx, "run finished",
		"run_id", runID, "workflow", wf.Name, "status", result.Status, "elapsed", result.Elapsed)
	return result, nil
}

func (o *Orchestrator) reportStatus(ctx context.Context, trig domain.Trigger, state ports.CommitState, desc string) {
	if o.forge == nil || trig.SHA == "" {
		return
	}
	if err := o.forge.ReportStatus(ctx, trig.SHA, state, desc); err != nil {
		o.logger.WarnContext(ctx, "report commit status", "sha", trig.SHA, "err", err)
	}
}
