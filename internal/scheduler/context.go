package scheduler

import (
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
)

// RunContext is the per-instance state shared between jobs of one run.
// Outputs is the artifact/changelog handoff: steps export values under
// namespaced keys ("build.artifact", "changelog.body") and later jobs
// consume them. Guarded by a mutex because parallel jobs write concurrently.
type RunContext struct {
	RunID   string
	Trigger domain.Trigger

	// Workdir is the checked-out source tree all steps operate on.
	Workdir string

	mu      sync.Mutex
	outputs map[string]string
}

// NewRunContext creates a run context for a trigger.
func NewRunContext(runID string, trig domain.Trigger, workdir string) *RunContext {
	return &RunContext{
		RunID:   runID,
		Trigger: trig,
		Workdir: workdir,
		outputs: make(map[string]string),
	}
}

// SetOutput exports a value for downstream jobs.
func (rc *RunContext) SetOutput(key, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.outputs[key] = value
}

// Output reads an exported value.
func (rc *RunContext) Output(key string) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.outputs[key]
	return v, ok
}

// Outputs returns a copy of all exported values.
func (rc *RunContext) Outputs() map[string]string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make(map[string]string, len(rc.outputs))
	for k, v := range rc.outputs {
		out[k] = v
	}
	return out
}
