package domain

import "time"

// RunStatus describes the lifecycle state of a run, job or step.
type RunStatus string

const (
	StatusQueued   RunStatus = "queued"
	StatusRunning  RunStatus = "running"
	StatusPassed   RunStatus = "passed"
	StatusFailed   RunStatus = "failed"
	StatusSkipped  RunStatus = "skipped"
	StatusCanceled RunStatus = "canceled"
)

// Terminal reports whether the status can no longer change.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusCanceled:
		return true
	}
	return false
}

// StepResult captures the outcome of a single step.
type StepResult struct {
	Name    string        `json:"name"`
	Status  RunStatus     `json:"status"`
	Output  string        `json:"output,omitempty"`
	Err     string        `json:"error,omitempty"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
}

// JobResult captures the outcome of a job and its steps.
// A fail-fast abort leaves the untouched tail of Steps absent, not skipped:
// only attempted steps are recorded.
type JobResult struct {
	JobID  string       `json:"job_id"`
	Status RunStatus    `json:"status"`
	Steps  []StepResult `json:"steps,omitempty"`
}

// RunResult is the record of one pipeline instance. It is the only state
// that survives the instance, persisted through a ports.RunStore.
type RunResult struct {
	RunID    string      `json:"run_id"`
	Workflow string      `json:"workflow"`
	Trigger  Trigger     `json:"trigger"`
	Status   RunStatus   `json:"status"`
	Jobs     []JobResult `json:"jobs,omitempty"`

	// Outputs holds step-exported values handed between jobs, e.g.
	// "build.artifact" and "changelog.body".
	Outputs map[string]string `json:"outputs,omitempty"`

	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
}

// Job returns the result for a job ID, or nil.
func (r *RunResult) Job(id string) *JobResult {
	for i := range r.Jobs {
		if r.Jobs[i].JobID == id {
			return &r.Jobs[i]
		}
	}
	return nil
}
