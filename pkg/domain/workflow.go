package domain

// Workflow is a declarative pipeline definition: a trigger rule plus a set
// of jobs forming a DAG through their Needs edges.
type Workflow struct {
	Name string      `json:"name" yaml:"name"`
	On   TriggerRule `json:"on" yaml:"on"`
	Jobs []Job       `json:"jobs" yaml:"jobs"`
}

// Job is a unit of scheduling. Jobs without dependency edges between them
// may run concurrently; steps within a job always run in order.
type Job struct {
	ID string `json:"id" yaml:"id"`

	// Needs lists job IDs that must pass before this job starts.
	// A failed or skipped dependency marks this job skipped.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`

	// Only restricts the job to triggers matching the rule. A non-matching
	// trigger skips the job without failing the run. This is how the
	// changelog publisher is limited to direct pushes on the main branch.
	Only *TriggerRule `json:"only,omitempty" yaml:"only,omitempty"`

	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is either a plain command (Run) or a builtin (Uses) with its
// decoded-on-demand With parameters. Exactly one of Run/Uses is set;
// the config loader enforces this.
type Step struct {
	Name string         `json:"name,omitempty" yaml:"name,omitempty"`
	Run  string         `json:"run,omitempty" yaml:"run,omitempty"`
	Uses string         `json:"uses,omitempty" yaml:"uses,omitempty"`
	With map[string]any `json:"with,omitempty" yaml:"with,omitempty"`
}

// Label returns a human-readable identifier for logs and results.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Uses != "" {
		return s.Uses
	}
	return s.Run
}

// FindJob returns the job with the given ID, or nil.
func (w *Workflow) FindJob(id string) *Job {
	for i := range w.Jobs {
		if w.Jobs[i].ID == id {
			return &w.Jobs[i]
		}
	}
	return nil
}
