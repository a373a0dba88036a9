package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventJobStart   EventType = "job_start"
	EventJobFinish  EventType = "job_finish"
	EventStepStart  EventType = "step_start"
	EventStepFinish EventType = "step_finish"
)

// RunEvent describes run-level lifecycle transitions.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Workflow  string    `json:"workflow"`
	Status    RunStatus `json:"status,omitempty"`

	// Elapsed is the wall-clock run duration. Zero on run_start.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// JobEvent describes job-level lifecycle transitions.
type JobEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	JobID     string    `json:"job_id"`
	Status    RunStatus `json:"status,omitempty"`
}

// StepEvent describes step-level lifecycle transitions.
type StepEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	JobID     string    `json:"job_id"`
	StepName  string    `json:"step_name"`
	Status    RunStatus `json:"status,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// All fields are optional; nil hooks are skipped.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnJobStart   func(context.Context, *JobEvent)
	OnJobFinish  func(context.Context, *JobEvent)
	OnStepStart  func(context.Context, *StepEvent)
	OnStepFinish func(context.Context, *StepEvent)
}
