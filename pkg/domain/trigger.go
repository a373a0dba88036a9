package domain

import "strings"

// EventKind classifies the hosting-system event that starts a pipeline run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
	EventTagPush     EventKind = "tag_push"
)

// Trigger is the immutable description of the event that spawned a run.
// It is created by the hosting system (webhook payload or CLI flags) and
// never mutated by the orchestrator.
type Trigger struct {
	Event EventKind `json:"event" yaml:"event"`

	// Ref is the branch or tag name, short form ("main", "v1.2.0").
	// Full refs ("refs/heads/main", "refs/tags/v1.2.0") are normalized
	// at the ingress boundary before a Trigger is constructed.
	Ref string `json:"ref" yaml:"ref"`

	// SHA is the head commit of the push, pull request or tag.
	SHA string `json:"sha" yaml:"sha"`

	// Message is the head commit message. Carried on the trigger so the
	// skip-marker guard stays a pure predicate over this value.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Branch returns the ref when the trigger targets a branch, or "".
func (t Trigger) Branch() string {
	if t.Event == EventPush || t.Event == EventPullRequest {
		return t.Ref
	}
	return ""
}

// Tag returns the ref when the trigger is a tag push, or "".
func (t Trigger) Tag() string {
	if t.Event == EventTagPush {
		return t.Ref
	}
	return ""
}

// ShortRef strips the refs/heads/ or refs/tags/ prefix from a full git ref.
// Ingress boundaries (webhook decoding, CLI flags) call this so the rest of
// the system only ever sees short refs.
func ShortRef(ref string) string {
	ref = strings.TrimPrefix(ref, "refs/heads/")
	ref = strings.TrimPrefix(ref, "refs/tags/")
	return ref
}

// TriggerRule is the declarative trigger condition of a workflow or job.
// An empty Branches/Tags list means "any ref of the matching kind".
type TriggerRule struct {
	Events   []EventKind `json:"events" yaml:"events" mapstructure:"events"`
	Branches []string    `json:"branches,omitempty" yaml:"branches,omitempty" mapstructure:"branches"`
	Tags     []string    `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
}
