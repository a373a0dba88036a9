// Package trigger implements the declarative trigger predicate: a pure
// function from (rule, trigger) to bool, with no side effects, so the
// event/branch/tag conditions of every workflow and job are unit-testable
// without invoking any real tool.
package trigger

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/gantry/pkg/domain"
)

// SkipMarker is the commit-message marker that suppresses pipeline dispatch.
// The changelog publisher stamps it on its auto-commit, which is what breaks
// the push-back feedback loop.
const SkipMarker = "[skip ci]"

// Matches reports whether the trigger satisfies the rule.
// Semantics:
//   - the event kind must be listed in rule.Events;
//   - push/pull_request triggers match rule.Branches globs;
//   - tag_push triggers match rule.Tags globs;
//   - an empty glob list accepts any ref of the matching kind.
func Matches(rule domain.TriggerRule, t domain.Trigger) bool {
	if !eventListed(rule.Events, t.Event) {
		return false
	}

	switch t.Event {
	case domain.EventTagPush:
		return refMatches(rule.Tags, t.Ref)
	case domain.EventPush, domain.EventPullRequest:
		return refMatches(rule.Branches, t.Ref)
	}
	return false
}

// SkipRequested reports whether the head commit opted out of CI.
func SkipRequested(t domain.Trigger) bool {
	return strings.Contains(t.Message, SkipMarker)
}

func eventListed(events []domain.EventKind, e domain.EventKind) bool {
	for _, candidate := range events {
		if candidate == e {
			return true
		}
	}
	return false
}

func refMatches(globs []string, ref string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		// Invalid patterns are treated as non-matching rather than fatal;
		// the config validator reports them at load time.
		if ok, err := doublestar.Match(g, ref); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidatePatterns checks every glob in the rule and returns the first bad
// pattern, if any. Used by the config loader.
func ValidatePatterns(rule domain.TriggerRule) (string, bool) {
	for _, g := range append(append([]string{}, rule.Branches...), rule.Tags...) {
		if !doublestar.ValidatePattern(g) {
			return g, false
		}
	}
	return "", true
}
