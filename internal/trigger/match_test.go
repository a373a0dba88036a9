package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/gantry/internal/trigger"
	"github.com/aretw0/gantry/pkg/domain"
)

func TestMatches(t *testing.T) {
	testRule := domain.TriggerRule{
		Events:   []domain.EventKind{domain.EventPush, domain.EventPullRequest},
		Branches: []string{"main"},
	}
	releaseRule := domain.TriggerRule{
		Events: []domain.EventKind{domain.EventTagPush},
		Tags:   []string{"v*"},
	}

	cases := []struct {
		name string
		rule domain.TriggerRule
		trig domain.Trigger
		want bool
	}{
		{"push to main", testRule, domain.Trigger{Event: domain.EventPush, Ref: "main"}, true},
		{"pull request to main", testRule, domain.Trigger{Event: domain.EventPullRequest, Ref: "main"}, true},
		{"push to feature branch", testRule, domain.Trigger{Event: domain.EventPush, Ref: "feature/x"}, false},
		{"tag does not match test rule", testRule, domain.Trigger{Event: domain.EventTagPush, Ref: "v1.0.0"}, false},
		{"version tag", releaseRule, domain.Trigger{Event: domain.EventTagPush, Ref: "v1.2.0"}, true},
		{"non-version tag", releaseRule, domain.Trigger{Event: domain.EventTagPush, Ref: "nightly"}, false},
		{"push does not match release rule", releaseRule, domain.Trigger{Event: domain.EventPush, Ref: "main"}, false},
		{"unknown event", testRule, domain.Trigger{Event: "deployment", Ref: "main"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, trigger.Matches(tc.rule, tc.trig))
		})
	}
}

func TestMatchesEmptyGlobListAcceptsAnyRef(t *testing.T) {
	rule := domain.TriggerRule{Events: []domain.EventKind{domain.EventPush}}

	assert.True(t, trigger.Matches(rule, domain.Trigger{Event: domain.EventPush, Ref: "main"}))
	assert.True(t, trigger.Matches(rule, domain.Trigger{Event: domain.EventPush, Ref: "anything/else"}))
}

func TestSkipRequested(t *testing.T) {
	assert.True(t, trigger.SkipRequested(domain.Trigger{
		Message: "chore(changelog): regenerate CHANGELOG.md [skip ci]",
	}))
	assert.False(t, trigger.SkipRequested(domain.Trigger{
		Message: "feat: add user creation endpoint",
	}))
	assert.False(t, trigger.SkipRequested(domain.Trigger{}))
}

func TestValidatePatterns(t *testing.T) {
	bad, ok := trigger.ValidatePatterns(domain.TriggerRule{Branches: []string{"release/["}})
	assert.False(t, ok)
	assert.Equal(t, "release/[", bad)

	_, ok = trigger.ValidatePatterns(domain.TriggerRule{Branches: []string{"main"}, Tags: []string{"v*"}})
	assert.True(t, ok)
}
