package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arobison203/autoortho/errors"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		expectError bool
		wantPolicy  PublicationPolicy
	}{
		{
			name:       "branch push selects transient policy",
			event:      Event{Kind: EventPush, Ref: "main"},
			wantPolicy: PolicyTransient,
		},
		{
			name:       "pull request selects transient policy",
			event:      Event{Kind: EventPullRequest, Ref: "fix-42"},
			wantPolicy: PolicyTransient,
		},
		{
			name:       "tag push selects release policy",
			event:      Event{Kind: EventTag, Ref: "v1.2.0"},
			wantPolicy: PolicyTransientAndRelease,
		},
		{
			name:        "empty ref is rejected",
			event:       Event{Kind: EventPush, Ref: ""},
			expectError: true,
		},
		{
			name:        "whitespace ref is rejected",
			event:       Event{Kind: EventTag, Ref: "   "},
			expectError: true,
		},
		{
			name:        "unknown kind is rejected",
			event:       Event{Kind: "cron", Ref: "main"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Route(tt.event)
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, errors.CodeInvalidTrigger, errors.Code(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPolicy, plan.Policy)
			assert.Equal(t, []string{"linux", "windows"}, plan.Platforms)
			assert.Equal(t, tt.event, plan.Event)
		})
	}
}

func TestReleaseAuthorization(t *testing.T) {
	assert.False(t, Event{Kind: EventPush, Ref: "main"}.IsRelease())
	assert.False(t, Event{Kind: EventPullRequest, Ref: "fix-42"}.IsRelease())
	assert.True(t, Event{Kind: EventTag, Ref: "v1.2.0"}.IsRelease())
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("push-tag")
	require.NoError(t, err)
	assert.Equal(t, EventTag, kind)

	_, err = ParseKind("schedule")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTrigger, errors.Code(err))
}
