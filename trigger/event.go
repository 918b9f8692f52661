// Package trigger models the events that start a pipeline run and decides
// which pipeline shape (continuous build vs. tagged release) an event selects.
package trigger

import (
	"strings"

	"github.com/arobison203/autoortho/errors"
)

// EventKind identifies the external occurrence that started the run.
// Exactly one kind is active per pipeline run.
type EventKind string

const (
	// EventPush indicates a push to a branch.
	EventPush EventKind = "push-to-branch"

	// EventPullRequest indicates a pull request; the ref is the head branch,
	// not the target branch.
	EventPullRequest EventKind = "pull-request"

	// EventTag indicates a tag push. This is the only kind that authorizes
	// release publication.
	EventTag EventKind = "push-tag"
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Event is the triggering occurrence for a pipeline run.
type Event struct {
	// Kind is the event class.
	Kind EventKind

	// Ref is the branch name, pull-request head branch name, or tag name.
	Ref string
}

// Validate checks that the event is well formed: a known kind and a
// resolvable, non-empty ref. Artifact naming is never attempted with an
// empty ref.
func (e Event) Validate() error {
	switch e.Kind {
	case EventPush, EventPullRequest, EventTag:
	default:
		return errors.Newf(errors.CodeInvalidTrigger, "unknown event kind %q", string(e.Kind))
	}
	if strings.TrimSpace(e.Ref) == "" {
		return errors.Newf(errors.CodeInvalidTrigger, "event %s carries no resolvable ref", e.Kind)
	}
	return nil
}

// IsRelease reports whether the event authorizes release publication.
func (e Event) IsRelease() bool {
	return e.Kind == EventTag
}

// ParseKind converts a string into an EventKind.
func ParseKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case EventPush:
		return EventPush, nil
	case EventPullRequest:
		return EventPullRequest, nil
	case EventTag:
		return EventTag, nil
	default:
		return "", errors.Newf(errors.CodeInvalidTrigger, "unknown event kind %q", s)
	}
}
