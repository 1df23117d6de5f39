// Package flow reconstructs per-issue status timelines from raw changelog
// data and derives cycle-time, status-timing, transition, and
// cumulative-flow analytics.
package flow

import (
	"fmt"
	"time"
)

// MalformedInputError reports an issue record that cannot be processed:
// a missing required field or an unparsable changelog. It always names the
// issue and the precise reason, never a generic failure.
type MalformedInputError struct {
	Key    string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("issue %s: malformed input: field %q: %s", e.Key, e.Field, e.Reason)
}

// TemporalConsistencyError reports events that remain ambiguous after
// sort-repair: same-instant transitions whose from/to chain does not link.
// The issue is excluded from timeline-derived outputs but still appears in
// the raw transition export.
type TemporalConsistencyError struct {
	Key    string
	At     time.Time
	Reason string
}

// Error implements the error interface.
func (e *TemporalConsistencyError) Error() string {
	return fmt.Sprintf("issue %s: inconsistent timeline at %s: %s", e.Key, e.At.Format(time.RFC3339), e.Reason)
}
