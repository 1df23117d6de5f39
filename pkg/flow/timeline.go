package flow

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// Interval is a half-open span [Start, End) during which an issue occupied
// one canonical status group. A zero-duration interval records a status the
// issue passed through without dwelling in it.
type Interval struct {
	Key   string
	Group string
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Timeline is the reconstructed status history of one issue: a gapless,
// non-overlapping sequence of intervals tiling [Created, Horizon).
type Timeline struct {
	Key       string
	Created   time.Time
	Horizon   time.Time
	Intervals []Interval
}

// Reconstruct builds an issue timeline from its ordered transition events,
// mapping raw statuses to canonical groups via wf (nil maps every status to
// itself). The final interval is closed at horizon; when the last event is
// later than horizon, the last event's timestamp is used instead.
//
// Events sharing one timestamp are accepted only when they chain: each
// event's From must equal the previous event's To. A broken chain at a
// single instant is ambiguous and yields a TemporalConsistencyError.
func Reconstruct(events []TransitionEvent, wf *workflow.Config, horizon time.Time) (*Timeline, error) {
	if len(events) == 0 {
		return nil, &MalformedInputError{Field: "events", Reason: "no transition events"}
	}

	key := events[0].Key
	created := events[0].At

	if last := events[len(events)-1].At; last.After(horizon) {
		horizon = last
	}

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]

		if cur.At.Before(prev.At) {
			return nil, &TemporalConsistencyError{Key: key, At: cur.At, Reason: "events out of order"}
		}

		if cur.At.Equal(prev.At) && cur.From != prev.To {
			return nil, &TemporalConsistencyError{
				Key: key,
				At:  cur.At,
				Reason: fmt.Sprintf("conflicting same-instant transitions: %q -> %q after %q -> %q",
					cur.From, cur.To, prev.From, prev.To),
			}
		}
	}

	intervals := make([]Interval, 0, len(events))

	for i, ev := range events {
		end := horizon
		if i+1 < len(events) {
			end = events[i+1].At
		}

		intervals = append(intervals, Interval{
			Key:   key,
			Group: wf.GroupFor(ev.To),
			Start: ev.At,
			End:   end,
		})
	}

	return &Timeline{Key: key, Created: created, Horizon: horizon, Intervals: intervals}, nil
}

// GroupAt returns the status group the issue occupied at instant t.
// Instants before creation return ""; instants at or past the horizon return
// the group of the final interval. When several intervals touch t, the
// latest one wins, matching the half-open interval convention.
func (tl *Timeline) GroupAt(t time.Time) string {
	if t.Before(tl.Created) {
		return ""
	}

	last := tl.Intervals[len(tl.Intervals)-1]
	if !t.Before(tl.Horizon) {
		return last.Group
	}

	group := last.Group

	for i := len(tl.Intervals) - 1; i >= 0; i-- {
		iv := tl.Intervals[i]
		if !t.Before(iv.Start) {
			group = iv.Group

			break
		}
	}

	return group
}

// Groups returns the set of distinct groups the timeline visits, in order of
// first appearance.
func (tl *Timeline) Groups() []string {
	seen := make(map[string]struct{}, len(tl.Intervals))

	var groups []string

	for _, iv := range tl.Intervals {
		if _, ok := seen[iv.Group]; ok {
			continue
		}

		seen[iv.Group] = struct{}{}
		groups = append(groups, iv.Group)
	}

	return groups
}
