package flow

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

// TransitionEvent is one status transition of one issue. The synthetic
// creation event carries an empty From and the issue's initial status as To.
type TransitionEvent struct {
	Key  string
	At   time.Time
	From string
	To   string
}

// ExtractEvents derives the ordered transition events of an issue from its
// changelog. The first event is always the synthetic creation event at the
// issue's creation timestamp; its To status is the FromString of the
// earliest status change, or the current status when no changelog exists.
// Events are sorted by timestamp with the original changelog order preserved
// among equal timestamps.
func ExtractEvents(issue *jira.Issue) ([]TransitionEvent, error) {
	created, err := issue.CreatedTime()
	if err != nil {
		return nil, &MalformedInputError{Key: issue.Key, Field: "created", Reason: err.Error()}
	}

	changes, err := statusChanges(issue)
	if err != nil {
		return nil, err
	}

	initial := issue.StatusName()
	if len(changes) > 0 {
		initial = changes[0].From
	}

	if initial == "" {
		return nil, &MalformedInputError{Key: issue.Key, Field: "status", Reason: "no current status and no changelog to infer the initial status from"}
	}

	events := make([]TransitionEvent, 0, len(changes)+1)
	events = append(events, TransitionEvent{Key: issue.Key, At: created, To: initial})

	for _, ch := range changes {
		// Changelog entries that predate creation are clamped to the
		// creation instant so every timeline starts at creation.
		at := ch.At
		if at.Before(created) {
			at = created
		}

		events = append(events, TransitionEvent{Key: issue.Key, At: at, From: ch.From, To: ch.To})
	}

	return events, nil
}

// statusChanges collects the status-change items of an issue's changelog in
// timestamp order.
func statusChanges(issue *jira.Issue) ([]TransitionEvent, error) {
	var changes []TransitionEvent

	for _, h := range issue.Histories() {
		hasStatus := false

		for _, it := range h.Items {
			if it.IsStatusChange() {
				hasStatus = true

				break
			}
		}

		if !hasStatus {
			continue
		}

		at, err := jira.ParseTime(h.Created)
		if err != nil {
			return nil, &MalformedInputError{Key: issue.Key, Field: "changelog", Reason: err.Error()}
		}

		for _, it := range h.Items {
			if it.IsStatusChange() {
				changes = append(changes, TransitionEvent{Key: issue.Key, At: at, From: it.FromString, To: it.ToString})
			}
		}
	}

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].At.Before(changes[j].At) })

	return changes, nil
}
