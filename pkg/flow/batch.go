package flow

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// IssueError pairs a skipped issue with the reason it was skipped.
type IssueError struct {
	Key string
	Err error
}

// Item is one processed issue: its raw record, extracted events, and the
// reconstructed timeline. Timeline is nil for issues whose events could not
// be reconciled; their events still feed the transition export.
type Item struct {
	Issue    *jira.Issue
	Events   []TransitionEvent
	Timeline *Timeline
}

// Batch is the shared-horizon result of processing a set of issues.
type Batch struct {
	Items   []Item
	Horizon time.Time
	Markers workflow.Markers
	Errors  []IssueError
}

// Options tunes batch construction.
type Options struct {
	// Horizon closes every open timeline. Zero means the latest event
	// timestamp observed anywhere in the batch, which keeps offline runs
	// deterministic; live runs pass the current time.
	Horizon time.Time

	// Strict aborts on the first bad issue instead of skipping it.
	Strict bool
}

// BuildBatch extracts events and reconstructs a timeline for every issue,
// sharing one observation horizon across the batch so cumulative-flow
// samples line up. Cycle-time markers not declared by the workflow are
// resolved from the batch itself: the first working group defaults to the
// group of the earliest transition observed, and the last group to a
// recognized terminal name among the groups seen.
func BuildBatch(issues []*jira.Issue, wf *workflow.Config, opts Options) (*Batch, error) {
	batch := &Batch{Items: make([]Item, 0, len(issues))}

	skip := func(key string, err error) error {
		if opts.Strict {
			return fmt.Errorf("strict mode: %w", err)
		}

		batch.Errors = append(batch.Errors, IssueError{Key: key, Err: err})

		return nil
	}

	for _, issue := range issues {
		events, err := ExtractEvents(issue)
		if err != nil {
			if err = skip(issue.Key, err); err != nil {
				return nil, err
			}

			continue
		}

		batch.Items = append(batch.Items, Item{Issue: issue, Events: events})
	}

	batch.Horizon = opts.Horizon
	if batch.Horizon.IsZero() {
		batch.Horizon = latestEvent(batch.Items)
	}

	batch.Markers = wf.ResolveMarkers(earliestTransitionGroup(batch.Items, wf), observedGroups(batch.Items, wf))

	for i := range batch.Items {
		item := &batch.Items[i]

		tl, err := Reconstruct(item.Events, wf, batch.Horizon)
		if err != nil {
			if err = skip(item.Issue.Key, err); err != nil {
				return nil, err
			}

			continue
		}

		item.Timeline = tl
	}

	return batch, nil
}

// Timelines returns the successfully reconstructed timelines.
func (b *Batch) Timelines() []*Timeline {
	timelines := make([]*Timeline, 0, len(b.Items))

	for _, item := range b.Items {
		if item.Timeline != nil {
			timelines = append(timelines, item.Timeline)
		}
	}

	return timelines
}

// Events returns all transition events in the batch, issue order preserved.
func (b *Batch) Events() []TransitionEvent {
	var events []TransitionEvent

	for _, item := range b.Items {
		events = append(events, item.Events...)
	}

	return events
}

// latestEvent returns the latest event timestamp across the batch.
func latestEvent(items []Item) time.Time {
	var latest time.Time

	for _, item := range items {
		for _, ev := range item.Events {
			if ev.At.After(latest) {
				latest = ev.At
			}
		}
	}

	return latest
}

// earliestTransitionGroup returns the group first occupied anywhere in the
// batch: the initial group of the earliest-created issue.
func earliestTransitionGroup(items []Item, wf *workflow.Config) string {
	var (
		at    time.Time
		group string
	)

	for _, item := range items {
		if len(item.Events) == 0 {
			continue
		}

		first := item.Events[0]
		if group == "" || first.At.Before(at) {
			at = first.At
			group = wf.GroupFor(first.To)
		}
	}

	return group
}

// observedGroups returns every group entered by any event in the batch.
func observedGroups(items []Item, wf *workflow.Config) []string {
	seen := make(map[string]struct{})

	var groups []string

	for _, item := range items {
		for _, ev := range item.Events {
			g := wf.GroupFor(ev.To)
			if _, ok := seen[g]; ok {
				continue
			}

			seen[g] = struct{}{}
			groups = append(groups, g)
		}
	}

	return groups
}
