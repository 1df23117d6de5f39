// Package export turns processed issue batches into flat rows and renders
// them as CSV files, terminal tables, and interactive HTML charts.
package export

import (
	"sort"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// TransitionRow is one status transition with statuses mapped to canonical
// groups. The synthetic creation event appears with an empty From.
type TransitionRow struct {
	Key  string
	At   time.Time
	From string
	To   string
}

// TransitionRows flattens every event in the batch, including events of
// issues whose timeline could not be reconstructed.
func TransitionRows(batch *flow.Batch, wf *workflow.Config) []TransitionRow {
	events := batch.Events()
	rows := make([]TransitionRow, 0, len(events))

	for _, ev := range events {
		from := ""
		if ev.From != "" {
			from = wf.GroupFor(ev.From)
		}

		rows = append(rows, TransitionRow{Key: ev.Key, At: ev.At, From: from, To: wf.GroupFor(ev.To)})
	}

	return rows
}

// IssueTimesRow is the per-issue timing record: issue metadata, lifecycle
// dates, and the time spent in each status group. The date fields are zero
// when the issue never reached the corresponding point.
type IssueTimesRow struct {
	Key        string
	Type       string
	Priority   string
	Components string
	Created    time.Time

	// FirstDate is the timestamp of the first real status transition.
	FirstDate time.Time

	// ImplementationDate is the first entry into the <Implementation>
	// marker group.
	ImplementationDate time.Time

	// ClosedDate is the last transition timestamp of a resolved issue.
	ClosedDate time.Time

	Times      flow.Timing
	Resolution string
}

// IssueTimesRows computes status timing for every reconstructed timeline,
// carrying issue metadata and lifecycle dates through for the export.
func IssueTimesRows(batch *flow.Batch, calc flow.Calculator) []IssueTimesRow {
	rows := make([]IssueTimesRow, 0, len(batch.Items))

	for _, item := range batch.Items {
		if item.Timeline == nil {
			continue
		}

		row := IssueTimesRow{
			Key:                item.Issue.Key,
			Type:               namedField(item.Issue.Fields.IssueType),
			Priority:           namedField(item.Issue.Fields.Priority),
			Components:         componentNames(item.Issue.Fields.Components),
			Created:            item.Timeline.Created,
			FirstDate:          firstTransitionAt(item.Events),
			ImplementationDate: groupEntryAt(item.Timeline, batch.Markers.Implementation),
			Times:              flow.StatusTiming(item.Timeline, calc),
			Resolution:         namedField(item.Issue.Fields.Resolution),
		}

		if row.Resolution != "" && len(item.Events) > 0 {
			row.ClosedDate = item.Events[len(item.Events)-1].At
		}

		rows = append(rows, row)
	}

	return rows
}

// firstTransitionAt returns the timestamp of the first non-synthetic event.
func firstTransitionAt(events []flow.TransitionEvent) time.Time {
	for _, ev := range events {
		if ev.From != "" {
			return ev.At
		}
	}

	return time.Time{}
}

// groupEntryAt returns the start of the first interval in the given group.
func groupEntryAt(tl *flow.Timeline, group string) time.Time {
	if group == "" {
		return time.Time{}
	}

	for _, iv := range tl.Intervals {
		if iv.Group == group {
			return iv.Start
		}
	}

	return time.Time{}
}

// TimingGroups returns the sorted union of status groups across the rows,
// which become the variable columns of the timing export.
func TimingGroups(rows []IssueTimesRow) []string {
	seen := make(map[string]struct{})

	for _, row := range rows {
		for g := range row.Times {
			seen[g] = struct{}{}
		}
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)

	return groups
}

// CycleTimeRows computes the cycle time of every reconstructed timeline
// using the batch's resolved markers.
func CycleTimeRows(batch *flow.Batch, calc flow.Calculator) []flow.CycleTime {
	timelines := batch.Timelines()
	rows := make([]flow.CycleTime, 0, len(timelines))

	for _, tl := range timelines {
		rows = append(rows, flow.ComputeCycleTime(tl, batch.Markers, calc))
	}

	return rows
}

func namedField(f *jira.NamedField) string {
	if f == nil {
		return ""
	}

	return f.Name
}

func componentNames(components []jira.NamedField) string {
	names := make([]string, 0, len(components))
	for _, c := range components {
		names = append(names, c.Name)
	}

	return strings.Join(names, ", ")
}
