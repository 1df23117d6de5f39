package export

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

// newTable returns a writer with the house table style.
func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	return tbl
}

// IssuesTable renders an issue listing with relative ages.
func IssuesTable(issues []*jira.Issue, now time.Time) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Key", "Type", "Status", "Created", "Summary"})

	for _, issue := range issues {
		created := issue.Fields.Created
		if t, err := issue.CreatedTime(); err == nil {
			created = humanize.RelTime(t, now, "ago", "from now")
		}

		tbl.AppendRow(table.Row{
			issue.Key,
			namedField(issue.Fields.IssueType),
			issue.StatusName(),
			created,
			issue.Fields.Summary,
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d issues", len(issues))})

	return tbl.Render()
}

// CycleTimeTable renders per-issue cycle times. Completed issues are green,
// issues still in flight red.
func CycleTimeTable(rows []flow.CycleTime, unit string) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Key", "Start", "End", unit, "State"})

	completed := 0

	for _, row := range rows {
		state := color.RedString("in flight")
		end, days := "", ""

		if row.Completed {
			completed++
			state = color.GreenString("completed")
			end = row.End.Format(exportTimeLayout)
			days = formatDays(row.Days)
		}

		start := ""
		if !row.Start.IsZero() {
			start = row.Start.Format(exportTimeLayout)
		}

		tbl.AppendRow(table.Row{row.Key, start, end, days, state})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d issues, %d completed", len(rows), completed)})

	return tbl.Render()
}

// IssueTimesTable renders per-issue status timing with lifecycle dates and
// one column per group.
func IssueTimesTable(rows []IssueTimesRow, groups []string) string {
	tbl := newTable()

	header := table.Row{"Key", "Type", "First Date", "Implementation Date", "Closed Date"}
	for _, g := range groups {
		header = append(header, g)
	}

	header = append(header, "Resolution")
	tbl.AppendHeader(header)

	for _, row := range rows {
		record := table.Row{
			row.Key, row.Type,
			formatOptionalTime(row.FirstDate),
			formatOptionalTime(row.ImplementationDate),
			formatOptionalTime(row.ClosedDate),
		}
		for _, g := range groups {
			record = append(record, formatDays(row.Times[g]))
		}

		record = append(record, row.Resolution)
		tbl.AppendRow(record)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d issues", len(rows))})

	return tbl.Render()
}
