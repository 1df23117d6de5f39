package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
)

// exportTimeLayout is the timestamp format of the CSV exports, chosen for
// spreadsheet compatibility.
const exportTimeLayout = "02.01.2006 15:04:05"

// exportDateLayout is the date format of the cumulative-flow export.
const exportDateLayout = "02.01.2006"

// transitionsDelimiter separates transition export fields; keys and status
// names routinely contain commas.
const transitionsDelimiter = ';'

// daysPrecision is the number of decimals duration figures are written with.
const daysPrecision = 2

// WriteTransitionsCSV writes the transition log, one row per event.
func WriteTransitionsCSV(w io.Writer, rows []TransitionRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = transitionsDelimiter

	if err := cw.Write([]string{"Key", "Date", "From", "To"}); err != nil {
		return fmt.Errorf("write transitions header: %w", err)
	}

	for _, row := range rows {
		record := []string{row.Key, row.At.Format(exportTimeLayout), row.From, row.To}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write transition row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteIssueTimesCSV writes per-issue status timing: fixed metadata columns,
// lifecycle dates, one column per status group, and the resolution last.
func WriteIssueTimesCSV(w io.Writer, rows []IssueTimesRow, groups []string) error {
	cw := csv.NewWriter(w)

	header := []string{"Key", "Type", "Priority", "Components", "Created", "First Date", "Implementation Date", "Closed Date"}
	header = append(header, groups...)
	header = append(header, "Resolution")

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write issue times header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Key, row.Type, row.Priority, row.Components,
			row.Created.Format(exportTimeLayout),
			formatOptionalTime(row.FirstDate),
			formatOptionalTime(row.ImplementationDate),
			formatOptionalTime(row.ClosedDate),
		}

		for _, g := range groups {
			record = append(record, formatDays(row.Times[g]))
		}

		record = append(record, row.Resolution)

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write issue times row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteCycleTimesCSV writes one row per issue with its cycle-time span. The
// duration column is headed by the calculator's unit; incomplete issues
// carry empty End and duration columns.
func WriteCycleTimesCSV(w io.Writer, rows []flow.CycleTime, unit string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Key", "Start", "End", unit, "Completed"}); err != nil {
		return fmt.Errorf("write cycle times header: %w", err)
	}

	for _, row := range rows {
		record := []string{row.Key, "", "", "", strconv.FormatBool(row.Completed)}

		if !row.Start.IsZero() {
			record[1] = row.Start.Format(exportTimeLayout)
		}

		if row.Completed {
			record[2] = row.End.Format(exportTimeLayout)
			record[3] = formatDays(row.Days)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write cycle time row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteCFDCSV writes the cumulative-flow series: one row per date, one
// column per status group.
func WriteCFDCSV(w io.Writer, points []flow.Point, groups []string) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Date"}, groups...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write cfd header: %w", err)
	}

	for _, p := range points {
		record := make([]string, 0, len(groups)+1)
		record = append(record, p.Date.Format(exportDateLayout))

		for _, g := range groups {
			record = append(record, strconv.Itoa(p.Counts[g]))
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write cfd row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func formatDays(days float64) string {
	return strconv.FormatFloat(days, 'f', daysPrecision, 64)
}

// formatOptionalTime renders a lifecycle date, empty when never reached.
func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(exportTimeLayout)
}
