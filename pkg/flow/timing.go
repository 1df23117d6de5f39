package flow

import (
	"time"

	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

// Calculator converts a time span into a duration figure under one of three
// policies: calendar days (the default), fractional business days, or whole
// business days counted date-by-date.
type Calculator struct {
	BusinessDays bool
	WholeDays    bool
	Holidays     HolidaySet
}

// Days returns the duration of [start, end) under the calculator's policy.
func (c Calculator) Days(start, end time.Time) float64 {
	switch {
	case c.BusinessDays && c.WholeDays:
		return float64(WholeBusinessDays(start, end, c.Holidays))
	case c.BusinessDays:
		return BusinessDays(start, end, c.Holidays)
	default:
		return end.Sub(start).Hours() / hoursPerDay
	}
}

// Unit names the unit Days reports in, for output headers.
func (c Calculator) Unit() string {
	if c.BusinessDays {
		return "business days"
	}

	return "days"
}

// Timing maps canonical status groups to the total time an issue spent in
// them.
type Timing map[string]float64

// StatusTiming sums the duration of every timeline interval into its group.
// Under the calendar policy the values add up to horizon minus creation.
func StatusTiming(tl *Timeline, calc Calculator) Timing {
	timing := make(Timing)

	for _, iv := range tl.Intervals {
		timing[iv.Group] += calc.Days(iv.Start, iv.End)
	}

	return timing
}

// CycleTime is the span an issue spent between entering the first working
// group and entering the last group. Issues that never reach the last group
// are incomplete and carry no duration.
type CycleTime struct {
	Key       string
	Start     time.Time
	End       time.Time
	Days      float64
	Completed bool
}

// ComputeCycleTime locates the first entry into the First marker group and
// the first entry into the Last marker group on or after it. Issues that
// never pass through the first group start the clock at creation. Re-entries
// into the first group before completion do not reset the clock.
func ComputeCycleTime(tl *Timeline, markers workflow.Markers, calc Calculator) CycleTime {
	ct := CycleTime{Key: tl.Key, Start: tl.Created}

	for _, iv := range tl.Intervals {
		if iv.Group == markers.First {
			ct.Start = iv.Start

			break
		}
	}

	if markers.Last == "" {
		return ct
	}

	for _, iv := range tl.Intervals {
		if iv.Group == markers.Last && !iv.Start.Before(ct.Start) {
			ct.End = iv.Start
			ct.Completed = true
			ct.Days = calc.Days(ct.Start, ct.End)

			break
		}
	}

	return ct
}
