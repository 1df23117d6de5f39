package flow

import "time"

// hoursPerDay converts interval overlap into day fractions.
const hoursPerDay = 24.0

// holidayDateLayout is the key format for holiday lookup.
const holidayDateLayout = "2006-01-02"

// HolidaySet is a set of calendar dates excluded from business-day counts.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a holiday set from ISO dates (YYYY-MM-DD). Dates that
// do not parse are reported, not silently dropped.
func NewHolidaySet(dates []string) (HolidaySet, error) {
	set := make(HolidaySet, len(dates))

	for _, d := range dates {
		if _, err := time.Parse(holidayDateLayout, d); err != nil {
			return nil, err
		}

		set[d] = struct{}{}
	}

	return set, nil
}

// Contains reports whether t's calendar date is a holiday.
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h[t.Format(holidayDateLayout)]

	return ok
}

// isBusinessDay reports whether day (any instant within it) falls on a
// weekday that is not a holiday.
func (h HolidaySet) isBusinessDay(day time.Time) bool {
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}

	return !h.Contains(day)
}

// BusinessDays returns the fractional number of business days in the
// half-open span [start, end): for every business date the span touches, the
// fraction of that date covered by the span. The measure is additive, an
// empty span counts zero, and a full weekend-bridging week from Friday
// morning to Monday morning counts exactly one day.
func BusinessDays(start, end time.Time, holidays HolidaySet) float64 {
	if !end.After(start) {
		return 0
	}

	var total float64

	day := startOfDay(start)
	for day.Before(end) {
		next := day.AddDate(0, 0, 1)

		if holidays.isBusinessDay(day) {
			from, to := start, end
			if day.After(from) {
				from = day
			}

			if next.Before(to) {
				to = next
			}

			total += to.Sub(from).Hours() / hoursPerDay
		}

		day = next
	}

	return total
}

// WholeBusinessDays counts the business dates in the half-open date range
// [start's date, end's date): the start date counts, the end date does not.
func WholeBusinessDays(start, end time.Time, holidays HolidaySet) int {
	count := 0

	day := startOfDay(start)
	last := startOfDay(end)

	for day.Before(last) {
		if holidays.isBusinessDay(day) {
			count++
		}

		day = day.AddDate(0, 0, 1)
	}

	return count
}

// startOfDay returns midnight of t's calendar date in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
