package flow

import (
	"sort"
	"time"
)

// Point is one cumulative-flow sample: the number of issues occupying each
// status group at the start of one calendar date.
type Point struct {
	Date   time.Time
	Counts map[string]int
}

// Total returns the number of issues counted at this point.
func (p Point) Total() int {
	sum := 0
	for _, n := range p.Counts {
		sum += n
	}

	return sum
}

// BuildCFD samples every timeline at the start of each UTC calendar date in
// [from, to]. Zero from/to default to the earliest creation date and the
// latest horizon date across the batch. An issue is counted on a date once
// it exists there: the sample instant is the later of the date's midnight
// and the issue's creation, so issues created mid-day still count on their
// creation date. Every counted issue lands in exactly one group, so the
// per-date totals equal the number of issues created by that date.
func BuildCFD(timelines []*Timeline, from, to time.Time) []Point {
	if len(timelines) == 0 {
		return nil
	}

	if from.IsZero() || to.IsZero() {
		lo, hi := batchDateRange(timelines)
		if from.IsZero() {
			from = lo
		}

		if to.IsZero() {
			to = hi
		}
	}

	from = dateOnly(from)
	to = dateOnly(to)

	var points []Point

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		counts := make(map[string]int)

		for _, tl := range timelines {
			if dateOnly(tl.Created).After(day) {
				continue
			}

			sampleAt := day
			if tl.Created.After(sampleAt) {
				sampleAt = tl.Created
			}

			if g := tl.GroupAt(sampleAt); g != "" {
				counts[g]++
			}
		}

		points = append(points, Point{Date: day, Counts: counts})
	}

	return points
}

// CFDGroups returns the sorted union of groups appearing across the series.
func CFDGroups(points []Point) []string {
	seen := make(map[string]struct{})

	for _, p := range points {
		for g := range p.Counts {
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

// batchDateRange returns the earliest creation date and latest horizon date
// across the batch, both as midnight UTC.
func batchDateRange(timelines []*Timeline) (lo, hi time.Time) {
	for _, tl := range timelines {
		created := dateOnly(tl.Created)
		horizon := dateOnly(tl.Horizon)

		if lo.IsZero() || created.Before(lo) {
			lo = created
		}

		if hi.IsZero() || horizon.After(hi) {
			hi = horizon
		}
	}

	return lo, hi
}

// dateOnly maps an instant to midnight UTC of its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
