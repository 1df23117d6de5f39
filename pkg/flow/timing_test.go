package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

func TestStatusTiming_SumsToTimelineSpan(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-1",
		"2023-01-02T10:00:00Z", "Open",
		"2023-01-03T09:00:00Z", "In Progress",
		"2023-01-05T17:00:00Z", "Done",
	)
	horizon := ts(t, "2023-01-08T10:00:00Z")

	tl, err := flow.Reconstruct(events, nil, horizon)
	require.NoError(t, err)

	timing := flow.StatusTiming(tl, flow.Calculator{})

	var sum float64
	for _, v := range timing {
		sum += v
	}

	span := horizon.Sub(tl.Created).Hours() / 24

	assert.InDelta(t, span, sum, 1e-9)
	assert.InDelta(t, 23.0/24, timing["Open"], 1e-9)
}

func TestStatusTiming_ReentryAccumulates(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-2",
		"2023-01-01T00:00:00Z", "Open",
		"2023-01-02T00:00:00Z", "In Progress",
		"2023-01-03T00:00:00Z", "Open",
		"2023-01-05T00:00:00Z", "Done",
	)

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-05T00:00:00Z"))
	require.NoError(t, err)

	timing := flow.StatusTiming(tl, flow.Calculator{})

	assert.InDelta(t, 3.0, timing["Open"], 1e-9)
	assert.InDelta(t, 1.0, timing["In Progress"], 1e-9)
	assert.Zero(t, timing["Done"])
}

func TestCalculator_Unit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "days", flow.Calculator{}.Unit())
	assert.Equal(t, "business days", flow.Calculator{BusinessDays: true}.Unit())
}

func TestCalculator_Policies(t *testing.T) {
	t.Parallel()

	start := ts(t, "2023-01-06T09:00:00Z") // Friday
	end := ts(t, "2023-01-09T09:00:00Z")   // Monday

	assert.InDelta(t, 3.0, flow.Calculator{}.Days(start, end), 1e-9)
	assert.InDelta(t, 1.0, flow.Calculator{BusinessDays: true}.Days(start, end), 1e-9)
	assert.InDelta(t, 1.0, flow.Calculator{BusinessDays: true, WholeDays: true}.Days(start, end), 1e-9)
}

func TestComputeCycleTime_Completed(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-3",
		"2023-01-01T00:00:00Z", "Open",
		"2023-01-02T00:00:00Z", "In Progress",
		"2023-01-06T00:00:00Z", "Done",
	)

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-10T00:00:00Z"))
	require.NoError(t, err)

	ct := flow.ComputeCycleTime(tl, workflow.Markers{First: "In Progress", Last: "Done"}, flow.Calculator{})

	assert.True(t, ct.Completed)
	assert.Equal(t, ts(t, "2023-01-02T00:00:00Z"), ct.Start)
	assert.Equal(t, ts(t, "2023-01-06T00:00:00Z"), ct.End)
	assert.InDelta(t, 4.0, ct.Days, 1e-9)
}

func TestComputeCycleTime_Incomplete(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-4",
		"2023-01-01T00:00:00Z", "Open",
		"2023-01-02T00:00:00Z", "In Progress",
	)

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-10T00:00:00Z"))
	require.NoError(t, err)

	ct := flow.ComputeCycleTime(tl, workflow.Markers{First: "In Progress", Last: "Done"}, flow.Calculator{})

	assert.False(t, ct.Completed)
	assert.Zero(t, ct.Days)
}

func TestComputeCycleTime_ReentryDoesNotReset(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-5",
		"2023-01-01T00:00:00Z", "Open",
		"2023-01-02T00:00:00Z", "In Progress",
		"2023-01-03T00:00:00Z", "Open",
		"2023-01-04T00:00:00Z", "In Progress",
		"2023-01-06T00:00:00Z", "Done",
	)

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-10T00:00:00Z"))
	require.NoError(t, err)

	ct := flow.ComputeCycleTime(tl, workflow.Markers{First: "In Progress", Last: "Done"}, flow.Calculator{})

	assert.True(t, ct.Completed)
	assert.Equal(t, ts(t, "2023-01-02T00:00:00Z"), ct.Start)
	assert.InDelta(t, 4.0, ct.Days, 1e-9)
}

func TestComputeCycleTime_NeverEnteredFirstGroup(t *testing.T) {
	t.Parallel()

	events := mkEvents(t, "PROJ-6", "2023-01-01T00:00:00Z", "Open")

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-10T00:00:00Z"))
	require.NoError(t, err)

	ct := flow.ComputeCycleTime(tl, workflow.Markers{First: "In Progress", Last: "Done"}, flow.Calculator{})

	assert.False(t, ct.Completed)
	assert.Equal(t, tl.Created, ct.Start)
	assert.Zero(t, ct.Days)
}

func TestComputeCycleTime_SkippedFirstGroupStartsAtCreation(t *testing.T) {
	t.Parallel()

	// Created directly in Open and closed without ever entering the first
	// marker group; the clock starts at creation.
	events := mkEvents(t, "PROJ-7",
		"2023-01-01T00:00:00Z", "Open",
		"2023-01-04T00:00:00Z", "Done",
	)

	tl, err := flow.Reconstruct(events, nil, ts(t, "2023-01-10T00:00:00Z"))
	require.NoError(t, err)

	ct := flow.ComputeCycleTime(tl, workflow.Markers{First: "In Progress", Last: "Done"}, flow.Calculator{})

	assert.True(t, ct.Completed)
	assert.Equal(t, ts(t, "2023-01-01T00:00:00Z"), ct.Start)
	assert.Equal(t, ts(t, "2023-01-04T00:00:00Z"), ct.End)
	assert.InDelta(t, 3.0, ct.Days, 1e-9)
}
