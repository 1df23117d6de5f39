package flow_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

func TestBuildBatch_DefaultHorizonIsLatestEvent(t *testing.T) {
	t.Parallel()

	issues := []*jira.Issue{
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Open"),
		mkIssue("PROJ-2", "2023-01-02T00:00:00Z", "Done",
			statusHistory("2023-01-06T12:00:00Z", "Open", "Done"),
		),
	}

	batch, err := flow.BuildBatch(issues, nil, flow.Options{})
	require.NoError(t, err)

	assert.Equal(t, ts(t, "2023-01-06T12:00:00Z"), batch.Horizon)

	for _, tl := range batch.Timelines() {
		assert.Equal(t, batch.Horizon, tl.Horizon)
	}
}

func TestBuildBatch_ExplicitHorizon(t *testing.T) {
	t.Parallel()

	horizon := ts(t, "2023-02-01T00:00:00Z")

	batch, err := flow.BuildBatch([]*jira.Issue{
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Open"),
	}, nil, flow.Options{Horizon: horizon})
	require.NoError(t, err)

	assert.Equal(t, horizon, batch.Horizon)
}

func TestBuildBatch_ResolvesMarkersFromBatch(t *testing.T) {
	t.Parallel()

	issues := []*jira.Issue{
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Done",
			statusHistory("2023-01-02T00:00:00Z", "Open", "In Progress"),
			statusHistory("2023-01-05T00:00:00Z", "In Progress", "Done"),
		),
	}

	batch, err := flow.BuildBatch(issues, nil, flow.Options{})
	require.NoError(t, err)

	assert.Equal(t, "Open", batch.Markers.First)
	assert.Equal(t, "Done", batch.Markers.Last)
}

func TestBuildBatch_ExplicitMarkersWin(t *testing.T) {
	t.Parallel()

	wf, err := workflow.Parse(strings.NewReader("<First>In Progress\n<Last>Done\nIn Progress\nDone"))
	require.NoError(t, err)

	batch, err := flow.BuildBatch([]*jira.Issue{
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Open"),
	}, wf, flow.Options{})
	require.NoError(t, err)

	assert.Equal(t, "In Progress", batch.Markers.First)
	assert.Equal(t, "Done", batch.Markers.Last)
}

func TestBuildBatch_SkipsMalformedIssue(t *testing.T) {
	t.Parallel()

	issues := []*jira.Issue{
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Open"),
		mkIssue("PROJ-2", "not a date", "Open"),
	}

	batch, err := flow.BuildBatch(issues, nil, flow.Options{})
	require.NoError(t, err)

	assert.Len(t, batch.Items, 1)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "PROJ-2", batch.Errors[0].Key)

	var malformed *flow.MalformedInputError

	assert.ErrorAs(t, batch.Errors[0].Err, &malformed)
}

func TestBuildBatch_StrictAborts(t *testing.T) {
	t.Parallel()

	issues := []*jira.Issue{
		mkIssue("PROJ-1", "not a date", "Open"),
	}

	_, err := flow.BuildBatch(issues, nil, flow.Options{Strict: true})

	var malformed *flow.MalformedInputError

	assert.ErrorAs(t, err, &malformed)
}

func TestBuildBatch_TemporalErrorKeepsEvents(t *testing.T) {
	t.Parallel()

	conflicted := mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Done",
		statusHistory("2023-01-02T00:00:00Z", "Open", "In Progress"),
		statusHistory("2023-01-02T00:00:00Z", "Open", "Done"),
	)

	batch, err := flow.BuildBatch([]*jira.Issue{conflicted}, nil, flow.Options{})
	require.NoError(t, err)

	require.Len(t, batch.Items, 1)
	assert.Nil(t, batch.Items[0].Timeline)
	assert.NotEmpty(t, batch.Items[0].Events)
	assert.Empty(t, batch.Timelines())

	require.Len(t, batch.Errors, 1)

	var temporal *flow.TemporalConsistencyError

	assert.ErrorAs(t, batch.Errors[0].Err, &temporal)
}

func TestBatchEvents_PreservesIssueOrder(t *testing.T) {
	t.Parallel()

	issues := []*jira.Issue{
		mkIssue("PROJ-2", "2023-01-02T00:00:00Z", "Open"),
		mkIssue("PROJ-1", "2023-01-01T00:00:00Z", "Open"),
	}

	batch, err := flow.BuildBatch(issues, nil, flow.Options{})
	require.NoError(t, err)

	events := batch.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "PROJ-2", events[0].Key)
	assert.Equal(t, "PROJ-1", events[1].Key)
}

func TestBuildBatch_Empty(t *testing.T) {
	t.Parallel()

	batch, err := flow.BuildBatch(nil, nil, flow.Options{Horizon: time.Now()})
	require.NoError(t, err)

	assert.Empty(t, batch.Items)
	assert.Empty(t, batch.Timelines())
}
