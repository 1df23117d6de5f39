package jira_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/pkg/jira"
)

const sampleIssue = `{
  "id": "10001",
  "key": "PROJ-1",
  "fields": {
    "summary": "Fix login",
    "created": "2023-01-01T10:00:00.000+0000",
    "status": {"name": "Open"}
  },
  "changelog": {
    "histories": [
      {
        "created": "2023-01-02T14:00:00.000+0000",
        "items": [{"field": "status", "fromString": "Open", "toString": "In Progress"}]
      }
    ]
  }
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "issues.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadSnapshot_IssueArray(t *testing.T) {
	t.Parallel()

	issues, err := jira.LoadSnapshot(writeSnapshot(t, "["+sampleIssue+"]"))
	require.NoError(t, err)
	require.Len(t, issues, 1)

	assert.Equal(t, "PROJ-1", issues[0].Key)
	assert.Equal(t, "Open", issues[0].StatusName())
}

func TestLoadSnapshot_Envelope(t *testing.T) {
	t.Parallel()

	issues, err := jira.LoadSnapshot(writeSnapshot(t, `{"issues": [`+sampleIssue+`]}`))
	require.NoError(t, err)

	assert.Len(t, issues, 1)
}

func TestLoadSnapshot_SingleIssue(t *testing.T) {
	t.Parallel()

	issues, err := jira.LoadSnapshot(writeSnapshot(t, sampleIssue))
	require.NoError(t, err)

	assert.Len(t, issues, 1)
}

func TestLoadSnapshot_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := jira.LoadSnapshot(writeSnapshot(t, `[{"fields": {"summary": "x"}}]`))

	assert.ErrorIs(t, err, jira.ErrMissingKey)
}

func TestLoadSnapshot_MissingFields(t *testing.T) {
	t.Parallel()

	_, err := jira.LoadSnapshot(writeSnapshot(t, `[{"key": "PROJ-1"}]`))

	assert.ErrorIs(t, err, jira.ErrMissingFields)
}

func TestLoadSnapshot_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := jira.LoadSnapshot(writeSnapshot(t, `{not json`))

	assert.ErrorIs(t, err, jira.ErrMalformedSnapshot)
}

func TestLoadSnapshot_UnrecognizedShape(t *testing.T) {
	t.Parallel()

	_, err := jira.LoadSnapshot(writeSnapshot(t, `{"projects": []}`))

	assert.ErrorIs(t, err, jira.ErrMalformedSnapshot)
}

func TestHistories_TopLevelChangelog(t *testing.T) {
	t.Parallel()

	issues, err := jira.LoadSnapshot(writeSnapshot(t, "["+sampleIssue+"]"))
	require.NoError(t, err)

	histories := issues[0].Histories()
	require.Len(t, histories, 1)
	assert.True(t, histories[0].Items[0].IsStatusChange())
}

func TestHistories_NestedChangelog(t *testing.T) {
	t.Parallel()

	nested := `[{
	  "key": "PROJ-2",
	  "fields": {
	    "created": "2023-01-01T10:00:00.000+0000",
	    "status": {"name": "Open"},
	    "changelog": {
	      "histories": [
	        {"created": "2023-01-03T09:00:00.000+0000",
	         "items": [{"field": "status", "fromString": "Open", "toString": "Done"}]}
	      ]
	    }
	  }
	}]`

	issues, err := jira.LoadSnapshot(writeSnapshot(t, nested))
	require.NoError(t, err)

	histories := issues[0].Histories()
	require.Len(t, histories, 1)
	assert.Equal(t, "Done", histories[0].Items[0].ToString)
}

func TestHistories_NoChangelog(t *testing.T) {
	t.Parallel()

	issues, err := jira.LoadSnapshot(writeSnapshot(t,
		`[{"key": "PROJ-3", "fields": {"created": "2023-01-01T10:00:00.000+0000", "status": {"name": "Open"}}}]`))
	require.NoError(t, err)

	assert.Nil(t, issues[0].Histories())
}

func TestParseTime_JiraFormat(t *testing.T) {
	t.Parallel()

	ts, err := jira.ParseTime("2023-01-02T14:00:00.000+0000")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 1, 2, 14, 0, 0, 0, time.UTC).Unix(), ts.Unix())
}

func TestParseTime_RFC3339(t *testing.T) {
	t.Parallel()

	ts, err := jira.ParseTime("2023-01-02T14:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 1, 2, 14, 0, 0, 0, time.UTC), ts.UTC())
}

func TestParseTime_Unrecognized(t *testing.T) {
	t.Parallel()

	_, err := jira.ParseTime("02.01.2023 14:00")

	assert.ErrorIs(t, err, jira.ErrBadTimestamp)
}
