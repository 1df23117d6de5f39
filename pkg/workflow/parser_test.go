package workflow_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/pkg/workflow"
)

func parse(t *testing.T, text string) *workflow.Config {
	t.Helper()

	cfg, err := workflow.Parse(strings.NewReader(text))
	require.NoError(t, err)

	return cfg
}

func TestParse_SimpleFormat(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\nTesting -> In Progress\n")

	assert.Equal(t, "In Progress", cfg.GroupFor("In Review"))
	assert.Equal(t, "In Progress", cfg.GroupFor("Testing"))
	assert.Equal(t, []string{"In Progress"}, cfg.Groups())
}

func TestParse_FullFormat(t *testing.T) {
	t.Parallel()

	cfg := parse(t, `
Open:Backlog:To Do
In Progress:In Review:Testing
Done:Closed
<First>Open
<Last>Done
<Implementation>In Progress
`)

	assert.Equal(t, "Open", cfg.GroupFor("Backlog"))
	assert.Equal(t, "In Progress", cfg.GroupFor("Testing"))
	assert.Equal(t, "Done", cfg.GroupFor("Closed"))

	m := cfg.Markers()
	assert.Equal(t, "Open", m.First)
	assert.Equal(t, "Done", m.Last)
	assert.Equal(t, "In Progress", m.Implementation)
}

func TestParse_MixedFormats(t *testing.T) {
	t.Parallel()

	cfg := parse(t, `
# canonical declarations
Open:Backlog
In Review -> In Progress
<First>Open
`)

	assert.Equal(t, "Open", cfg.GroupFor("Backlog"))
	assert.Equal(t, "In Progress", cfg.GroupFor("In Review"))
	assert.Equal(t, "Open", cfg.Markers().First)
}

func TestParse_BareGroupDeclaration(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "Blocked\n")

	assert.Equal(t, "Blocked", cfg.GroupFor("Blocked"))
	assert.Equal(t, []string{"Blocked"}, cfg.Groups())
}

func TestParse_CommentsAndBlanksIgnored(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "# a comment\n\n  \nOpen:Backlog\n")

	assert.Equal(t, []string{"Open"}, cfg.Groups())
}

func TestGroupFor_SelfMappingFallback(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\n")

	// Unmapped names resolve to themselves; lookup never fails.
	assert.Equal(t, "Weird Status", cfg.GroupFor("Weird Status"))
}

func TestGroupFor_Idempotent(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\nOpen:Backlog\n")

	for _, g := range cfg.Groups() {
		assert.Equal(t, g, cfg.GroupFor(g))
	}
}

func TestGroupFor_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *workflow.Config

	assert.Equal(t, "Open", cfg.GroupFor("Open"))
	assert.Empty(t, cfg.Groups())
}

func TestParse_UnknownMarkerTag(t *testing.T) {
	t.Parallel()

	_, err := workflow.Parse(strings.NewReader("Open:Backlog\n<Middle>Open\n"))
	require.Error(t, err)

	var cfgErr *workflow.ConfigError

	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 2, cfgErr.Line)
	assert.Equal(t, "<Middle>Open", cfgErr.Text)
}

func TestParse_EmptyMappingSides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty raw status", text: " -> In Progress"},
		{name: "empty group", text: "In Review -> "},
		{name: "empty marker group", text: "<First>"},
		{name: "empty canonical name", text: ":Alias"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := workflow.Parse(strings.NewReader(tt.text))

			var cfgErr *workflow.ConfigError

			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, 1, cfgErr.Line)
		})
	}
}

func TestParse_MarkerReferencesUndefinedGroup(t *testing.T) {
	t.Parallel()

	_, err := workflow.Parse(strings.NewReader("Open:Backlog\n<Last>Done\n"))

	var cfgErr *workflow.ConfigError

	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "Done")
}

func TestResolveMarkers_Heuristics(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\n")

	m := cfg.ResolveMarkers("Open", []string{"Open", "In Progress", "Done"})

	assert.Equal(t, "Open", m.First)
	assert.Equal(t, "Done", m.Last)
}

func TestResolveMarkers_NoTerminalGroup(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\n")

	m := cfg.ResolveMarkers("Open", []string{"Open", "In Progress"})

	assert.Equal(t, "Open", m.First)
	assert.Empty(t, m.Last)
}

func TestResolveMarkers_ExplicitWins(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "Open:Backlog\nDone:Closed\n<First>Open\n<Last>Done\n")

	m := cfg.ResolveMarkers("Backlog", []string{"Resolved"})

	assert.Equal(t, "Open", m.First)
	assert.Equal(t, "Done", m.Last)
}

func TestSetClosedVocabulary(t *testing.T) {
	t.Parallel()

	cfg := parse(t, "In Review -> In Progress\n")
	cfg.SetClosedVocabulary([]string{"Shipped"})

	m := cfg.ResolveMarkers("Open", []string{"Open", "Shipped", "Done"})

	assert.Equal(t, "Shipped", m.Last)
}
