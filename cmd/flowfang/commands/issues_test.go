package commands_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/cmd/flowfang/commands"
)

func TestIssuesCommand_ListsSnapshot(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmd := commands.NewIssuesCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--input", writeSnapshot(t, t.TempDir())})

	require.NoError(t, cmd.Execute())

	listing := out.String()
	assert.Contains(t, listing, "PROJ-1")
	assert.Contains(t, listing, "PROJ-2")
	assert.Contains(t, listing, "Bug")
	assert.Contains(t, listing, "Fix login")
	assert.Contains(t, listing, "Total: 2 issues")
}

func TestIssuesCommand_NoSource(t *testing.T) {
	t.Parallel()

	cmd := commands.NewIssuesCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	assert.ErrorIs(t, cmd.Execute(), commands.ErrNoSource)
}
