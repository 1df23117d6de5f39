package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/flowfang/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Jira.Timeout)
	assert.Equal(t, 3, cfg.Jira.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Jira.Backoff)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.False(t, cfg.Export.BusinessDays)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	configContent := `
jira:
  base_url: "https://jira.example.com"
  user: "alice@example.com"
  max_retries: 5

workflow:
  file: "workflow.txt"
  closed_vocabulary: ["Done", "Won't Fix"]

export:
  business_days: true
  whole_days: true
  format: chart
  output_dir: "/tmp/out"
`

	path := filepath.Join(t.TempDir(), "flowfang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.com", cfg.Jira.BaseURL)
	assert.Equal(t, 5, cfg.Jira.MaxRetries)
	assert.Equal(t, "workflow.txt", cfg.Workflow.File)
	assert.Equal(t, []string{"Done", "Won't Fix"}, cfg.Workflow.ClosedVocabulary)
	assert.True(t, cfg.Export.BusinessDays)
	assert.True(t, cfg.Export.WholeDays)
	assert.Equal(t, "chart", cfg.Export.Format)
	assert.Equal(t, "/tmp/out", cfg.Export.OutputDir)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("FLOWFANG_JIRA_BASE_URL", "https://env.example.com")
	t.Setenv("FLOWFANG_EXPORT_FORMAT", "chart")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Jira.BaseURL)
	assert.Equal(t, "chart", cfg.Export.Format)
}

func TestLoadConfigInvalidFormat(t *testing.T) {
	t.Setenv("FLOWFANG_EXPORT_FORMAT", "xml")

	_, err := config.LoadConfig("")

	assert.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestLoadConfigWholeDaysRequireBusinessDays(t *testing.T) {
	t.Parallel()

	configContent := `
export:
  whole_days: true
`

	path := filepath.Join(t.TempDir(), "flowfang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	_, err := config.LoadConfig(path)

	assert.ErrorIs(t, err, config.ErrWholeWithoutBiz)
}

func TestLoadHolidays(t *testing.T) {
	t.Parallel()

	content := "holidays:\n  - 2023-01-01\n  - 2023-12-25\n"

	path := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holidays, err := config.LoadHolidays(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-12-25"}, holidays)
}

func TestLoadHolidaysEmptyPath(t *testing.T) {
	t.Parallel()

	holidays, err := config.LoadHolidays("")
	require.NoError(t, err)

	assert.Empty(t, holidays)
}

func TestLoadHolidaysMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadHolidays(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}
