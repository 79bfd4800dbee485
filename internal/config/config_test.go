package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
input:
  file: budget.xlsx
  sheet: Vaihtoehtobudjetti
  extras_sheet: Lisätiedot
columns:
  income: 0
  depth: 1
  address: 2
  chapter_label: 3
  category_label: 4
  item_label: 5
  baseline: 6
  alternative: 7
  rationale: 8
  difference_percent: 9
log_level: debug
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "budget.xlsx", cfg.Input.File)
	assert.Equal(t, ";", cfg.Input.CSV.Delimiter)
	assert.Equal(t, "UTF-8", cfg.Input.CSV.Encoding)
	assert.Equal(t, "tulo", cfg.Markers.Income)
	assert.Equal(t, "Määräraha", cfg.Markers.HeaderSentinel)
	assert.Equal(t, DefaultExtrasKeys(), cfg.ExtrasKeys)
	assert.Equal(t, DefaultSourceLink, cfg.Report.DefaultSourceLink)
	assert.Equal(t, "1", cfg.Report.Threshold().String())
	assert.Equal(t, "./output", cfg.Output.Dir)
	assert.Equal(t, "budget_{timestamp}.xml", cfg.Output.FileNameFormat)
	assert.True(t, cfg.Output.ErrorLogEnabled())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestIndices(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	idx := cfg.Columns.Indices()
	assert.Equal(t, 0, idx.Income)
	assert.Equal(t, 6, idx.Baseline)
	assert.Equal(t, 9, idx.DifferencePercent)
	assert.Equal(t, -1, idx.SourceLink)
}

func TestParseMissingColumnIsFatal(t *testing.T) {
	yml := `
columns:
  income: 0
  depth: 1
  address: 2
  chapter_label: 3
  category_label: 4
  item_label: 5
  alternative: 7
  rationale: 8
`
	_, err := Parse([]byte(yml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns.baseline is required")
}

func TestParseRejectsNegativeColumn(t *testing.T) {
	yml := fullYAML + "\n"
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	neg := -2
	cfg.Columns.Rationale = &neg
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns.rationale must be at least 0")
}

func TestParseRejectsBadValues(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	cfg.Input.CSV.Encoding = "EBCDIC"
	cfg.Report.DivergenceThreshold = "lots"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.csv.encoding must be one of")
	assert.Contains(t, err.Error(), "report.divergence_threshold must be a number")
}

func TestParseRejectsNegativeThreshold(t *testing.T) {
	_, err := Parse([]byte(fullYAML + "report:\n  divergence_threshold: \"-0.5\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `report.divergence_threshold must not be negative, got "-0.5"`)

	cfg, err := Parse([]byte(fullYAML + "report:\n  divergence_threshold: \"0\"\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Report.Threshold().IsZero())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BUDGET_INPUT_FILE", "/data/export.csv")
	t.Setenv("BUDGET_OUTPUT_DIR", "/tmp/out")
	t.Setenv("BUDGET_LOG_LEVEL", "WARN")

	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "/data/export.csv", cfg.Input.File)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Vaihtoehtobudjetti", cfg.Input.Sheet)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("columns: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Lisätiedot", cfg.Input.ExtrasSheet)
	assert.Equal(t, DefaultExtrasKeys(), cfg.ExtrasKeys)
	assert.Equal(t, -1, cfg.Columns.Indices().SourceLink)
	assert.True(t, cfg.Output.ErrorLogEnabled())
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("BUDGET_OUTPUT_DIR", "")
	os.Unsetenv("BUDGET_OUTPUT_DIR")
	t.Setenv("BUDGET_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUDGET_OUTPUT_DIR=/srv/budget\nBUDGET_LOG_LEVEL=debug\n"), 0o644))

	loaded, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.True(t, loaded)

	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)
	assert.Equal(t, "/srv/budget", cfg.Output.Dir)
	assert.Equal(t, "error", cfg.LogLevel, "variables already set win over the file")

	loaded, err = LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)
}
