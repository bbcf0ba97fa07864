package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const baseYAML = `
sheet:
  backend: xlsx
  workbook_path: /tmp/papers.xlsx
  url_column: B
  status_column: K
  output_start_column: F
  output_end_column: J
  first_output_row: 2
grobid:
  host: grobid.internal
`

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
sheet:
  backend: google
  spreadsheet_id: sheet-123
  credentials_file: /secrets/sa.json
  url_column: c
  status_column: l
  output_start_column: g
  output_end_column: k
  first_output_row: 3
  pages: ["A", "B"]
grobid:
  scheme: https
  host: grobid.example.com
  port: 443
  timeout_seconds: 90
http:
  download_timeout_seconds: 10
  user_agent: test-agent
pubsub:
  project_id: proj
  topic_name: progress
logging:
  development: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.Sheet.SpreadsheetID)
	assert.Equal(t, []string{"A", "B"}, cfg.Sheet.Pages)
	assert.Equal(t, 3, cfg.Layout().FirstOutputRow)
	assert.Equal(t, "https", cfg.Grobid.Scheme)
	assert.Equal(t, 90*time.Second, cfg.GrobidTimeout())
	assert.Equal(t, 10*time.Second, cfg.DownloadTimeout())
	assert.Equal(t, "test-agent", cfg.HTTP.UserAgent)
	assert.True(t, cfg.PublishEnabled())
	assert.False(t, cfg.Logging.Development)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1", "1.2", "2.1", "2.2"}, cfg.Sheet.Pages)
	assert.Equal(t, "http", cfg.Grobid.Scheme)
	assert.Equal(t, 8070, cfg.Grobid.Port)
	assert.Equal(t, 60*time.Second, cfg.GrobidTimeout())
	assert.Equal(t, 30*time.Second, cfg.DownloadTimeout())
	assert.Equal(t, 50, cfg.Progress.DisplayWidth)
	assert.Equal(t, "citesync", cfg.Metrics.JobName)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.PublishEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CITESYNC_SHEET_BACKEND", "memory")
	t.Setenv("CITESYNC_SHEET_URL_COLUMN", "B")
	t.Setenv("CITESYNC_SHEET_STATUS_COLUMN", "K")
	t.Setenv("CITESYNC_SHEET_OUTPUT_START_COLUMN", "F")
	t.Setenv("CITESYNC_SHEET_OUTPUT_END_COLUMN", "J")
	t.Setenv("CITESYNC_SHEET_FIRST_OUTPUT_ROW", "2")
	t.Setenv("CITESYNC_SHEET_PAGES", "3.1,3.2")
	t.Setenv("CITESYNC_GROBID_HOST", "localhost")
	t.Setenv("CITESYNC_GROBID_PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Sheet.Backend)
	assert.Equal(t, "localhost", cfg.Grobid.Host)
	assert.Equal(t, 9000, cfg.Grobid.Port)
	assert.Equal(t, []string{"3.1", "3.2"}, cfg.Sheet.Pages)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("CITESYNC_GROBID_HOST", "from-env")

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Grobid.Host)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		drop    string
		wantErr string
	}{
		{name: "grobid host", drop: "  host: grobid.internal\n", wantErr: "grobid.host"},
		{name: "workbook", drop: "  workbook_path: /tmp/papers.xlsx\n", wantErr: "workbook_path"},
		{name: "url column", drop: "  url_column: B\n", wantErr: "url column"},
		{name: "first output row", drop: "  first_output_row: 2\n", wantErr: "first output row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(baseYAML, tt.drop, "", 1)
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Sheet: SheetConfig{
				Backend: BackendMemory, URLColumn: "B", StatusColumn: "K",
				OutputStartColumn: "F", OutputEndColumn: "J", FirstOutputRow: 2,
				Pages: []string{"1.1"},
			},
			Grobid: GrobidConfig{Scheme: "http", Host: "h", Port: 8070, TimeoutSeconds: 60},
			HTTP:   HTTPConfig{DownloadTimeoutSeconds: 30},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Sheet.Backend = "csv" }},
		{name: "google without id", mutate: func(c *Config) { c.Sheet.Backend = BackendGoogle; c.Sheet.CredentialsFile = "x" }},
		{name: "google without credentials", mutate: func(c *Config) { c.Sheet.Backend = BackendGoogle; c.Sheet.SpreadsheetID = "x" }},
		{name: "output too wide", mutate: func(c *Config) { c.Sheet.OutputEndColumn = "L" }},
		{name: "header row output", mutate: func(c *Config) { c.Sheet.FirstOutputRow = 1 }},
		{name: "no pages", mutate: func(c *Config) { c.Sheet.Pages = nil }},
		{name: "blank page", mutate: func(c *Config) { c.Sheet.Pages = []string{" "} }},
		{name: "bad port", mutate: func(c *Config) { c.Grobid.Port = 70000 }},
		{name: "zero grobid timeout", mutate: func(c *Config) { c.Grobid.TimeoutSeconds = 0 }},
		{name: "zero download timeout", mutate: func(c *Config) { c.HTTP.DownloadTimeoutSeconds = 0 }},
		{name: "half pubsub", mutate: func(c *Config) { c.PubSub.ProjectID = "p" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
