// Package config loads and validates citesync configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/citesync/internal/sheets"
)

// EnvPrefix namespaces every environment variable, e.g. CITESYNC_GROBID_HOST.
const EnvPrefix = "CITESYNC"

// Supported sheet backends.
const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
	BackendMemory = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Sheet     SheetConfig     `mapstructure:"sheet"`
	Grobid    GrobidConfig    `mapstructure:"grobid"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	PageCount PageCountConfig `mapstructure:"pagecount"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SheetConfig locates the spreadsheet and the columns the sync reads and writes.
type SheetConfig struct {
	Backend           string   `mapstructure:"backend"`
	SpreadsheetID     string   `mapstructure:"spreadsheet_id"`
	CredentialsFile   string   `mapstructure:"credentials_file"`
	WorkbookPath      string   `mapstructure:"workbook_path"`
	URLColumn         string   `mapstructure:"url_column"`
	StatusColumn      string   `mapstructure:"status_column"`
	OutputStartColumn string   `mapstructure:"output_start_column"`
	OutputEndColumn   string   `mapstructure:"output_end_column"`
	FirstOutputRow    int      `mapstructure:"first_output_row"`
	Pages             []string `mapstructure:"pages"`
}

// GrobidConfig addresses the document-parsing service.
type GrobidConfig struct {
	Scheme         string `mapstructure:"scheme"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HTTPConfig configures PDF downloads.
type HTTPConfig struct {
	DownloadTimeoutSeconds int    `mapstructure:"download_timeout_seconds"`
	UserAgent              string `mapstructure:"user_agent"`
	MaxBodyBytes           int    `mapstructure:"max_body_bytes"`
}

// PageCountConfig controls temporary staging for the fallback PDF reader.
type PageCountConfig struct {
	StagingDir string `mapstructure:"staging_dir"`
}

// ProgressConfig controls the per-row progress log line.
type ProgressConfig struct {
	DisplayWidth int `mapstructure:"display_width"`
}

// PubSubConfig holds metadata for progress event publication. Publishing is
// enabled when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig exposes and exports Prometheus metrics.
type MetricsConfig struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// unsetKeys have no default, so AutomaticEnv alone would not surface them to Unmarshal.
var unsetKeys = []string{
	"sheet.spreadsheet_id",
	"sheet.credentials_file",
	"sheet.workbook_path",
	"sheet.url_column",
	"sheet.status_column",
	"sheet.output_start_column",
	"sheet.output_end_column",
	"sheet.first_output_row",
	"grobid.host",
	"pagecount.staging_dir",
	"pubsub.project_id",
	"pubsub.topic_name",
	"metrics.listen_addr",
	"metrics.pushgateway_url",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range unsetKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sheet.backend", BackendGoogle)
	v.SetDefault("sheet.pages", []string{"1.1", "1.2", "2.1", "2.2"})
	v.SetDefault("grobid.scheme", "http")
	v.SetDefault("grobid.port", 8070)
	v.SetDefault("grobid.timeout_seconds", 60)
	v.SetDefault("http.download_timeout_seconds", 30)
	v.SetDefault("http.user_agent", "citesync/0.1")
	v.SetDefault("http.max_body_bytes", 64<<20)
	v.SetDefault("progress.display_width", 50)
	v.SetDefault("metrics.job_name", "citesync")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.Sheet.Backend {
	case BackendGoogle:
		if c.Sheet.SpreadsheetID == "" {
			return fmt.Errorf("sheet.spreadsheet_id is required for the google backend")
		}
		if c.Sheet.CredentialsFile == "" {
			return fmt.Errorf("sheet.credentials_file is required for the google backend")
		}
	case BackendXLSX:
		if c.Sheet.WorkbookPath == "" {
			return fmt.Errorf("sheet.workbook_path is required for the xlsx backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("sheet.backend must be one of google, xlsx, memory; got %q", c.Sheet.Backend)
	}
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("sheet layout: %w", err)
	}
	if len(c.Sheet.Pages) == 0 {
		return fmt.Errorf("sheet.pages must list at least one page")
	}
	for _, p := range c.Sheet.Pages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("sheet.pages must not contain blank names")
		}
	}
	if c.Grobid.Host == "" {
		return fmt.Errorf("grobid.host is required")
	}
	if c.Grobid.Port <= 0 || c.Grobid.Port > 65535 {
		return fmt.Errorf("grobid.port must be in 1..65535")
	}
	if c.Grobid.TimeoutSeconds <= 0 {
		return fmt.Errorf("grobid.timeout_seconds must be > 0")
	}
	if c.HTTP.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("http.download_timeout_seconds must be > 0")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// Layout returns the column layout shared by every sheet page.
func (c Config) Layout() sheets.Layout {
	return sheets.Layout{
		URLColumn:         c.Sheet.URLColumn,
		StatusColumn:      c.Sheet.StatusColumn,
		OutputStartColumn: c.Sheet.OutputStartColumn,
		OutputEndColumn:   c.Sheet.OutputEndColumn,
		FirstOutputRow:    c.Sheet.FirstOutputRow,
	}
}

// GrobidTimeout is the cap on one parsing-service call.
func (c Config) GrobidTimeout() time.Duration {
	return time.Duration(c.Grobid.TimeoutSeconds) * time.Second
}

// DownloadTimeout is the cap on one PDF download.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.HTTP.DownloadTimeoutSeconds) * time.Second
}

// PublishEnabled reports whether progress events go to Pub/Sub.
func (c Config) PublishEnabled() bool {
	return c.PubSub.ProjectID != "" && c.PubSub.TopicName != ""
}
