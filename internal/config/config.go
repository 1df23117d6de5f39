// Package config provides configuration loading and validation for the
// flowfang CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidMaxRetries = errors.New("jira max retries must not be negative")
	ErrInvalidBackoff    = errors.New("jira backoff must be positive")
	ErrInvalidTimeout    = errors.New("jira timeout must be positive")
	ErrInvalidFormat     = errors.New("export format must be csv or chart")
	ErrWholeWithoutBiz   = errors.New("whole_days requires business_days")
)

// Default configuration values.
const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultCacheDir   = ".flowfang-cache"
	defaultOutputDir  = "."
	defaultFormat     = "csv"
)

// Export format names.
const (
	FormatCSV   = "csv"
	FormatChart = "chart"
)

// Config holds all configuration for the flowfang CLI.
type Config struct {
	Jira          JiraConfig          `mapstructure:"jira"`
	Workflow      WorkflowConfig      `mapstructure:"workflow"`
	Export        ExportConfig        `mapstructure:"export"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// JiraConfig holds connection settings for live retrieval.
type JiraConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	User       string        `mapstructure:"user"`
	APIToken   string        `mapstructure:"api_token"`
	JQL        string        `mapstructure:"jql"`
	CacheDir   string        `mapstructure:"cache_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// WorkflowConfig holds status-normalization settings.
type WorkflowConfig struct {
	File             string   `mapstructure:"file"`
	ClosedVocabulary []string `mapstructure:"closed_vocabulary"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	Format       string `mapstructure:"format"`
	HolidaysFile string `mapstructure:"holidays_file"`
	BusinessDays bool   `mapstructure:"business_days"`
	WholeDays    bool   `mapstructure:"whole_days"`
	Strict       bool   `mapstructure:"strict"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds OTLP export settings. An empty endpoint keeps
// telemetry providers no-op.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".flowfang")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix("FLOWFANG")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Jira defaults. Credentials default to empty so the keys are known
	// to viper and can be supplied via FLOWFANG_ environment variables.
	viperCfg.SetDefault("jira.base_url", "")
	viperCfg.SetDefault("jira.user", "")
	viperCfg.SetDefault("jira.api_token", "")
	viperCfg.SetDefault("jira.jql", "")
	viperCfg.SetDefault("jira.timeout", defaultTimeout)
	viperCfg.SetDefault("jira.max_retries", defaultMaxRetries)
	viperCfg.SetDefault("jira.backoff", defaultBackoff)
	viperCfg.SetDefault("jira.cache_dir", defaultCacheDir)

	// Export defaults.
	viperCfg.SetDefault("export.output_dir", defaultOutputDir)
	viperCfg.SetDefault("export.format", defaultFormat)
	viperCfg.SetDefault("export.business_days", false)
	viperCfg.SetDefault("export.whole_days", false)

	viperCfg.SetDefault("export.holidays_file", "")

	// Workflow defaults.
	viperCfg.SetDefault("workflow.file", "")

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	// Observability defaults.
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Jira.MaxRetries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxRetries, config.Jira.MaxRetries)
	}

	if config.Jira.Backoff <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidBackoff, config.Jira.Backoff)
	}

	if config.Jira.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, config.Jira.Timeout)
	}

	if config.Export.Format != FormatCSV && config.Export.Format != FormatChart {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Export.Format)
	}

	if config.Export.WholeDays && !config.Export.BusinessDays {
		return ErrWholeWithoutBiz
	}

	return nil
}
