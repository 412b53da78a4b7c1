// Package config loads crqscan settings from defaults, an optional YAML file and
// CRQSCAN_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	envPrefix      = "CRQSCAN"
	configFileName = ".crqscan"
)

// Sentinel validation errors.
var (
	ErrEmptyCheckpointPath = errors.New("checkpoint path must not be empty")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidLogRotation  = errors.New("log rotation limits must not be negative")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidCacheEntries = errors.New("document cache entries must not be negative")
)

// Config holds all crqscan configuration.
type Config struct {
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Documents  DocumentsConfig  `mapstructure:"documents"`
}

// CheckpointConfig locates the checkpoint file.
type CheckpointConfig struct {
	// Path is resolved against the repository root unless absolute.
	Path string `mapstructure:"path"`
}

// ScanConfig tunes which lines a scan considers.
type ScanConfig struct {
	SkipVendored bool `mapstructure:"skip_vendored"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// File switches logging from stderr to a rotating file.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// TelemetryConfig configures OTLP export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// DocumentsConfig locates the article and entity stores.
type DocumentsConfig struct {
	ArticleDir   string `mapstructure:"article_dir"`
	EntityDir    string `mapstructure:"entity_dir"`
	CacheEntries int    `mapstructure:"cache_entries"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, .crqscan.yaml in the working directory is used if present.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configFileName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	err := viperCfg.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("checkpoint.path", DefaultCheckpointPath)

	viperCfg.SetDefault("scan.skip_vendored", DefaultSkipVendored)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)
	viperCfg.SetDefault("logging.file", "")
	viperCfg.SetDefault("logging.max_size", DefaultLogMaxSizeMB)
	viperCfg.SetDefault("logging.max_backups", DefaultLogMaxBackups)
	viperCfg.SetDefault("logging.max_age", DefaultLogMaxAgeDays)
	viperCfg.SetDefault("logging.compress", DefaultLogCompress)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)

	viperCfg.SetDefault("documents.article_dir", DefaultArticleDir)
	viperCfg.SetDefault("documents.entity_dir", DefaultEntityDir)
	viperCfg.SetDefault("documents.cache_entries", DefaultCacheEntries)
}

// Validate checks the configuration. Command line overrides are applied to a loaded
// Config, so callers validate again after changing it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Checkpoint.Path) == "" {
		return ErrEmptyCheckpointPath
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return ErrInvalidLogRotation
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Documents.CacheEntries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheEntries, c.Documents.CacheEntries)
	}

	return nil
}
