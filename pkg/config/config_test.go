package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/crqscan/pkg/config"
)

func writeYAML(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".crqscan.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCheckpointPath, cfg.Checkpoint.Path)
	assert.Equal(t, config.DefaultSkipVendored, cfg.Scan.SkipVendored)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, config.DefaultLogMaxSizeMB, cfg.Logging.MaxSizeMB)
	assert.Equal(t, config.DefaultLogMaxBackups, cfg.Logging.MaxBackups)
	assert.Equal(t, config.DefaultLogMaxAgeDays, cfg.Logging.MaxAgeDays)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, config.DefaultArticleDir, cfg.Documents.ArticleDir)
	assert.Equal(t, config.DefaultEntityDir, cfg.Documents.EntityDir)
	assert.Equal(t, config.DefaultCacheEntries, cfg.Documents.CacheEntries)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	path := writeYAML(t, map[string]any{
		"checkpoint": map[string]any{"path": "/var/lib/crqscan/state.json"},
		"scan":       map[string]any{"skip_vendored": true},
		"logging": map[string]any{
			"level":    "debug",
			"format":   "json",
			"file":     "/var/log/crqscan.log",
			"max_size": 10,
			"compress": true,
		},
		"telemetry": map[string]any{
			"otlp_endpoint": "localhost:4317",
			"otlp_insecure": true,
			"otlp_headers":  "api-key=x",
			"sample_ratio":  0.5,
		},
		"documents": map[string]any{"cache_entries": 0},
	})

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/crqscan/state.json", cfg.Checkpoint.Path)
	assert.True(t, cfg.Scan.SkipVendored)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "/var/log/crqscan.log", cfg.Logging.File)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.True(t, cfg.Logging.Compress)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, "api-key=x", cfg.Telemetry.OTLPHeaders)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Zero(t, cfg.Documents.CacheEntries)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, map[string]any{
		"logging": map[string]any{"level": "warn"},
	})

	t.Setenv("CRQSCAN_LOGGING_LEVEL", "error")
	t.Setenv("CRQSCAN_CHECKPOINT_PATH", "state/cp.json")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "state/cp.json", cfg.Checkpoint.Path)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o600))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  map[string]any
		want error
	}{
		{name: "empty checkpoint path", doc: map[string]any{"checkpoint": map[string]any{"path": " "}}, want: config.ErrEmptyCheckpointPath},
		{name: "log level", doc: map[string]any{"logging": map[string]any{"level": "loud"}}, want: config.ErrInvalidLogLevel},
		{name: "log format", doc: map[string]any{"logging": map[string]any{"format": "xml"}}, want: config.ErrInvalidLogFormat},
		{name: "log rotation", doc: map[string]any{"logging": map[string]any{"max_backups": -1}}, want: config.ErrInvalidLogRotation},
		{name: "sample ratio", doc: map[string]any{"telemetry": map[string]any{"sample_ratio": 2}}, want: config.ErrInvalidSampleRatio},
		{name: "cache entries", doc: map[string]any{"documents": map[string]any{"cache_entries": -5}}, want: config.ErrInvalidCacheEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeYAML(t, tt.doc))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_AfterOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	cfg.Logging.Level = "DEBUG"
	require.NoError(t, cfg.Validate())

	cfg.Logging.Format = "yaml"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogFormat)
}
