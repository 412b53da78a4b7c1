// Package observability wires structured logging, OpenTelemetry tracing and scan metrics
// for the crqscan binary.
package observability

import "log/slog"

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command line run.
	ModeCLI AppMode = "cli"
	// ModeTest is used by tests that build providers directly.
	ModeTest AppMode = "test"
)

const (
	defaultServiceName        = "crqscan"
	defaultShutdownTimeoutSec = 5
)

// Default rotation limits for the optional log file.
const (
	defaultLogMaxSizeMB  = 50
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 28
)

// LogFileConfig enables writing logs to a rotating file instead of stderr.
type LogFileConfig struct {
	// Path of the active log file. Empty keeps logging on stderr.
	Path string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "dev").
	Environment string

	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio (0.0 to 1.0). Zero samples every root span.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool
	LogFile  LogFileConfig

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup: info level text logs on stderr
// and no telemetry export.
func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		Mode:        ModeCLI,
		LogLevel:    slog.LevelInfo,
		LogFile: LogFileConfig{
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
