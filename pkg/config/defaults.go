package config

// Scan defaults.
const (
	DefaultCheckpointPath = "cache/scan_checkpoint.json"
	DefaultSkipVendored   = false
)

// Logging defaults.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = LogFormatText
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
	DefaultLogCompress   = false
)

// Telemetry defaults.
const (
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
)

// Document store defaults.
const (
	DefaultArticleDir   = "cache/articles"
	DefaultEntityDir    = "cache/entities"
	DefaultCacheEntries = 256
)
