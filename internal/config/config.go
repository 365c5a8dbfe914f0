// Package config provides centralized configuration management for the scorer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Ingest   IngestConfig
	Scoring  ScoringConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds persistence settings. Results are only persisted
// when URL is set or the driver is sqlite.
type DatabaseConfig struct {
	// URL is the connection string. Supports both DATABASE_URL and DB_URL.
	// Empty disables persistence for postgres; sqlite falls back to a local file.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Driver is sqlite or postgres (default: sqlite)
	Driver string `env:"DB_DRIVER" default:"sqlite"`

	// Persist enables writing results to the database (default: false)
	Persist bool `env:"DB_PERSIST" default:"false"`

	// MaxOpenConns caps the postgres connection pool (default: 10)
	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" default:"10"`
}

// IngestConfig holds file processing settings.
type IngestConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of files processed in parallel (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a file waits for a processing slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds the processing of a single file (default: 5m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"5m"`

	// HeaderSearchRows is how many leading rows are searched for the header (default: 10)
	HeaderSearchRows int `env:"INGEST_HEADER_SEARCH_ROWS" default:"10"`

	// MeetName names the meet sheet results are stored under (default: Dryland)
	MeetName string `env:"INGEST_MEET_NAME" default:"Dryland"`
}

// ScoringConfig holds point table settings.
type ScoringConfig struct {
	// TablesPath is the YAML or JSON point table file (required)
	TablesPath string `env:"SCORING_TABLES_PATH" default:"point_tables.yaml"`

	// BoundaryPolicy is clamp or extrapolate (default: clamp)
	BoundaryPolicy string `env:"SCORING_BOUNDARY_POLICY" default:"clamp"`

	// PenaltyPerUnit is the clamp penalty past the worst tabled value (default: 10)
	PenaltyPerUnit float64 `env:"SCORING_PENALTY_PER_UNIT" default:"10"`

	// RawScoreFallback reports raw dryland scores as points when a lookup gives 0
	RawScoreFallback bool `env:"SCORING_RAW_SCORE_FALLBACK" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	// Enabled serves /metrics while files are processed (default: false)
	Enabled bool `env:"METRICS_ENABLED" default:"false"`

	// Addr is the metrics listen address (default: :9090)
	Addr string `env:"METRICS_ADDR" default:":9090"`
}
