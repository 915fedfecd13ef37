// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PEDBP_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Language is the default output language: zh or en.
	Language string `koanf:"language"`

	// Quiet suppresses the column fallback notice.
	Quiet bool `koanf:"quiet"`

	// AgePolicy decides how bare ages above 18 are read: strict or months.
	AgePolicy string `koanf:"age_policy"`

	// ReferenceTable is an optional CSV path replacing the bundled table.
	ReferenceTable string `koanf:"reference_table"`

	// Parallelism bounds the goroutines evaluating one batch.
	Parallelism int `koanf:"parallelism"`

	// JobQueueSize bounds the in-memory job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of job workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many job IDs are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// JobRetentionSeconds is how long finished jobs are kept. Zero keeps them.
	JobRetentionSeconds int `koanf:"job_retention_seconds"`

	// MaxBatchRows caps the rows accepted per request.
	MaxBatchRows int `koanf:"max_batch_rows"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Language:            "zh",
		AgePolicy:           "strict",
		Parallelism:         runtime.GOMAXPROCS(0),
		JobQueueSize:        1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		JobRetentionSeconds: 3600,
		MaxBatchRows:        100_000,
	}
}

// JobRetention returns JobRetentionSeconds as a duration.
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionSeconds) * time.Second
}
