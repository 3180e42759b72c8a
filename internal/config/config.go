// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and PULSE_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig; load failures wrap ErrLoadConfig.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver is sqlite or postgres; DBDSN may be empty for the driver default.
	DBDriver string `koanf:"db_driver"`
	DBDSN    string `koanf:"db_dsn"`

	// QueueSize bounds the in-memory rating queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating writers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many rating ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	FacultyWeight     float64 `koanf:"faculty_weight"`
	ObjectiveWeight   float64 `koanf:"objective_weight"`
	RecentWindow      int     `koanf:"recent_window"`
	TrendSeriesLength int     `koanf:"trend_series_length"`

	ClassDurationMinutes   int `koanf:"class_duration_minutes"`
	NotifyDelayMinutes     int `koanf:"notify_delay_minutes"`
	NotifyToleranceSeconds int `koanf:"notify_tolerance_seconds"`

	// CollectorEnabled turns on the periodic rating-request cycle.
	CollectorEnabled         bool `koanf:"collector_enabled"`
	CollectorIntervalSeconds int  `koanf:"collector_interval_seconds"`

	// Timezone is the IANA zone the institution's calendar and schedules live in.
	Timezone string `koanf:"timezone"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":8080",
		DBDriver:                 "sqlite",
		DBDSN:                    "",
		QueueSize:                10_000,
		WorkerCount:              runtime.NumCPU() * 2,
		DedupeSize:               50_000,
		FacultyWeight:            0.6,
		ObjectiveWeight:          0.4,
		RecentWindow:             3,
		TrendSeriesLength:        10,
		ClassDurationMinutes:     90,
		NotifyDelayMinutes:       5,
		NotifyToleranceSeconds:   60,
		CollectorEnabled:         true,
		CollectorIntervalSeconds: 60,
		Timezone:                 "UTC",
		CORSOrigins:              []string{"http://localhost:3000"},
	}
}

// ClassDuration returns ClassDurationMinutes as a duration.
func (c *Config) ClassDuration() time.Duration {
	return time.Duration(c.ClassDurationMinutes) * time.Minute
}

// NotifyDelay returns NotifyDelayMinutes as a duration.
func (c *Config) NotifyDelay() time.Duration {
	return time.Duration(c.NotifyDelayMinutes) * time.Minute
}

// NotifyTolerance returns NotifyToleranceSeconds as a duration.
func (c *Config) NotifyTolerance() time.Duration {
	return time.Duration(c.NotifyToleranceSeconds) * time.Second
}

// CollectorInterval returns CollectorIntervalSeconds as a duration.
func (c *Config) CollectorInterval() time.Duration {
	return time.Duration(c.CollectorIntervalSeconds) * time.Second
}

// Location loads Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
