package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "PULSE_"
	envConfigPath  = "PULSE_CONFIG"
	listKeyOrigins = "cors_origins"

	weightTolerance = 1e-9
)

var (
	supportedDrivers    = []string{"sqlite", "postgres"}
	supportedLogFormats = []string{"text", "json"}
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PULSE_CONFIG is set
//  3. env (prefix PULSE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PULSE_QUEUE_SIZE -> queue_size. Keys are flat, so underscores are kept.
	// List values are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == listKeyOrigins {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case !slices.Contains(supportedDrivers, c.DBDriver):
		return invalid("db_driver %q is not one of %v", c.DBDriver, supportedDrivers)
	case !slices.Contains(supportedLogFormats, c.LogFormat):
		return invalid("log_format %q is not one of %v", c.LogFormat, supportedLogFormats)
	case c.FacultyWeight < 0 || c.FacultyWeight > 1:
		return invalid("faculty_weight %v is outside [0, 1]", c.FacultyWeight)
	case c.ObjectiveWeight < 0 || c.ObjectiveWeight > 1:
		return invalid("objective_weight %v is outside [0, 1]", c.ObjectiveWeight)
	case math.Abs(c.FacultyWeight+c.ObjectiveWeight-1) > weightTolerance:
		return invalid("faculty_weight + objective_weight must equal 1, got %v", c.FacultyWeight+c.ObjectiveWeight)
	case c.RecentWindow <= 0:
		return invalid("recent_window must be positive")
	case c.TrendSeriesLength <= 0:
		return invalid("trend_series_length must be positive")
	case c.ClassDurationMinutes <= 0:
		return invalid("class_duration_minutes must be positive")
	case c.NotifyDelayMinutes < 0:
		return invalid("notify_delay_minutes must not be negative")
	case c.NotifyToleranceSeconds <= 0:
		return invalid("notify_tolerance_seconds must be positive")
	case c.CollectorIntervalSeconds <= 0:
		return invalid("collector_interval_seconds must be positive")
	case c.CollectorEnabled && c.CollectorIntervalSeconds >= 2*c.NotifyToleranceSeconds:
		// The firing window is +-tolerance around the notify time; a slower poll can step over it.
		return invalid("collector_interval_seconds %d must be below the %ds firing window (2 x notify_tolerance_seconds)",
			c.CollectorIntervalSeconds, 2*c.NotifyToleranceSeconds)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
