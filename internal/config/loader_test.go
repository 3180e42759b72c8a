package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/config"

	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PULSE_ADDR", ":9090")
			_ = os.Setenv("PULSE_QUEUE_SIZE", "500")
			_ = os.Setenv("PULSE_WORKER_COUNT", "16")
			_ = os.Setenv("PULSE_FACULTY_WEIGHT", "0.7")
			_ = os.Setenv("PULSE_OBJECTIVE_WEIGHT", "0.3")
			_ = os.Setenv("PULSE_COLLECTOR_ENABLED", "false")
			_ = os.Setenv("PULSE_CORS_ORIGINS", "https://a.example.edu, https://b.example.edu")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.FacultyWeight, convey.ShouldEqual, 0.7)
				convey.So(cfg.ObjectiveWeight, convey.ShouldEqual, 0.3)
				convey.So(cfg.CollectorEnabled, convey.ShouldBeFalse)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example.edu", "https://b.example.edu"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# deployment overrides
addr: ":7070"
db_driver: postgres
db_dsn: "postgres://pulse@localhost:5432/pulse?sslmode=disable"
recent_window: 5
class_duration_minutes: 120
timezone: UTC
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PULSE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.DBDSN, convey.ShouldStartWith, "postgres://")
				convey.So(cfg.RecentWindow, convey.ShouldEqual, 5)
				convey.So(cfg.ClassDurationMinutes, convey.ShouldEqual, 120)
				convey.So(cfg.TrendSeriesLength, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":7070\"\nworker_count: 24\nqueue_size: 300\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PULSE_CONFIG", tmpFile)
			_ = os.Setenv("PULSE_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PULSE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PULSE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PULSE_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded weights do not sum to one", func() {
			_ = os.Setenv("PULSE_FACULTY_WEIGHT", "0.9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unsupported driver", func() {
			_ = os.Setenv("PULSE_DB_DRIVER", "oracle")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "oracle")
			})
		})
	})
}

// Helper functions.

var configEnvVars = []string{
	"PULSE_CONFIG",
	"PULSE_ADDR",
	"PULSE_QUEUE_SIZE",
	"PULSE_WORKER_COUNT",
	"PULSE_FACULTY_WEIGHT",
	"PULSE_OBJECTIVE_WEIGHT",
	"PULSE_COLLECTOR_ENABLED",
	"PULSE_CORS_ORIGINS",
	"PULSE_DB_DRIVER",
}

func clearConfigEnvVars() {
	for _, envVar := range configEnvVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pulse-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
