package seed

import (
	"fmt"
	"os"

	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

// SetupLogging initializes the global logger in the given format.
func SetupLogging(format string, verbose bool) error {
	if err := logger.InitWith(os.Stdout, format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Engagement Pulse Seed Tool
==========================

Fills a database with a sample roster, course catalog, teaching period,
weekly faculty ratings and platform snapshots.

Usage:
  go run ./cmd/seed [options]

Options:
  -driver string
        Database driver: sqlite or postgres (default "sqlite")
  -dsn string
        Database DSN (default: driver-specific local database)
  -students int
        Number of students (default 10)
  -weeks int
        Weeks of rating history (default 3)
  -seed uint
        Random seed; the same seed yields the same data (default 42)
  -url string
        Post ratings to a running service instead of writing them directly
  -workers int
        Concurrent submitters when -url is set (default 4)
  -timeout duration
        HTTP request timeout (default 10s)
  -log-format string
        Log format: text or json (default "text")
  -verbose
        Log every write
  -help
        Show this help message

Examples:
  # Seed the default local sqlite database
  go run ./cmd/seed

  # Seed postgres with a larger cohort
  go run ./cmd/seed -driver postgres -dsn postgres://pulse@localhost/pulse -students 60 -weeks 6

  # Exercise the rating pipeline of a running service
  go run ./cmd/seed -url http://localhost:8080
`)
}
