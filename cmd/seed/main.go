package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/seed"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

func main() {
	var (
		driver    = flag.String("driver", "sqlite", "Database driver: sqlite or postgres")
		dsn       = flag.String("dsn", "", "Database DSN (default: driver-specific local database)")
		students  = flag.Int("students", seed.DefaultStudents, "Number of students")
		weeks     = flag.Int("weeks", seed.DefaultWeeks, "Weeks of rating history")
		seedValue = flag.Uint64("seed", seed.DefaultSeed, "Random seed")
		baseURL   = flag.String("url", "", "Post ratings to a running service at this base URL")
		workers   = flag.Int("workers", seed.DefaultWorkers, "Concurrent submitters when -url is set")
		timeout   = flag.Duration("timeout", seed.DefaultTimeout, "HTTP request timeout")
		logFormat = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Log every write")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := seed.SetupLogging(*logFormat, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &seed.Config{
		Driver:   *driver,
		DSN:      *dsn,
		Students: *students,
		Weeks:    *weeks,
		Seed:     *seedValue,
		BaseURL:  *baseURL,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
