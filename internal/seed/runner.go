package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/repository"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

// Run generates a dataset and writes it. Roster data always goes straight to
// the database; ratings go through the service API when BaseURL is set.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	return RunAt(ctx, cfg, time.Now())
}

// RunAt is Run with an explicit clock.
func RunAt(ctx context.Context, cfg *Config, now time.Time) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger.Get().Info(ctx, "starting seed run",
		logger.String("driver", cfg.Driver),
		logger.Int("students", cfg.Students),
		logger.Int("weeks", cfg.Weeks),
		logger.Int64("seed", int64(cfg.Seed)),
		logger.String("baseURL", cfg.BaseURL))

	driver, err := repository.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	ds, err := NewGenerator(cfg.Seed).Generate(cfg.Students, cfg.Weeks, now)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	stats.RatingsGenerated = len(ds.Ratings)

	store, err := repository.Open(ctx, driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close store", logger.Error(err))
		}
	}()

	if err := writeRoster(ctx, store, &ds, stats); err != nil {
		return nil, fmt.Errorf("write roster: %w", err)
	}

	if cfg.BaseURL != "" {
		if err := checkServiceHealth(ctx, cfg); err != nil {
			return nil, fmt.Errorf("service health check failed: %w", err)
		}
		submitRatings(ctx, cfg, ds.Ratings, stats)
	} else if err := writeRatings(ctx, store, ds.Ratings, stats, cfg.Verbose); err != nil {
		return nil, fmt.Errorf("write ratings: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if counts, err := store.Counts(ctx); err == nil {
		logger.Get().Info(ctx, "table counts", logger.Any("tables", counts))
	}
	return stats, nil
}

// displayFinalStats logs the final seed statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var ratingsPerSecond float64
	if stats.Duration > 0 {
		ratingsPerSecond = float64(stats.RatingsWritten) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("students", stats.Students),
		logger.Int("courses", stats.Courses),
		logger.Int("enrollments", stats.Enrollments),
		logger.Int("periods", stats.Periods),
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("ratingsGenerated", stats.RatingsGenerated),
		logger.Int("ratingsWritten", stats.RatingsWritten),
		logger.Int("ratingsDuplicate", stats.RatingsDuplicate),
		logger.Int("ratingsFailed", stats.RatingsFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("ratingsPerSecond", ratingsPerSecond))
}
