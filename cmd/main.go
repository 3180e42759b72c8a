package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/http/api"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/http/swagger"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/repository"
	service "github.com/tommyjgunn-msc/student-engagement-pulse/internal/app"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/config"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/schedule"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/scoring"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Runtime metrics go on the custom registry served at /healthz.
	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger format comes from config, so it isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "engagement pulse exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	driver, err := repository.ParseDriver(cfg.DBDriver)
	if err != nil {
		return err
	}
	store, err := repository.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store failed", logger.Error(err))
		}
	}()
	log.Info(ctx, "store opened", logger.String("driver", string(driver)))

	svc, matcher, err := newService(cfg, store, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)
	if cfg.CollectorEnabled {
		go svc.StartCollector(ctx, cfg.CollectorInterval())
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, svc, matcher, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newService builds the engagement service from configuration.
func newService(cfg *config.Config, store service.Store, log logger.Logger) (*service.Service, *schedule.Matcher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	matcher := schedule.NewMatcher(
		schedule.WithClassDuration(cfg.ClassDuration()),
		schedule.WithNotifyDelay(cfg.NotifyDelay()),
		schedule.WithTolerance(cfg.NotifyTolerance()),
	)
	aggregator := scoring.NewAggregator(
		scoring.WithWeights(cfg.FacultyWeight, cfg.ObjectiveWeight),
		scoring.WithRecentWindow(cfg.RecentWindow),
		scoring.WithTrendSeriesLength(cfg.TrendSeriesLength),
	)
	svc := service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithAggregator(aggregator),
		service.WithMatcher(matcher),
		service.WithLocation(loc),
	)
	return svc, matcher, nil
}

// newRouter mounts the business API and the docs routes.
func newRouter(cfg *config.Config, svc *service.Service, matcher *schedule.Matcher, log logger.Logger) http.Handler {
	apiServer := api.NewServer(svc,
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMatcher(matcher),
		api.WithLogger(log.Named("api")),
	)
	r := apiServer.Router()
	swagger.Register(r)
	return r
}

// startServiceMetricsUpdater refreshes queue and worker gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
