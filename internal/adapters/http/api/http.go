// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/schedule"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const defaultRequestTimeout = 30 * time.Second

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Summaries(ctx context.Context) ([]model.EngagementSummary, error)
	Summary(ctx context.Context, studentID string) (model.EngagementSummary, error)
	Dashboard(ctx context.Context, now time.Time) (model.Dashboard, error)

	// SubmitRating queues a rating. duplicate reports an already accepted id.
	SubmitRating(ctx context.Context, r model.RatingRecord) (duplicate bool, err error)

	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps Dependencies

	matcher        *schedule.Matcher
	corsOrigins    []string
	requestTimeout time.Duration
	now            func() time.Time
	logger         logger.Logger

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	summaryHandler   *SummaryHandler
	ratingsHandler   *RatingsHandler
	scheduleHandler  *ScheduleHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		matcher:        schedule.NewMatcher(),
		corsOrigins:    []string{"http://localhost:3000"},
		requestTimeout: defaultRequestTimeout,
		now:            time.Now,
		logger:         logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.dashboardHandler = NewDashboardHandler(deps, s.now, s.logger)
	s.summaryHandler = NewSummaryHandler(deps)
	s.ratingsHandler = NewRatingsHandler(deps)
	s.scheduleHandler = NewScheduleHandler(s.matcher, s.now)
	return s
}

// Router builds the chi router with every route attached. Callers may add
// further routes to the result.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
		ar.Get("/students", MetricsMiddleware(s.summaryHandler.HandleList, "students"))
		ar.Get("/students/{id}/summary", MetricsMiddleware(s.summaryHandler.HandleGet, "summary"))
		ar.Post("/ratings", MetricsMiddleware(s.ratingsHandler.HandlePostRating, "ratings"))
		ar.Get("/schedule/check", MetricsMiddleware(s.scheduleHandler.HandleCheck, "schedule_check"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
