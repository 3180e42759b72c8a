package api

import (
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/schedule"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithMatcher sets the schedule matcher used by the schedule check route.
func WithMatcher(m *schedule.Matcher) Option {
	return func(s *Server) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithRequestTimeout bounds how long a single request may run.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for the API.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
