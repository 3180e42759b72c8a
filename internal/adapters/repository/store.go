// Package repository defines the stores the service reads from and writes to,
// and provides SQL and in-memory implementations.
package repository

import (
	"context"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// RatingsStore is the append-only log of faculty ratings.
type RatingsStore interface {
	// ReadRatings returns rows in insertion order. An empty studentID reads every row.
	ReadRatings(ctx context.Context, studentID string) ([]model.RawRating, error)
	AppendRating(ctx context.Context, r model.RatingRecord) error
}

// MetricsStore holds the learning-platform export.
type MetricsStore interface {
	// ReadMetrics returns rows in insertion order. An empty studentID reads every row.
	ReadMetrics(ctx context.Context, studentID string) ([]model.RawMetrics, error)
}

// RosterStore holds students, courses and enrollments.
type RosterStore interface {
	Students(ctx context.Context) ([]model.Student, error)
	// Student returns ErrNotFound for an unknown id.
	Student(ctx context.Context, id string) (model.Student, error)
	Courses(ctx context.Context) ([]model.Course, error)
	Enrollments(ctx context.Context) ([]model.Enrollment, error)
}

// CalendarStore holds the teaching periods.
type CalendarStore interface {
	Periods(ctx context.Context) ([]model.AcademicPeriod, error)
}

// WatermarkStore remembers which class sessions already had a rating request sent.
type WatermarkStore interface {
	// Claim returns true if the (courseID, date) session was not claimed before.
	Claim(ctx context.Context, courseID, date string) (bool, error)
	// Release drops a claim so the session can be retried.
	Release(ctx context.Context, courseID, date string) error
}
