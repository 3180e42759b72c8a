package seed

import (
	"context"
	"fmt"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

// RosterWriter stores the reference data a dashboard needs.
type RosterWriter interface {
	PutStudent(ctx context.Context, st model.Student) error
	PutCourse(ctx context.Context, c model.Course) error
	PutEnrollment(ctx context.Context, e model.Enrollment) error
	PutPeriod(ctx context.Context, p model.AcademicPeriod) error
	PutMetrics(ctx context.Context, m model.MetricsSnapshot) error
}

// RatingWriter appends ratings directly to storage.
type RatingWriter interface {
	AppendRating(ctx context.Context, r model.RatingRecord) error
}

// writeRoster writes students, courses, enrollments, periods and snapshots.
func writeRoster(ctx context.Context, w RosterWriter, ds *Dataset, stats *Stats) error {
	for _, st := range ds.Students {
		if err := w.PutStudent(ctx, st); err != nil {
			return fmt.Errorf("student %s: %w", st.ID, err)
		}
		stats.Students++
	}
	for _, c := range ds.Courses {
		if err := w.PutCourse(ctx, c); err != nil {
			return fmt.Errorf("course %s: %w", c.ID, err)
		}
		stats.Courses++
	}
	for _, e := range ds.Enrollments {
		if err := w.PutEnrollment(ctx, e); err != nil {
			return fmt.Errorf("enrollment %s/%s: %w", e.StudentID, e.CourseID, err)
		}
		stats.Enrollments++
	}
	for _, p := range ds.Periods {
		if err := w.PutPeriod(ctx, p); err != nil {
			return fmt.Errorf("period: %w", err)
		}
		stats.Periods++
	}
	for _, m := range ds.Metrics {
		if err := w.PutMetrics(ctx, m); err != nil {
			return fmt.Errorf("metrics %s: %w", m.StudentID, err)
		}
		stats.Snapshots++
	}
	logger.Get().Info(ctx, "roster written",
		logger.Int("students", stats.Students),
		logger.Int("courses", stats.Courses),
		logger.Int("enrollments", stats.Enrollments),
		logger.Int("snapshots", stats.Snapshots))
	return nil
}

// writeRatings appends every rating through w.
func writeRatings(ctx context.Context, w RatingWriter, ratings []model.RatingRecord, stats *Stats, verbose bool) error {
	for _, r := range ratings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.AppendRating(ctx, r); err != nil {
			return fmt.Errorf("rating %s: %w", r.ID, err)
		}
		stats.RatingsWritten++
		if verbose {
			logger.Get().Debug(ctx, "rating written",
				logger.String("student", r.StudentID),
				logger.String("course", r.CourseID),
				logger.Int("score", r.Score))
		}
	}
	return nil
}
