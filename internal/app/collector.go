package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/calendar"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/metrics"
)

// DefaultCollectorInterval polls well inside the two-minute firing window.
const DefaultCollectorInterval = time.Minute

// Notifier delivers a rating request to the faculty member of a course.
type Notifier interface {
	Notify(ctx context.Context, req model.CollectionRequest) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, req model.CollectionRequest) error

func (f NotifierFunc) Notify(ctx context.Context, req model.CollectionRequest) error { return f(ctx, req) }

// LogNotifier writes each request to the log instead of sending it.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier returns a notifier that logs through l.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(ctx context.Context, req model.CollectionRequest) error {
	ids := make([]string, 0, len(req.Students))
	for _, st := range req.Students {
		ids = append(ids, st.ID)
	}
	n.logger.Info(ctx, "rating request",
		logger.String("subject", Subject(req)),
		logger.String("course_id", req.Course.ID),
		logger.String("faculty_email", req.Course.FacultyEmail),
		logger.String("date", req.Date),
		logger.Any("students", ids),
		logger.Any("score_options", req.ScoreOptions),
	)
	return nil
}

// Subject is the message title for a request, e.g.
// "Student Engagement: Leadership - Trimester 2, Week 5, Unit 2".
func Subject(req model.CollectionRequest) string {
	subject := "Student Engagement: " + req.Course.Name
	c := req.Context
	if c.Trimester != nil && c.Week != nil && c.Unit != nil {
		subject += fmt.Sprintf(" - Trimester %d, Week %d, Unit %d", *c.Trimester, *c.Week, *c.Unit)
	}
	return subject
}

// CycleResult describes what one collection cycle did.
type CycleResult struct {
	Outcome  string                `json:"outcome"`
	Message  string                `json:"message"`
	Date     string                `json:"date"`
	Context  model.AcademicContext `json:"academicContext"`
	Notified []string              `json:"notified,omitempty"`
	Skipped  []string              `json:"skipped,omitempty"`
	Failed   []string              `json:"failed,omitempty"`
}

// RunCollectionCycle sends a rating request for every course whose class
// ended just before now. Each (course, date) session is notified at most once:
// the watermark is claimed before notifying and released if notifying fails.
func (s *Service) RunCollectionCycle(ctx context.Context, now time.Time) (CycleResult, error) {
	local := now.In(s.location)
	res := CycleResult{Date: local.Format(model.DateLayout)}

	periods, err := s.store.Periods(ctx)
	if err != nil {
		return s.cycleFailed(res, fmt.Errorf("load periods: %w", err))
	}
	if !calendar.IsTeachingDay(periods, local) {
		return s.cycleDone(ctx, res, metrics.CycleNotTeachingDay, "Not a teaching day"), nil
	}
	res.Context = calendar.ContextFor(periods, local)
	if res.Context.IsBreak || res.Context.IsSummative {
		return s.cycleDone(ctx, res, metrics.CycleBreakWeek, "Break or summative week"), nil
	}

	courses, err := s.store.Courses(ctx)
	if err != nil {
		return s.cycleFailed(res, fmt.Errorf("load courses: %w", err))
	}
	var ended []model.Course
	for _, c := range courses {
		if s.matcher.MatchesDay(c.Schedule, local.Weekday()) && s.matcher.JustEnded(c.Schedule, local) {
			ended = append(ended, c)
		}
	}
	if len(ended) == 0 {
		return s.cycleDone(ctx, res, metrics.CycleIdle, "No classes just ended"), nil
	}

	students, err := s.store.Students(ctx)
	if err != nil {
		return s.cycleFailed(res, fmt.Errorf("load students: %w", err))
	}
	enrollments, err := s.store.Enrollments(ctx)
	if err != nil {
		return s.cycleFailed(res, fmt.Errorf("load enrollments: %w", err))
	}

	for _, c := range ended {
		s.notifyCourse(ctx, &res, c, students, enrollments)
	}

	switch {
	case len(res.Notified) > 0:
		res.Outcome = metrics.CycleFired
	case len(res.Failed) > 0:
		res.Outcome = metrics.CycleFailed
	default:
		res.Outcome = metrics.CycleIdle
	}
	res.Message = fmt.Sprintf("Rating requests sent for %d courses", len(res.Notified))
	metrics.RecordCollectionCycle(res.Outcome)
	s.logger.Info(ctx, "collection cycle finished",
		logger.String("outcome", res.Outcome),
		logger.Int("notified", len(res.Notified)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func (s *Service) notifyCourse(ctx context.Context, res *CycleResult, c model.Course, students []model.Student, enrollments []model.Enrollment) { //nolint:gocritic // hugeParam: course is read-only
	claimed, err := s.watermarks.Claim(ctx, c.ID, res.Date)
	if err != nil {
		s.logger.Error(ctx, "claim watermark failed", logger.String("course_id", c.ID), logger.Error(err))
		res.Failed = append(res.Failed, c.ID)
		return
	}
	if !claimed {
		res.Skipped = append(res.Skipped, c.ID)
		return
	}

	req := model.CollectionRequest{
		Course:       c,
		Students:     Roster(c, students, enrollments),
		Date:         res.Date,
		Context:      res.Context,
		ScoreOptions: model.ScoreOptions,
	}
	if err := s.notifier.Notify(ctx, req); err != nil {
		metrics.RecordNotificationFailure()
		metrics.RecordErrorByComponent("collector", "notify_failed")
		s.logger.Error(ctx, "notify failed", logger.String("course_id", c.ID), logger.Error(err))
		if rerr := s.watermarks.Release(ctx, c.ID, res.Date); rerr != nil {
			s.logger.Error(ctx, "release watermark failed", logger.String("course_id", c.ID), logger.Error(rerr))
		}
		res.Failed = append(res.Failed, c.ID)
		return
	}
	metrics.RecordNotificationSent()
	res.Notified = append(res.Notified, c.ID)
}

func (s *Service) cycleDone(ctx context.Context, res CycleResult, outcome, msg string) CycleResult { //nolint:gocritic // hugeParam: returned by value
	res.Outcome = outcome
	res.Message = msg
	metrics.RecordCollectionCycle(outcome)
	s.logger.Debug(ctx, "collection cycle skipped", logger.String("outcome", outcome))
	return res
}

func (s *Service) cycleFailed(res CycleResult, err error) (CycleResult, error) { //nolint:gocritic // hugeParam: returned by value
	res.Outcome = metrics.CycleFailed
	res.Message = err.Error()
	metrics.RecordCollectionCycle(metrics.CycleFailed)
	metrics.RecordErrorByComponent("collector", "load_failed")
	return res, err
}

// Roster returns the students of c's program enrolled in c, in roster order.
func Roster(c model.Course, students []model.Student, enrollments []model.Enrollment) []model.Student { //nolint:gocritic // hugeParam: course is read-only
	enrolled := make(map[string]bool)
	for _, e := range enrollments {
		if e.CourseID == c.ID {
			enrolled[e.StudentID] = true
		}
	}
	program := c.ProgramOrDefault()
	out := []model.Student{}
	for _, st := range students {
		if st.Program == program && enrolled[st.ID] {
			out = append(out, st)
		}
	}
	return out
}

// StartCollector runs a collection cycle every interval until ctx is done.
func (s *Service) StartCollector(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCollectorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "collector started", logger.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "collector stopped")
			return
		case <-ticker.C:
			if _, err := s.RunCollectionCycle(ctx, s.now()); err != nil {
				s.logger.Error(ctx, "collection cycle failed", logger.Error(err))
			}
		}
	}
}
