// Package service wires the stores, the scoring core and the rating pipeline
// into the operations exposed over HTTP and run by the collector.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	ratingqueue "github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/mq/queue"
	workerpool "github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/mq/worker"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/repository"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/calendar"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/dedupe"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/schedule"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/scoring"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/metrics"

	"github.com/google/uuid"
)

// Store is everything the service reads and the rating workers write.
type Store interface {
	repository.RatingsStore
	repository.MetricsStore
	repository.RosterStore
	repository.CalendarStore
}

// Service implements the engagement dashboard operations.
type Service struct {
	mu sync.RWMutex

	store      Store
	watermarks repository.WatermarkStore
	notifier   Notifier
	aggregator *scoring.Aggregator
	matcher    *schedule.Matcher

	deduper    dedupe.Deduper
	queue      *ratingqueue.InMemoryQueue
	workerPool *workerpool.Pool
	stopPool   context.CancelFunc

	workerCount int
	queueSize   int
	dedupeSize  int
	location    *time.Location
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of rating workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the rating queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many rating ids are remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAggregator replaces the default score aggregator.
func WithAggregator(a *scoring.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithMatcher replaces the default schedule matcher.
func WithMatcher(m *schedule.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithNotifier sets where collection requests are sent.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithWatermarks sets the session claim store. By default the store is used
// if it implements repository.WatermarkStore, otherwise claims live in memory.
func WithWatermarks(w repository.WatermarkStore) Option {
	return func(s *Service) {
		if w != nil {
			s.watermarks = w
		}
	}
}

// WithLocation sets the timezone that class schedules and rating dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		aggregator:  scoring.NewAggregator(),
		matcher:     schedule.NewMatcher(),
		workerCount: runtime.NumCPU(),
		queueSize:   10000,
		dedupeSize:  50000,
		location:    time.Local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.logger.Named("notifier"))
	}
	if s.watermarks == nil {
		if w, ok := store.(repository.WatermarkStore); ok {
			s.watermarks = w
		} else {
			s.watermarks = repository.NewMemoryWatermarks()
		}
	}
	return s
}

// Start creates the rating pipeline and starts its workers. The workers
// outlive ctx; they stop only through Stop, after draining the queue.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = ratingqueue.NewInMemoryQueue(
		ratingqueue.WithCapacity(s.queueSize),
		ratingqueue.WithBufferSize(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = cancel
	s.workerPool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "engagement service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.location.String()),
	)
	return nil
}

// Stop drains the rating queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	var err error
	if s.workerPool != nil {
		err = s.workerPool.Shutdown(ctx)
	}
	// Releases workers still blocked on the store after a timed-out drain.
	if s.stopPool != nil {
		s.stopPool()
	}
	s.logger.Info(ctx, "engagement service stopped")
	return err
}

// Summaries computes the summary of every student in roster order.
func (s *Service) Summaries(ctx context.Context) ([]model.EngagementSummary, error) {
	start := time.Now()

	students, err := s.store.Students(ctx)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	ratings, snapshots := s.loadHistory(ctx, "")

	byStudent := make(map[string][]model.RatingRecord, len(students))
	for _, r := range ratings {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}
	snapsByStudent := make(map[string][]model.MetricsSnapshot, len(students))
	for _, m := range snapshots {
		snapsByStudent[m.StudentID] = append(snapsByStudent[m.StudentID], m)
	}

	out := make([]model.EngagementSummary, 0, len(students))
	for _, st := range students {
		out = append(out, s.aggregator.ComputeSummary(st.ID, st.Name(), byStudent[st.ID], snapsByStudent[st.ID]))
	}

	metrics.RecordSummariesComputed(len(out))
	metrics.RecordSummaryLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateStudentsTracked(len(students))
	return out, nil
}

// Summary computes one student's summary. Unknown students are ErrNotFound.
func (s *Service) Summary(ctx context.Context, studentID string) (model.EngagementSummary, error) {
	st, err := s.store.Student(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.EngagementSummary{}, fmt.Errorf("%w: %s", ErrNotFound, studentID)
	}
	if err != nil {
		return model.EngagementSummary{}, fmt.Errorf("load student: %w", err)
	}
	ratings, snapshots := s.loadHistory(ctx, studentID)
	metrics.RecordSummariesComputed(1)
	return s.aggregator.ComputeSummary(st.ID, st.Name(), ratings, snapshots), nil
}

// loadHistory reads and normalizes ratings and metrics. Rows that fail to
// parse are logged, counted and skipped. A source that cannot be read at all
// is treated as empty so every student still gets a neutral summary.
func (s *Service) loadHistory(ctx context.Context, studentID string) ([]model.RatingRecord, []model.MetricsSnapshot) {
	rawRatings, err := s.store.ReadRatings(ctx, studentID)
	if err != nil {
		s.sourceFailed(ctx, scoring.SourceRatings, err)
		rawRatings = nil
	}
	rawMetrics, err := s.store.ReadMetrics(ctx, studentID)
	if err != nil {
		s.sourceFailed(ctx, scoring.SourceMetrics, err)
		rawMetrics = nil
	}

	ratings, badRatings := scoring.NormalizeRatings(rawRatings)
	snapshots, badMetrics := scoring.NormalizeMetrics(rawMetrics)
	s.reportSkipped(ctx, scoring.SourceRatings, badRatings)
	s.reportSkipped(ctx, scoring.SourceMetrics, badMetrics)
	return ratings, snapshots
}

// sourceFailed logs and counts a store read that the caller degrades to empty.
func (s *Service) sourceFailed(ctx context.Context, source string, err error) {
	metrics.RecordErrorByComponent("service", "load_"+source)
	s.logger.Error(ctx, "source unavailable, continuing without it",
		logger.String("source", source), logger.Error(err))
}

func (s *Service) reportSkipped(ctx context.Context, source string, errs []error) {
	if len(errs) == 0 {
		return
	}
	metrics.RecordInvalidRecords(source, len(errs))
	for _, err := range errs {
		s.logger.Warn(ctx, "skipping invalid record", logger.String("source", source), logger.Error(err))
	}
}

// Dashboard assembles the student summaries, course list and academic
// context for now. Only a failed roster read is an error; unreadable
// ratings, metrics, courses or periods degrade to empty data.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (model.Dashboard, error) {
	d := model.Dashboard{
		Students: []model.EngagementSummary{},
		Courses:  []model.CourseRef{},
	}

	students, err := s.Summaries(ctx)
	if err != nil {
		return d, err
	}
	courses, err := s.store.Courses(ctx)
	if err != nil {
		s.sourceFailed(ctx, "courses", err)
		courses = nil
	}
	periods, err := s.store.Periods(ctx)
	if err != nil {
		s.sourceFailed(ctx, "periods", err)
		periods = nil
	}

	d.Students = students
	for _, c := range courses {
		d.Courses = append(d.Courses, model.CourseRef{ID: c.ID, Name: c.Name})
	}
	d.AcademicContext = calendar.ContextFor(periods, now.In(s.location))
	return d, nil
}

// SubmitRating validates r and queues it for persistence. A missing id gets a
// fresh UUID; a missing date or time is taken from the clock. duplicate is
// true when a rating with the same id was already accepted.
func (s *Service) SubmitRating(ctx context.Context, r model.RatingRecord) (duplicate bool, err error) { //nolint:gocritic // hugeParam: API payload
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}

	r, err = s.completeRating(r)
	if err != nil {
		return false, err
	}

	if s.deduper.SeenAndRecord(ctx, r.ID) {
		metrics.RecordRatingDuplicate()
		s.logger.Debug(ctx, "duplicate rating", logger.String("rating_id", r.ID))
		return true, nil
	}
	if !s.queue.Enqueue(ctx, r) {
		s.deduper.Unrecord(ctx, r.ID)
		return false, ErrBackpressure
	}
	metrics.RecordRatingAccepted()
	return false, nil
}

func (s *Service) completeRating(r model.RatingRecord) (model.RatingRecord, error) { //nolint:gocritic // hugeParam: API payload
	r.ID = strings.TrimSpace(r.ID)
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.FacultyID = strings.TrimSpace(r.FacultyID)

	switch {
	case r.StudentID == "":
		return r, fmt.Errorf("%w: student_id is required", ErrInvalidRating)
	case r.CourseID == "":
		return r, fmt.Errorf("%w: course_id is required", ErrInvalidRating)
	case r.FacultyID == "":
		return r, fmt.Errorf("%w: faculty_id is required", ErrInvalidRating)
	case !scoring.ValidScore(r.Score):
		return r, fmt.Errorf("%w: score %d is outside 0..10", ErrInvalidRating, r.Score)
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := s.now().In(s.location)
	if r.Date == "" {
		r.Date = now.Format(model.DateLayout)
		if r.Time == "" {
			r.Time = now.Format(model.TimeLayout)
		}
	}

	// Round-trip through the parser so stored rows are canonical.
	parsed, err := scoring.ParseRating(model.RawRating{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		FacultyID: r.FacultyID,
		Date:      r.Date,
		Time:      r.Time,
		Score:     fmt.Sprint(r.Score),
		Notes:     deref(r.Notes),
	})
	if err != nil {
		return r, fmt.Errorf("%w: %w", ErrInvalidRating, err)
	}
	return parsed, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"timezone":    s.location.String(),
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["seenRatings"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)
	}
	if counter, ok := s.store.(interface {
		Counts(ctx context.Context) (map[string]int, error)
	}); ok {
		if counts, err := counter.Counts(ctx); err == nil {
			stats["tables"] = counts
		} else {
			s.logger.Warn(ctx, "table counts unavailable", logger.Error(err))
		}
	}
	return stats
}
