package service_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/repository"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// memStore is an in-memory service.Store for tests.
type memStore struct {
	mu          sync.Mutex
	ratings     []model.RawRating
	metrics     []model.RawMetrics
	students    []model.Student
	courses     []model.Course
	enrollments []model.Enrollment
	periods     []model.AcademicPeriod

	failWith   error
	failOn     map[string]error // per-source failures keyed by "ratings", "metrics", "students", "courses", "periods"
	appendGate chan struct{}
	appended   chan model.RatingRecord
}

func newMemStore() *memStore {
	return &memStore{appended: make(chan model.RatingRecord, 100)}
}

// readErr returns the failure configured for source, if any. Callers hold m.mu.
func (m *memStore) readErr(source string) error {
	if m.failWith != nil {
		return m.failWith
	}
	return m.failOn[source]
}

func (m *memStore) ReadRatings(_ context.Context, studentID string) ([]model.RawRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr("ratings"); err != nil {
		return nil, err
	}
	var out []model.RawRating
	for _, r := range m.ratings {
		if studentID == "" || r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) AppendRating(_ context.Context, r model.RatingRecord) error {
	if m.appendGate != nil {
		<-m.appendGate
	}
	m.mu.Lock()
	raw := model.RawRating{
		ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, FacultyID: r.FacultyID,
		Date: r.Date, Time: r.Time, Score: strconv.Itoa(r.Score),
	}
	if r.Notes != nil {
		raw.Notes = *r.Notes
	}
	m.ratings = append(m.ratings, raw)
	m.mu.Unlock()
	m.appended <- r
	return nil
}

func (m *memStore) ReadMetrics(_ context.Context, studentID string) ([]model.RawMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr("metrics"); err != nil {
		return nil, err
	}
	var out []model.RawMetrics
	for _, r := range m.metrics {
		if studentID == "" || r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Students(context.Context) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr("students"); err != nil {
		return nil, err
	}
	return append([]model.Student(nil), m.students...), nil
}

func (m *memStore) Student(_ context.Context, id string) (model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.students {
		if st.ID == id {
			return st, nil
		}
	}
	return model.Student{}, fmt.Errorf("student %s: %w", id, repository.ErrNotFound)
}

func (m *memStore) Courses(context.Context) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr("courses"); err != nil {
		return nil, err
	}
	return append([]model.Course(nil), m.courses...), nil
}

func (m *memStore) Enrollments(context.Context) ([]model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Enrollment(nil), m.enrollments...), nil
}

func (m *memStore) Periods(context.Context) ([]model.AcademicPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr("periods"); err != nil {
		return nil, err
	}
	return append([]model.AcademicPeriod(nil), m.periods...), nil
}

// recordingNotifier captures requests and can be told to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	requests []model.CollectionRequest
	fail     error
}

func (n *recordingNotifier) Notify(_ context.Context, req model.CollectionRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.requests = append(n.requests, req)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.requests)
}
