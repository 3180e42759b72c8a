package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// SQLStore implements every store interface over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

var (
	_ RatingsStore   = (*SQLStore)(nil)
	_ MetricsStore   = (*SQLStore)(nil)
	_ RosterStore    = (*SQLStore)(nil)
	_ CalendarStore  = (*SQLStore)(nil)
	_ WatermarkStore = (*SQLStore)(nil)
)

// Open opens the database for driver and wraps it in a SQLStore.
func Open(ctx context.Context, driver Driver, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, driver, opts...), nil
}

// NewSQLStore wraps an open database whose schema already exists.
func NewSQLStore(db *sql.DB, driver Driver, opts ...Option) *SQLStore {
	s := &SQLStore{db: db, driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) ReadRatings(ctx context.Context, studentID string) ([]model.RawRating, error) {
	q := `SELECT id, student_id, course_id, faculty_id, score, rating_date, rating_time, notes FROM ratings`
	var args []any
	if studentID != "" {
		q += ` WHERE student_id = $1`
		args = append(args, studentID)
	}
	q += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	defer rows.Close()

	var out []model.RawRating
	for rows.Next() {
		var (
			r     model.RawRating
			notes sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.FacultyID, &r.Score, &r.Date, &r.Time, &notes); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.Notes = notes.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendRating(ctx context.Context, r model.RatingRecord) error { //nolint:gocritic // hugeParam: value mirrors the queue payload
	var notes sql.NullString
	if r.Notes != nil {
		notes = sql.NullString{String: *r.Notes, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ratings (id, student_id, course_id, faculty_id, score, rating_date, rating_time, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.StudentID, r.CourseID, r.FacultyID, strconv.Itoa(r.Score), r.Date, r.Time, notes)
	if err != nil {
		return fmt.Errorf("append rating: %w", err)
	}
	return nil
}

// AppendRawRating stores a rating row as given, without validation. Used to
// import legacy rows.
func (s *SQLStore) AppendRawRating(ctx context.Context, r model.RawRating) error {
	var notes sql.NullString
	if r.Notes != "" {
		notes = sql.NullString{String: r.Notes, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ratings (id, student_id, course_id, faculty_id, score, rating_date, rating_time, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.StudentID, r.CourseID, r.FacultyID, r.Score, r.Date, r.Time, notes)
	if err != nil {
		return fmt.Errorf("append raw rating: %w", err)
	}
	return nil
}

func (s *SQLStore) ReadMetrics(ctx context.Context, studentID string) ([]model.RawMetrics, error) {
	q := `SELECT student_id, snapshot_date, attendance_percent, assignment_completion,
  login_frequency, discussion_participation, average_grade FROM metrics`
	var args []any
	if studentID != "" {
		q += ` WHERE student_id = $1`
		args = append(args, studentID)
	}
	q += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	defer rows.Close()

	var out []model.RawMetrics
	for rows.Next() {
		var m model.RawMetrics
		var attendance, assignments, login, discussion, grade sql.NullString
		if err := rows.Scan(&m.StudentID, &m.Date, &attendance, &assignments, &login, &discussion, &grade); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m.AttendancePercent = attendance.String
		m.AssignmentCompletion = assignments.String
		m.LoginFrequency = login.String
		m.DiscussionParticipation = discussion.String
		m.AverageGrade = grade.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// PutMetrics appends a snapshot. Nil fields are stored as NULL.
func (s *SQLStore) PutMetrics(ctx context.Context, m model.MetricsSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO metrics (student_id, snapshot_date, attendance_percent, assignment_completion,
  login_frequency, discussion_participation, average_grade)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.StudentID, m.Date,
		floatCell(m.AttendancePercent), floatCell(m.AssignmentCompletionPercent),
		floatCell(m.LoginFrequency), floatCell(m.DiscussionParticipation), floatCell(m.AverageGrade))
	if err != nil {
		return fmt.Errorf("put metrics: %w", err)
	}
	return nil
}

func floatCell(v *float64) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatFloat(*v, 'f', -1, 64), Valid: true}
}

const studentColumns = `id, first_name, last_name, email, program`

func (s *SQLStore) Students(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read students: %w", err)
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.FirstName, &st.LastName, &st.Email, &st.Program); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) Student(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	err := s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id).
		Scan(&st.ID, &st.FirstName, &st.LastName, &st.Email, &st.Program)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("read student: %w", err)
	}
	return st, nil
}

// PutStudent inserts or updates a student, keeping its roster position.
func (s *SQLStore) PutStudent(ctx context.Context, st model.Student) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO students (id, first_name, last_name, email, program)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  first_name = excluded.first_name,
  last_name = excluded.last_name,
  email = excluded.email,
  program = excluded.program`,
		st.ID, st.FirstName, st.LastName, st.Email, st.Program)
	if err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

func (s *SQLStore) Courses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, faculty_id, faculty_name, faculty_email, schedule, program, module
FROM courses ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}
	defer rows.Close()

	var out []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.FacultyID, &c.FacultyName, &c.FacultyEmail, &c.Schedule, &c.Program, &c.Module); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PutCourse inserts or updates a course.
func (s *SQLStore) PutCourse(ctx context.Context, c model.Course) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO courses (id, name, faculty_id, faculty_name, faculty_email, schedule, program, module)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  name = excluded.name,
  faculty_id = excluded.faculty_id,
  faculty_name = excluded.faculty_name,
  faculty_email = excluded.faculty_email,
  schedule = excluded.schedule,
  program = excluded.program,
  module = excluded.module`,
		c.ID, c.Name, c.FacultyID, c.FacultyName, c.FacultyEmail, c.Schedule, c.Program, c.Module)
	if err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	return nil
}

func (s *SQLStore) Enrollments(ctx context.Context) ([]model.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT student_id, course_id FROM enrollments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read enrollments: %w", err)
	}
	defer rows.Close()

	var out []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseID); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutEnrollment records that a student takes a course. Repeats are ignored.
func (s *SQLStore) PutEnrollment(ctx context.Context, e model.Enrollment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO enrollments (student_id, course_id) VALUES ($1, $2)
ON CONFLICT (student_id, course_id) DO NOTHING`, e.StudentID, e.CourseID)
	if err != nil {
		return fmt.Errorf("put enrollment: %w", err)
	}
	return nil
}

func (s *SQLStore) Periods(ctx context.Context) ([]model.AcademicPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT trimester_id, start_date, end_date, week_number, unit_number, is_summative, is_break
FROM periods ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read periods: %w", err)
	}
	defer rows.Close()

	var out []model.AcademicPeriod
	for rows.Next() {
		var (
			p                model.AcademicPeriod
			start, end       string
			summative, isBrk int64
		)
		if err := rows.Scan(&p.TrimesterID, &start, &end, &p.WeekNumber, &p.UnitNumber, &summative, &isBrk); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		if p.StartDate, err = time.Parse(model.DateLayout, start); err != nil {
			return nil, fmt.Errorf("period start %q: %w", start, err)
		}
		if p.EndDate, err = time.Parse(model.DateLayout, end); err != nil {
			return nil, fmt.Errorf("period end %q: %w", end, err)
		}
		p.IsSummative = summative != 0
		p.IsBreak = isBrk != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// PutPeriod appends a teaching period.
func (s *SQLStore) PutPeriod(ctx context.Context, p model.AcademicPeriod) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO periods (trimester_id, start_date, end_date, week_number, unit_number, is_summative, is_break)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.TrimesterID, p.StartDate.Format(model.DateLayout), p.EndDate.Format(model.DateLayout),
		p.WeekNumber, p.UnitNumber, boolCell(p.IsSummative), boolCell(p.IsBreak))
	if err != nil {
		return fmt.Errorf("put period: %w", err)
	}
	return nil
}

func boolCell(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLStore) Claim(ctx context.Context, courseID, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO watermarks (course_id, session_date, claimed_at) VALUES ($1, $2, $3)
ON CONFLICT (course_id, session_date) DO NOTHING`, courseID, date, s.now().Unix())
	if err != nil {
		return false, fmt.Errorf("claim watermark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim watermark: %w", err)
	}
	return n == 1, nil
}

func (s *SQLStore) Release(ctx context.Context, courseID, date string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM watermarks WHERE course_id = $1 AND session_date = $2`, courseID, date); err != nil {
		return fmt.Errorf("release watermark: %w", err)
	}
	return nil
}

// Counts reports table sizes for stats.
func (s *SQLStore) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, 5)
	for _, table := range []string{"students", "courses", "ratings", "metrics", "periods"} {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
