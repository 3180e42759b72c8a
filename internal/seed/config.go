package seed

import (
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// Config holds configuration for a seed run
type Config struct {
	Driver   string        // sqlite or postgres
	DSN      string        // empty selects the driver default
	Students int           // number of students to create
	Weeks    int           // weeks of rating history
	Seed     uint64        // random seed; equal seeds give equal datasets
	BaseURL  string        // when set, ratings are posted to this running service
	Workers  int           // concurrent HTTP submitters
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // log every write
}

// Dataset is everything a seed run writes.
type Dataset struct {
	Students    []model.Student
	Courses     []model.Course
	Enrollments []model.Enrollment
	Periods     []model.AcademicPeriod
	Ratings     []model.RatingRecord
	Metrics     []model.MetricsSnapshot
}

// ratingRequest mirrors the body of POST /api/ratings
type ratingRequest struct {
	RatingID  string `json:"rating_id"`
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	FacultyID string `json:"faculty_id"`
	Score     int    `json:"score"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// AckResponse represents the response from rating submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds seed statistics
type Stats struct {
	Students         int
	Courses          int
	Enrollments      int
	Periods          int
	RatingsGenerated int
	RatingsWritten   int
	RatingsDuplicate int
	RatingsFailed    int
	Snapshots        int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
