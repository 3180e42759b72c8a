// Package model contains domain models passed between layers.
package model

// Canonical layouts for calendar dates and times of day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// RatingRecord is one faculty engagement rating for a student in a course.
// Date and Time are kept in canonical layout so lexical order is chronological.
type RatingRecord struct {
	ID        string  `json:"id"`
	StudentID string  `json:"studentId"`
	CourseID  string  `json:"courseId"`
	FacultyID string  `json:"facultyId"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Score     int     `json:"score"`
	Notes     *string `json:"notes,omitempty"`
}

// Before reports whether r was submitted strictly before o.
func (r RatingRecord) Before(o RatingRecord) bool {
	if r.Date != o.Date {
		return r.Date < o.Date
	}
	return r.Time < o.Time
}

// RawRating is a ratings row as delivered by a tabular source, every cell as text.
type RawRating struct {
	ID        string
	StudentID string
	CourseID  string
	FacultyID string
	Date      string
	Time      string
	Score     string
	Notes     string
}
