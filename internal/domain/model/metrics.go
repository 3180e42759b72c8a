package model

// MetricsSnapshot is one learning-platform reading for a student.
// A nil field means the platform did not report it, which is not the same as zero.
type MetricsSnapshot struct {
	StudentID                   string   `json:"studentId"`
	Date                        string   `json:"date"`
	AttendancePercent           *float64 `json:"attendancePercent,omitempty"`
	AssignmentCompletionPercent *float64 `json:"assignmentCompletionPercent,omitempty"`
	LoginFrequency              *float64 `json:"loginFrequency,omitempty"`
	DiscussionParticipation     *float64 `json:"discussionParticipation,omitempty"`
	AverageGrade                *float64 `json:"averageGrade,omitempty"`
}

// RawMetrics is a platform export row with every cell as text.
type RawMetrics struct {
	StudentID               string
	Date                    string
	AttendancePercent       string
	AssignmentCompletion    string
	LoginFrequency          string
	DiscussionParticipation string
	AverageGrade            string
}

// Float returns a pointer to v, for building snapshots in code.
func Float(v float64) *float64 { return &v }
