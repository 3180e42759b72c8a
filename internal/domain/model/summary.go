package model

// EngagementSummary is the derived per-student view rendered by the dashboard.
type EngagementSummary struct {
	StudentID      string         `json:"id"`
	Name           string         `json:"name"`
	CurrentScore   float64        `json:"currentScore"`
	FacultyScore   float64        `json:"facultyScore"`
	ObjectiveScore float64        `json:"objectiveScore"`
	Trend          float64        `json:"trend"`
	TrendSeries    []TrendPoint   `json:"trendSeries"`
	Display        DisplayMetrics `json:"canvasMetrics"`
}

// TrendPoint is one rating on the trend chart.
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// DisplayMetrics are the platform components rounded and capped at 10 for display.
type DisplayMetrics struct {
	Attendance  int `json:"attendance"`
	Assignments int `json:"assignments"`
	Engagement  int `json:"engagement"`
	Grades      int `json:"grades"`
}

// Dashboard is everything the front page renders.
type Dashboard struct {
	Students        []EngagementSummary `json:"students"`
	Courses         []CourseRef         `json:"courses"`
	AcademicContext AcademicContext     `json:"academicContext"`
}
