// Package scoring computes per-student engagement summaries from faculty
// ratings and the latest learning-platform metrics snapshot.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package scoring

import (
	"math"
	"sort"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// Product constants. Overridable through Options; change them only on a product decision.
const (
	DefaultFacultyWeight     = 0.6
	DefaultObjectiveWeight   = 0.4
	DefaultRecentWindow      = 3
	DefaultTrendSeriesLength = 10

	// NeutralScore stands in for any score or component with no data behind it.
	NeutralScore = 5.0

	maxDisplayMetric  = 10
	percentScale      = 10.0
	loginDivisor      = 1.4
	discussionDivisor = 0.8
	weightTolerance   = 1e-9
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeights sets the faculty/objective blend. Ignored unless both are
// non-negative and sum to 1.
func WithWeights(faculty, objective float64) Option {
	return func(a *Aggregator) {
		if faculty < 0 || objective < 0 || math.Abs(faculty+objective-1) > weightTolerance {
			return
		}
		a.facultyWeight = faculty
		a.objectiveWeight = objective
	}
}

// WithRecentWindow sets how many of the latest ratings make up the faculty score.
func WithRecentWindow(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.recentWindow = n
		}
	}
}

// WithTrendSeriesLength sets how many ratings are returned for charting.
func WithTrendSeriesLength(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.seriesLength = n
		}
	}
}

// Aggregator turns raw histories into an EngagementSummary.
type Aggregator struct {
	facultyWeight   float64
	objectiveWeight float64
	recentWindow    int
	seriesLength    int
}

// NewAggregator creates an aggregator with the product defaults.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		facultyWeight:   DefaultFacultyWeight,
		objectiveWeight: DefaultObjectiveWeight,
		recentWindow:    DefaultRecentWindow,
		seriesLength:    DefaultTrendSeriesLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Components are the four platform-derived sub-scores on a 0-10 scale, unclamped.
type Components struct {
	Attendance  float64
	Assignments float64
	Engagement  float64
	Grades      float64
}

// Objective is the mean of the four components.
func (c Components) Objective() float64 {
	return (c.Attendance + c.Assignments + c.Engagement + c.Grades) / 4
}

// Display rounds each component and caps it at 10.
func (c Components) Display() model.DisplayMetrics {
	return model.DisplayMetrics{
		Attendance:  displayValue(c.Attendance),
		Assignments: displayValue(c.Assignments),
		Engagement:  displayValue(c.Engagement),
		Grades:      displayValue(c.Grades),
	}
}

func displayValue(x float64) int {
	return int(math.Min(maxDisplayMetric, math.Round(x)))
}

// neutralComponents is what a student without any snapshot gets.
var neutralComponents = Components{
	Attendance:  NeutralScore,
	Assignments: NeutralScore,
	Engagement:  NeutralScore,
	Grades:      NeutralScore,
}

// Window is the half-open index range [Start, End) over a sorted rating slice.
type Window struct {
	Start int
	End   int
}

// Len returns the number of items in the window.
func (w Window) Len() int { return w.End - w.Start }

// Windows splits a sorted sequence of n items into the recent window (the last
// size items) and the previous window (the size items immediately before it).
// Either window is shorter, or empty, when n is too small.
func Windows(n, size int) (recent, previous Window) {
	recentStart := max(0, n-size)
	recent = Window{Start: recentStart, End: n}
	previous = Window{Start: max(0, recentStart-size), End: recentStart}
	return recent, previous
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ComputeSummary builds the summary for studentID. Ratings and snapshots of
// other students are ignored; missing data falls back to NeutralScore.
func (a *Aggregator) ComputeSummary(studentID, name string, ratings []model.RatingRecord, snapshots []model.MetricsSnapshot) model.EngagementSummary {
	sorted := SortedRatings(studentID, ratings)

	faculty, previous := a.FacultyScores(sorted)
	comps := LatestComponents(studentID, snapshots)
	objective := comps.Objective()

	return model.EngagementSummary{
		StudentID:      studentID,
		Name:           name,
		CurrentScore:   Round1(faculty*a.facultyWeight + objective*a.objectiveWeight),
		FacultyScore:   Round1(faculty),
		ObjectiveScore: Round1(objective),
		Trend:          Round1(faculty - previous),
		TrendSeries:    a.TrendSeries(sorted),
		Display:        comps.Display(),
	}
}

// SortedRatings returns the ratings of studentID ordered by (date, time),
// keeping source order for ties.
func SortedRatings(studentID string, ratings []model.RatingRecord) []model.RatingRecord {
	out := make([]model.RatingRecord, 0, len(ratings))
	for _, r := range ratings {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FacultyScores returns the mean of the recent window and of the window before
// it. An empty recent window yields NeutralScore; an empty previous window
// yields the recent score so the trend reads as stable.
func (a *Aggregator) FacultyScores(sorted []model.RatingRecord) (faculty, previous float64) {
	recent, prior := Windows(len(sorted), a.recentWindow)
	faculty = meanScore(sorted, recent, NeutralScore)
	previous = meanScore(sorted, prior, faculty)
	return faculty, previous
}

func meanScore(sorted []model.RatingRecord, w Window, fallback float64) float64 {
	if w.Len() == 0 {
		return fallback
	}
	sum := 0
	for _, r := range sorted[w.Start:w.End] {
		sum += r.Score
	}
	return float64(sum) / float64(w.Len())
}

// TrendSeries returns the last ratings as chart points, oldest first.
func (a *Aggregator) TrendSeries(sorted []model.RatingRecord) []model.TrendPoint {
	start := max(0, len(sorted)-a.seriesLength)
	points := make([]model.TrendPoint, 0, len(sorted)-start)
	for _, r := range sorted[start:] {
		points = append(points, model.TrendPoint{Date: r.Date, Score: r.Score})
	}
	return points
}

// LatestComponents derives the platform components from the most recent
// snapshot of studentID. Without a snapshot every component is neutral.
func LatestComponents(studentID string, snapshots []model.MetricsSnapshot) Components {
	latest, ok := latestSnapshot(studentID, snapshots)
	if !ok {
		return neutralComponents
	}
	return ComponentsOf(latest)
}

func latestSnapshot(studentID string, snapshots []model.MetricsSnapshot) (model.MetricsSnapshot, bool) {
	var (
		latest model.MetricsSnapshot
		found  bool
	)
	// >= keeps the last of equal dates, matching a stable ascending sort.
	for _, s := range snapshots {
		if s.StudentID != studentID {
			continue
		}
		if !found || s.Date >= latest.Date {
			latest = s
			found = true
		}
	}
	return latest, found
}

// ComponentsOf converts one snapshot. An unreported field leaves its component neutral.
func ComponentsOf(s model.MetricsSnapshot) Components {
	c := neutralComponents
	if s.AttendancePercent != nil {
		c.Attendance = *s.AttendancePercent / percentScale
	}
	if s.AssignmentCompletionPercent != nil {
		c.Assignments = *s.AssignmentCompletionPercent / percentScale
	}
	if s.LoginFrequency != nil && s.DiscussionParticipation != nil {
		c.Engagement = (*s.LoginFrequency/loginDivisor + *s.DiscussionParticipation/discussionDivisor) / percentScale
	}
	if s.AverageGrade != nil {
		c.Grades = *s.AverageGrade / percentScale
	}
	return c
}
