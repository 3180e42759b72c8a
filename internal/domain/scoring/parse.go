package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// Source labels used in InvalidRecordError and metrics.
const (
	SourceRatings = "ratings"
	SourceMetrics = "metrics"
)

const (
	minRatingScore  = 0
	maxRatingScore  = 10
	maxPercent      = 100
	shortTimeLayout = "15:04"
)

// ParseRating converts a text row into a RatingRecord. Scores must be whole
// numbers in [0, 10]; dates must be YYYY-MM-DD; the time of day is optional.
func ParseRating(raw model.RawRating) (model.RatingRecord, error) {
	studentID := strings.TrimSpace(raw.StudentID)
	if studentID == "" {
		return model.RatingRecord{}, invalid(SourceRatings, "student_id", raw.StudentID, "missing")
	}

	score, err := parseScore(raw.Score)
	if err != nil {
		return model.RatingRecord{}, invalid(SourceRatings, "score", raw.Score, err.Error())
	}

	date, err := canonicalDate(raw.Date)
	if err != nil {
		return model.RatingRecord{}, invalid(SourceRatings, "date", raw.Date, "want YYYY-MM-DD")
	}

	tod, err := canonicalTime(raw.Time)
	if err != nil {
		return model.RatingRecord{}, invalid(SourceRatings, "time", raw.Time, "want HH:MM[:SS]")
	}

	rec := model.RatingRecord{
		ID:        strings.TrimSpace(raw.ID),
		StudentID: studentID,
		CourseID:  strings.TrimSpace(raw.CourseID),
		FacultyID: strings.TrimSpace(raw.FacultyID),
		Date:      date,
		Time:      tod,
		Score:     score,
	}
	if notes := strings.TrimSpace(raw.Notes); notes != "" {
		rec.Notes = &notes
	}
	return rec, nil
}

// ValidScore reports whether score is inside the rating scale.
func ValidScore(score int) bool {
	return score >= minRatingScore && score <= maxRatingScore
}

func parseScore(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	if v != math.Trunc(v) {
		return 0, errNotWhole
	}
	score := int(v)
	if !ValidScore(score) {
		return 0, errOutOfRange
	}
	return score, nil
}

// ParseMetrics converts a platform export row into a MetricsSnapshot. Blank
// cells become nil; a non-numeric or out-of-range cell rejects the row.
func ParseMetrics(raw model.RawMetrics) (model.MetricsSnapshot, error) {
	studentID := strings.TrimSpace(raw.StudentID)
	if studentID == "" {
		return model.MetricsSnapshot{}, invalid(SourceMetrics, "student_id", raw.StudentID, "missing")
	}
	date, err := canonicalDate(raw.Date)
	if err != nil {
		return model.MetricsSnapshot{}, invalid(SourceMetrics, "date", raw.Date, "want YYYY-MM-DD")
	}

	snap := model.MetricsSnapshot{StudentID: studentID, Date: date}
	fields := []struct {
		name  string
		value string
		max   float64
		dst   **float64
	}{
		{"attendance_percent", raw.AttendancePercent, maxPercent, &snap.AttendancePercent},
		{"assignment_completion_percent", raw.AssignmentCompletion, maxPercent, &snap.AssignmentCompletionPercent},
		{"login_frequency", raw.LoginFrequency, math.Inf(1), &snap.LoginFrequency},
		{"discussion_participation", raw.DiscussionParticipation, math.Inf(1), &snap.DiscussionParticipation},
		{"average_grade", raw.AverageGrade, maxPercent, &snap.AverageGrade},
	}
	for _, f := range fields {
		v, err := optionalNumber(f.value, f.max)
		if err != nil {
			return model.MetricsSnapshot{}, invalid(SourceMetrics, f.name, f.value, err.Error())
		}
		*f.dst = v
	}
	return snap, nil
}

func optionalNumber(s string, upper float64) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, strconv.ErrSyntax
	}
	if v < 0 || v > upper {
		return nil, errOutOfRange
	}
	return &v, nil
}

func canonicalDate(s string) (string, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(model.DateLayout), nil
}

func canonicalTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{model.TimeLayout, shortTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.TimeLayout), nil
		}
	}
	return "", strconv.ErrSyntax
}

// NormalizeRatings parses every row, returning the usable records and one
// error per skipped row.
func NormalizeRatings(raws []model.RawRating) ([]model.RatingRecord, []error) {
	out := make([]model.RatingRecord, 0, len(raws))
	var skipped []error
	for _, raw := range raws {
		rec, err := ParseRating(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

// NormalizeMetrics parses every row, returning the usable snapshots and one
// error per skipped row.
func NormalizeMetrics(raws []model.RawMetrics) ([]model.MetricsSnapshot, []error) {
	out := make([]model.MetricsSnapshot, 0, len(raws))
	var skipped []error
	for _, raw := range raws {
		snap, err := ParseMetrics(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, snap)
	}
	return out, skipped
}
