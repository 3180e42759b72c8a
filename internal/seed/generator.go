package seed

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"

	"github.com/google/uuid"
)

// Generator builds reproducible sample datasets.
type Generator struct {
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed uint64) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	src := rand.NewChaCha8(key)
	return &Generator{src: src, rng: rand.New(src)}
}

// Generate creates students, the course catalog, enrollments, a teaching
// period covering now, weekly ratings and weekly platform snapshots. Most
// students trend upward; every third trends down.
func (g *Generator) Generate(students, weeks int, now time.Time) (Dataset, error) {
	if students <= 0 {
		return Dataset{}, fmt.Errorf("students must be positive, got %d", students)
	}
	if weeks <= 0 {
		return Dataset{}, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	ds := Dataset{Courses: append([]model.Course(nil), courseCatalog...)}
	ds.Students = g.students(students)
	for _, st := range ds.Students {
		for _, c := range ds.Courses {
			ds.Enrollments = append(ds.Enrollments, model.Enrollment{StudentID: st.ID, CourseID: c.ID})
		}
	}
	ds.Periods = []model.AcademicPeriod{teachingPeriod(now, weeks)}

	for i, st := range ds.Students {
		declining := isDecliner(i)
		var sum, n int
		for week := range weeks {
			date := now.AddDate(0, 0, -(weeks-week)*daysPerWeek).Format(model.DateLayout)
			for _, c := range ds.Courses {
				id, err := uuid.NewRandomFromReader(g.src)
				if err != nil {
					return Dataset{}, fmt.Errorf("rating id: %w", err)
				}
				score := g.score(week, weeks, declining)
				sum += score
				n++
				ds.Ratings = append(ds.Ratings, model.RatingRecord{
					ID:        id.String(),
					StudentID: st.ID,
					CourseID:  c.ID,
					FacultyID: c.FacultyID,
					Date:      date,
					Time:      ratingTimeOfDay,
					Score:     score,
				})
			}
		}
		base := float64(sum) / float64(n) / 10
		for week := range weeks {
			weeksAgo := weeks - week
			date := now.AddDate(0, 0, -weeksAgo*daysPerWeek).Format(model.DateLayout)
			ds.Metrics = append(ds.Metrics, g.snapshot(st.ID, date, base, weeksAgo, declining))
		}
	}
	return ds, nil
}

func isDecliner(i int) bool { return i%declinerEvery == declinerEvery-1 }

func (g *Generator) students(n int) []model.Student {
	out := make([]model.Student, 0, n)
	seen := make(map[string]bool, n)
	for len(out) < n {
		id := fmt.Sprintf("%010d", 1_000_000_000+g.rng.IntN(2_000_000_000))
		if seen[id] {
			continue
		}
		seen[id] = true
		first := firstNames[g.rng.IntN(len(firstNames))]
		last := lastNames[g.rng.IntN(len(lastNames))]
		out = append(out, model.Student{
			ID:        id,
			FirstName: first,
			LastName:  last,
			Email:     strings.ToLower(first+"."+last) + "@students.example.edu",
			Program:   model.DefaultProgram,
		})
	}
	return out
}

// score draws from the early band for older weeks and from the improving or
// declining band for the latest week.
func (g *Generator) score(week, weeks int, declining bool) int {
	if week < weeks-1 {
		width := earlyWidth
		if week > 0 {
			width++
		}
		return earlyLow + g.rng.IntN(width)
	}
	if declining {
		return decliningLow + g.rng.IntN(lateWidth)
	}
	return improvingLow + g.rng.IntN(lateWidth)
}

func (g *Generator) snapshot(studentID, date string, base float64, weeksAgo int, declining bool) model.MetricsSnapshot {
	effect := 1 - float64(weeksAgo)*0.05
	if declining {
		effect = 1 + float64(weeksAgo)*0.1
	}
	adjusted := base * effect
	jitter := func() float64 { return 1 + (g.rng.Float64()*2-1)*metricJitter }
	pct := func() *float64 {
		v := math.Min(percentScale, math.Round(adjusted*percentScale*jitter()))
		return &v
	}
	count := func(scale float64) *float64 {
		v := math.Round(adjusted * scale * jitter())
		return &v
	}
	return model.MetricsSnapshot{
		StudentID:                   studentID,
		Date:                        date,
		AttendancePercent:           pct(),
		AssignmentCompletionPercent: pct(),
		LoginFrequency:              count(maxLoginsWeek),
		DiscussionParticipation:     count(maxPostsWeek),
		AverageGrade:                pct(),
	}
}

// teachingPeriod covers the rating history and the following month.
func teachingPeriod(now time.Time, weeks int) model.AcademicPeriod {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return model.AcademicPeriod{
		TrimesterID: 1,
		StartDate:   today.AddDate(0, 0, -weeks*daysPerWeek-1),
		EndDate:     today.AddDate(0, 0, periodTailDays),
		WeekNumber:  weeks + 1,
		UnitNumber:  1,
	}
}
