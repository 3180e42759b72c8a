// Package calendar answers questions about the teaching calendar: whether a
// date is a teaching day and which trimester, week and unit it belongs to.
package calendar

import (
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

// Lookup returns the first period whose inclusive date range holds date.
// Only calendar dates are compared; the time of day is ignored.
func Lookup(periods []model.AcademicPeriod, date time.Time) (model.AcademicPeriod, bool) {
	day := dayKey(date)
	for _, p := range periods {
		if dayKey(p.StartDate) <= day && day <= dayKey(p.EndDate) {
			return p, true
		}
	}
	return model.AcademicPeriod{}, false
}

// IsTeachingDay reports whether date is inside a period that is not a break.
func IsTeachingDay(periods []model.AcademicPeriod, date time.Time) bool {
	p, ok := Lookup(periods, date)
	return ok && !p.IsBreak
}

// ContextFor describes date. Outside every period the numbers are nil and both flags false.
func ContextFor(periods []model.AcademicPeriod, date time.Time) model.AcademicContext {
	p, ok := Lookup(periods, date)
	if !ok {
		return model.AcademicContext{}
	}
	trimester, week, unit := p.TrimesterID, p.WeekNumber, p.UnitNumber
	return model.AcademicContext{
		Trimester:   &trimester,
		Week:        &week,
		Unit:        &unit,
		IsSummative: p.IsSummative,
		IsBreak:     p.IsBreak,
	}
}

// dayKey maps a time to yyyymmdd in its own location. Period bounds are stored
// calendar dates; callers pass the queried date in the service location.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
