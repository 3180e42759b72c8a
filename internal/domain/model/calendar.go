package model

import "time"

// AcademicPeriod is one row of the teaching calendar. Start and end are inclusive.
type AcademicPeriod struct {
	TrimesterID int       `json:"trimesterId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	WeekNumber  int       `json:"weekNumber"`
	UnitNumber  int       `json:"unitNumber"`
	IsSummative bool      `json:"isSummative"`
	IsBreak     bool      `json:"isBreak"`
}

// AcademicContext annotates a date with its place in the calendar.
// The numeric fields are nil when the date falls outside every period.
type AcademicContext struct {
	Trimester   *int `json:"trimester"`
	Week        *int `json:"week"`
	Unit        *int `json:"unit"`
	IsSummative bool `json:"isSummative"`
	IsBreak     bool `json:"isBreak"`
}

// ScoreOptions are the scores a faculty member can pick from in a rating request.
var ScoreOptions = []int{0, 2, 4, 6, 8, 10}

// CollectionRequest asks a faculty member to rate the students of a class that just ended.
type CollectionRequest struct {
	Course       Course          `json:"course"`
	Students     []Student       `json:"students"`
	Date         string          `json:"date"`
	Context      AcademicContext `json:"academicContext"`
	ScoreOptions []int           `json:"scoreOptions"`
}
