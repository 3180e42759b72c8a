// Package schedule decides when a weekly class session has just ended.
//
// Schedules are stored as "Day, HH:MM" in 24-hour time, e.g. "Monday, 14:30".
// Every function treats a malformed schedule as a non-match.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultClassDuration = 90 * time.Minute
	DefaultNotifyDelay   = 5 * time.Minute
	DefaultTolerance     = 60 * time.Second

	separator = ", "
)

// Schedule is a parsed weekly slot.
type Schedule struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

// DayName returns the English weekday name.
func (s Schedule) DayName() string { return s.Day.String() }

// Parse reads "Day, HH:MM". The day name is matched case-insensitively.
func Parse(text string) (Schedule, error) {
	dayPart, timePart, ok := strings.Cut(text, separator)
	if !ok || strings.Contains(timePart, separator) {
		return Schedule{}, &ParseError{Text: text, Reason: `want "Day, HH:MM"`}
	}

	day, ok := weekday(strings.TrimSpace(dayPart))
	if !ok {
		return Schedule{}, &ParseError{Text: text, Reason: "unknown day"}
	}

	hh, mm, ok := strings.Cut(strings.TrimSpace(timePart), ":")
	if !ok {
		return Schedule{}, &ParseError{Text: text, Reason: "want HH:MM"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Schedule{}, &ParseError{Text: text, Reason: "bad hour"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return Schedule{}, &ParseError{Text: text, Reason: "bad minute"}
	}

	return Schedule{Day: day, Hour: hour, Minute: minute}, nil
}

func weekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, true
		}
	}
	return 0, false
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClassDuration sets how long a class session lasts.
func WithClassDuration(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.classDuration = d
		}
	}
}

// WithNotifyDelay sets the gap between class end and the notify instant.
func WithNotifyDelay(d time.Duration) Option {
	return func(m *Matcher) {
		if d >= 0 {
			m.notifyDelay = d
		}
	}
}

// WithTolerance sets the half-width of the firing window.
func WithTolerance(d time.Duration) Option {
	return func(m *Matcher) {
		if d >= 0 {
			m.tolerance = d
		}
	}
}

// Matcher evaluates schedules against wall-clock instants.
type Matcher struct {
	classDuration time.Duration
	notifyDelay   time.Duration
	tolerance     time.Duration
}

// NewMatcher returns a Matcher with the default 90m class, 5m delay and 60s tolerance.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		classDuration: DefaultClassDuration,
		notifyDelay:   DefaultNotifyDelay,
		tolerance:     DefaultTolerance,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchesDay reports whether the schedule falls on day.
func (m *Matcher) MatchesDay(text string, day time.Weekday) bool {
	s, err := Parse(text)
	if err != nil {
		return false
	}
	return s.Day == day
}

// ClassEndTime returns ref's calendar date at the scheduled start plus the
// class duration, in ref's location.
func (m *Matcher) ClassEndTime(text string, ref time.Time) (time.Time, bool) {
	s, err := Parse(text)
	if err != nil {
		return time.Time{}, false
	}
	y, mo, d := ref.Date()
	start := time.Date(y, mo, d, s.Hour, s.Minute, 0, 0, ref.Location())
	return start.Add(m.classDuration), true
}

// NotifyTime is the instant a rating request should go out for the session on now's date.
func (m *Matcher) NotifyTime(text string, now time.Time) (time.Time, bool) {
	end, ok := m.ClassEndTime(text, now)
	if !ok {
		return time.Time{}, false
	}
	return end.Add(m.notifyDelay), true
}

// JustEnded reports whether now is within the tolerance of the notify instant.
// Both window edges are inclusive.
func (m *Matcher) JustEnded(text string, now time.Time) bool {
	target, ok := m.NotifyTime(text, now)
	if !ok {
		return false
	}
	diff := now.Sub(target)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.tolerance
}

var defaultMatcher = NewMatcher()

// MatchesDay uses the default matcher.
func MatchesDay(text string, day time.Weekday) bool { return defaultMatcher.MatchesDay(text, day) }

// ClassEndTime uses the default matcher.
func ClassEndTime(text string, ref time.Time) (time.Time, bool) {
	return defaultMatcher.ClassEndTime(text, ref)
}

// JustEnded uses the default matcher.
func JustEnded(text string, now time.Time) bool { return defaultMatcher.JustEnded(text, now) }
