package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/schedule"
)

// ScheduleHandler answers schedule diagnostics: does this schedule text parse,
// and when does its class end relative to a given instant.
type ScheduleHandler struct {
	matcher *schedule.Matcher
	now     func() time.Time
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(m *schedule.Matcher, now func() time.Time) *ScheduleHandler {
	return &ScheduleHandler{matcher: m, now: now}
}

type scheduleCheckResponse struct {
	Schedule   string     `json:"schedule"`
	At         time.Time  `json:"at"`
	Valid      bool       `json:"valid"`
	Error      string     `json:"error,omitempty"`
	Day        string     `json:"day,omitempty"`
	Hour       int        `json:"hour"`
	Minute     int        `json:"minute"`
	MatchesDay bool       `json:"matchesDay"`
	ClassEnd   *time.Time `json:"classEnd,omitempty"`
	NotifyAt   *time.Time `json:"notifyAt,omitempty"`
	JustEnded  bool       `json:"justEnded"`
}

// HandleCheck handles GET /api/schedule/check?schedule=...&at=RFC3339. An
// unparseable schedule is reported as valid=false with a 200.
func (h *ScheduleHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule_check"

	text := strings.TrimSpace(r.URL.Query().Get("schedule"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	at := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		at = parsed
	}

	resp := scheduleCheckResponse{Schedule: text, At: at}
	sched, err := schedule.Parse(text)
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Valid = true
	resp.Day = sched.DayName()
	resp.Hour = sched.Hour
	resp.Minute = sched.Minute
	resp.MatchesDay = h.matcher.MatchesDay(text, at.Weekday())
	if end, ok := h.matcher.ClassEndTime(text, at); ok {
		resp.ClassEnd = &end
	}
	if notify, ok := h.matcher.NotifyTime(text, at); ok {
		resp.NotifyAt = &notify
	}
	resp.JustEnded = h.matcher.JustEnded(text, at)
	writeJSON(w, http.StatusOK, resp)
}
