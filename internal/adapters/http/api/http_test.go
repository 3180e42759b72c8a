package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/adapters/http/api"
	service "github.com/tommyjgunn-msc/student-engagement-pulse/internal/app"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockDependencies struct {
	mu sync.Mutex

	summaries    []model.EngagementSummary
	summariesErr error
	dashboard    model.Dashboard
	dashboardErr error
	dashboardAt  time.Time
	submitErr    error
	seen         map[string]bool
	submitted    []model.RatingRecord
	stats        map[string]any
}

func (m *mockDependencies) Summaries(ctx context.Context) ([]model.EngagementSummary, error) {
	return m.summaries, m.summariesErr
}

func (m *mockDependencies) Summary(ctx context.Context, id string) (model.EngagementSummary, error) {
	if m.summariesErr != nil {
		return model.EngagementSummary{}, m.summariesErr
	}
	for _, s := range m.summaries {
		if s.StudentID == id {
			return s, nil
		}
	}
	return model.EngagementSummary{}, fmt.Errorf("%w: %s", service.ErrNotFound, id)
}

func (m *mockDependencies) Dashboard(ctx context.Context, now time.Time) (model.Dashboard, error) {
	m.dashboardAt = now
	return m.dashboard, m.dashboardErr
}

func (m *mockDependencies) SubmitRating(ctx context.Context, r model.RatingRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return false, m.submitErr
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if r.ID != "" && m.seen[r.ID] {
		return true, nil
	}
	m.seen[r.ID] = true
	m.submitted = append(m.submitted, r)
	return false, nil
}

func (m *mockDependencies) GetStats(ctx context.Context) map[string]any {
	return m.stats
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServerRoutes(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := &mockDependencies{
			summaries: []model.EngagementSummary{
				{StudentID: "s1", Name: "Ada Obi", CurrentScore: 6.2, TrendSeries: []model.TrendPoint{}},
			},
			dashboard: model.Dashboard{
				Students: []model.EngagementSummary{{StudentID: "s1", Name: "Ada Obi"}},
				Courses:  []model.CourseRef{{ID: "c1", Name: "Leadership Core"}},
			},
			stats: map[string]any{"started": true},
		}
		h := api.NewServer(deps, api.WithClock(fixedClock)).Router()

		Convey("The health endpoint serves Prometheus text", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint returns provider stats", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Unknown routes are 404", func() {
			w := do(h, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The dashboard uses the server clock", func() {
			w := do(h, http.MethodGet, "/api/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.dashboardAt.Equal(fixedClock()), ShouldBeTrue)
			body := decode(w)
			So(body["students"], ShouldHaveLength, 1)
			So(body["courses"], ShouldHaveLength, 1)
			So(body, ShouldContainKey, "academicContext")
		})

		Convey("A failing dashboard still returns its shape with a 500", func() {
			deps.dashboard = model.Dashboard{}
			deps.dashboardErr = errors.New("db down")
			w := do(h, http.MethodGet, "/api/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			body := decode(w)
			So(body["students"], ShouldResemble, []any{})
			So(body["courses"], ShouldResemble, []any{})
			So(body, ShouldContainKey, "academicContext")
			So(body["error"], ShouldEqual, "failed to load dashboard")
		})

		Convey("A healthy dashboard carries no error field", func() {
			w := do(h, http.MethodGet, "/api/dashboard", "")
			So(decode(w), ShouldNotContainKey, "error")
		})

		Convey("The student list returns every summary", func() {
			w := do(h, http.MethodGet, "/api/students", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var out []model.EngagementSummary
			So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].CurrentScore, ShouldEqual, 6.2)
		})

		Convey("A known student summary is returned", func() {
			w := do(h, http.MethodGet, "/api/students/s1/summary", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["id"], ShouldEqual, "s1")
		})

		Convey("An unknown student is 404", func() {
			w := do(h, http.MethodGet, "/api/students/nobody/summary", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("A store failure on summary is 500", func() {
			deps.summariesErr = errors.New("db down")
			w := do(h, http.MethodGet, "/api/students/s1/summary", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestPostRating(t *testing.T) {
	Convey("Given an API server accepting ratings", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps).Router()
		valid := `{"rating_id":"r1","student_id":"s1","course_id":"c1","faculty_id":"f1","score":8,"notes":"sharp"}`

		Convey("A valid rating is accepted", func() {
			w := do(h, http.MethodPost, "/api/ratings", valid)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(decode(w)["status"], ShouldEqual, "accepted")
			So(deps.submitted, ShouldHaveLength, 1)
			So(deps.submitted[0].Score, ShouldEqual, 8)
			So(*deps.submitted[0].Notes, ShouldEqual, "sharp")

			Convey("And resubmitting the same id is a duplicate", func() {
				w := do(h, http.MethodPost, "/api/ratings", valid)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
				So(deps.submitted, ShouldHaveLength, 1)
			})
		})

		Convey("Malformed JSON is 400", func() {
			w := do(h, http.MethodPost, "/api/ratings", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("Missing fields are 400", func() {
			for _, body := range []string{
				`{"course_id":"c1","faculty_id":"f1","score":8}`,
				`{"student_id":"s1","faculty_id":"f1","score":8}`,
				`{"student_id":"s1","course_id":"c1","score":8}`,
				`{"student_id":"s1","course_id":"c1","faculty_id":"f1"}`,
				`{"student_id":"s1","course_id":"c1","faculty_id":"f1","score":7.5}`,
			} {
				w := do(h, http.MethodPost, "/api/ratings", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("Service errors map to status codes", func() {
			cases := []struct {
				err  error
				code int
			}{
				{fmt.Errorf("%w: score 11 is outside 0..10", service.ErrInvalidRating), http.StatusBadRequest},
				{service.ErrBackpressure, http.StatusTooManyRequests},
				{service.ErrNotStarted, http.StatusServiceUnavailable},
				{errors.New("boom"), http.StatusInternalServerError},
			}
			for _, c := range cases {
				deps.submitErr = c.err
				w := do(h, http.MethodPost, "/api/ratings", valid)
				So(w.Code, ShouldEqual, c.code)
			}
		})
	})
}

func TestScheduleCheck(t *testing.T) {
	Convey("Given an API server with a fixed clock", t, func() {
		h := api.NewServer(&mockDependencies{}, api.WithClock(fixedClock)).Router()

		Convey("A schedule checked at its notify instant has just ended", func() {
			// Monday 09:00 + 90m class + 5m delay.
			w := do(h, http.MethodGet, "/api/schedule/check?schedule=Monday,+09:00&at=2025-03-03T10:35:00Z", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["valid"], ShouldEqual, true)
			So(body["day"], ShouldEqual, "Monday")
			So(body["hour"], ShouldEqual, 9.0)
			So(body["matchesDay"], ShouldEqual, true)
			So(body["justEnded"], ShouldEqual, true)
			So(body["classEnd"], ShouldEqual, "2025-03-03T10:30:00Z")
		})

		Convey("Without at the server clock is used", func() {
			w := do(h, http.MethodGet, "/api/schedule/check?schedule=Tuesday,+09:00", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["matchesDay"], ShouldEqual, false)
			So(body["justEnded"], ShouldEqual, false)
		})

		Convey("An unparseable schedule is reported as invalid", func() {
			w := do(h, http.MethodGet, "/api/schedule/check?schedule=sometime", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["valid"], ShouldEqual, false)
			So(body["error"], ShouldNotBeEmpty)
		})

		Convey("A missing schedule or bad instant is 400", func() {
			So(do(h, http.MethodGet, "/api/schedule/check", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/api/schedule/check?schedule=Monday,+09:00&at=yesterday", "").Code,
				ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server allowing one origin", t, func() {
		h := api.NewServer(&mockDependencies{}, api.WithCORSOrigins([]string{"https://pulse.example.edu"})).Router()

		Convey("A preflight from that origin is allowed", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/ratings", nil)
			req.Header.Set("Origin", "https://pulse.example.edu")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://pulse.example.edu")
		})

		Convey("Another origin gets no allow header", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}
