package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/logger"
)

// DashboardProvider loads the landing page payload.
type DashboardProvider interface {
	Dashboard(ctx context.Context, now time.Time) (model.Dashboard, error)
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	provider DashboardProvider
	now      func() time.Time
	logger   logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(p DashboardProvider, now func() time.Time, l logger.Logger) *DashboardHandler {
	return &DashboardHandler{provider: p, now: now, logger: l}
}

// dashboardFailure is the 500 body: the usual shape plus an error message.
type dashboardFailure struct {
	model.Dashboard
	Error string `json:"error"`
}

// HandleDashboard handles GET /api/dashboard. A load failure still answers
// with the full shape, empty lists and a 500 so the front end can render.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.provider.Dashboard(r.Context(), h.now())
	if err != nil {
		h.logger.Error(r.Context(), "dashboard load failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, dashboardFailure{
			Dashboard: emptyDashboard(d),
			Error:     "failed to load dashboard",
		})
		return
	}
	writeJSON(w, http.StatusOK, emptyDashboard(d))
}

// emptyDashboard replaces nil lists so they encode as [].
func emptyDashboard(d model.Dashboard) model.Dashboard {
	if d.Students == nil {
		d.Students = []model.EngagementSummary{}
	}
	if d.Courses == nil {
		d.Courses = []model.CourseRef{}
	}
	return d
}
