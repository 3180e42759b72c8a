package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/tommyjgunn-msc/student-engagement-pulse/internal/app"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// SummaryProvider reads engagement summaries.
type SummaryProvider interface {
	Summaries(ctx context.Context) ([]model.EngagementSummary, error)
	Summary(ctx context.Context, studentID string) (model.EngagementSummary, error)
}

// SummaryHandler serves per-student summaries.
type SummaryHandler struct {
	provider SummaryProvider
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(p SummaryProvider) *SummaryHandler {
	return &SummaryHandler{provider: p}
}

// HandleList handles GET /api/students.
func (h *SummaryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_summaries"
	out, err := h.provider.Summaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	if out == nil {
		out = []model.EngagementSummary{}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/students/{id}/summary.
func (h *SummaryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	sum, err := h.provider.Summary(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
