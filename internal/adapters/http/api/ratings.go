package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	service "github.com/tommyjgunn-msc/student-engagement-pulse/internal/app"
	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
)

const maxRatingBody = 1 << 20

// RatingSubmitter accepts ratings for asynchronous persistence.
type RatingSubmitter interface {
	SubmitRating(ctx context.Context, r model.RatingRecord) (duplicate bool, err error)
}

// RatingsHandler handles rating submissions.
type RatingsHandler struct {
	submitter RatingSubmitter
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(s RatingSubmitter) *RatingsHandler {
	return &RatingsHandler{submitter: s}
}

// ratingRequest is the body of POST /api/ratings.
type ratingRequest struct {
	RatingID  string   `json:"rating_id"`
	StudentID string   `json:"student_id"`
	CourseID  string   `json:"course_id"`
	FacultyID string   `json:"faculty_id"`
	Score     *float64 `json:"score"`
	Notes     *string  `json:"notes"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
}

func (req ratingRequest) validate() error {
	switch {
	case strings.TrimSpace(req.StudentID) == "":
		return errors.New("missing student_id")
	case strings.TrimSpace(req.CourseID) == "":
		return errors.New("missing course_id")
	case strings.TrimSpace(req.FacultyID) == "":
		return errors.New("missing faculty_id")
	case req.Score == nil:
		return errors.New("missing score")
	case *req.Score != math.Trunc(*req.Score):
		return errors.New("score must be a whole number")
	}
	return nil
}

func (req ratingRequest) record() model.RatingRecord {
	return model.RatingRecord{
		ID:        req.RatingID,
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		FacultyID: req.FacultyID,
		Date:      req.Date,
		Time:      req.Time,
		Score:     int(*req.Score),
		Notes:     req.Notes,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostRating handles POST /api/ratings.
func (h *RatingsHandler) HandlePostRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rating"

	var req ratingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRatingBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	duplicate, err := h.submitter.SubmitRating(r.Context(), req.record())
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}

	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
