package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidRating = errors.New("invalid rating")
	ErrBackpressure  = errors.New("rating queue is full")
	ErrNotFound      = errors.New("student not found")
)
