package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord marks a source row that cannot be used. Callers skip the
// row and keep going.
var ErrInvalidRecord = errors.New("invalid record")

var (
	errOutOfRange = errors.New("out of range")
	errNotWhole   = errors.New("not a whole number")
)

// InvalidRecordError names the offending field of a skipped row.
type InvalidRecordError struct {
	Source string
	Field  string
	Value  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s record: %s=%q: %s", e.Source, e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidRecord.
func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

func invalid(source, field, value, reason string) error {
	return &InvalidRecordError{Source: source, Field: field, Value: value, Reason: reason}
}
