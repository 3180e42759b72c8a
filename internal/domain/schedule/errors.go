package schedule

import (
	"errors"
	"fmt"
)

// ErrParse is returned for schedule text that is not "Day, HH:MM".
var ErrParse = errors.New("schedule: parse error")

// ParseError carries the rejected text.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schedule: cannot parse %q: %s", e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }
