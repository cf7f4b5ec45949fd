package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetUnavailable means the dataset resource could not be opened.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrDatasetMalformed means a required key is missing or has the wrong shape.
	ErrDatasetMalformed = errors.New("dataset malformed")
	// ErrDateParse means a date field could not be parsed.
	ErrDateParse = errors.New("date parse error")
)

// DateParseError identifies the record whose date failed to parse.
type DateParseError struct {
	Collection string // "tweets" or "timeline"
	Index      int
	ID         string
	Value      string
	Err        error
}

func (e *DateParseError) Error() string {
	rec := fmt.Sprintf("%s[%d]", e.Collection, e.Index)
	if e.ID != "" {
		rec += fmt.Sprintf(" (id %s)", e.ID)
	}
	return fmt.Sprintf("%s: %s: bad date %q: %v", ErrDateParse, rec, e.Value, e.Err)
}

func (e *DateParseError) Unwrap() []error {
	return []error{ErrDateParse, e.Err}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDatasetMalformed, fmt.Sprintf(format, args...))
}
