package dataset

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for timeline dates and for
// date-range bounds.
const DateLayout = "2006-01-02"

// timeLayouts are the accepted spellings of an ISO 8601 year-month-day
// timestamp. The time of day and the zone offset are optional.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTime parses an ISO 8601 year-month-day timestamp.
func ParseTime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, errors.New("empty value")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("want YYYY-MM-DD[ HH:MM:SS][±hh:mm]")
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// CalendarDate drops the time of day, keeping the date as recorded in t's
// own offset. The result is midnight UTC so dates compare with ==.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a copy of d with every date field parsed. The input is
// not modified. Values already parsed are kept, so normalizing twice gives
// the same result as normalizing once. The first unparseable record fails
// the whole step with a *DateParseError.
func Normalize(d *Dataset) (*Dataset, error) {
	out := &Dataset{
		Tweets:     make([]Tweet, len(d.Tweets)),
		Timeline:   make([]TimelinePoint, len(d.Timeline)),
		Summary:    maps.Clone(d.Summary),
		RawSummary: slices.Clone(d.RawSummary),
		Wordclouds: maps.Clone(d.Wordclouds),
	}

	for i, t := range d.Tweets {
		if t.CreatedAt.IsZero() {
			ts, err := ParseTime(t.Created)
			if err != nil {
				return nil, &DateParseError{
					Collection: KeyTweets,
					Index:      i,
					ID:         string(t.ID),
					Value:      t.Created,
					Err:        err,
				}
			}
			t.CreatedAt = ts
		}
		out.Tweets[i] = t
	}

	for i, p := range d.Timeline {
		if p.Day.IsZero() {
			ts, err := ParseTime(p.Date)
			if err != nil {
				return nil, &DateParseError{
					Collection: KeyTimeline,
					Index:      i,
					Value:      p.Date,
					Err:        err,
				}
			}
			p.Day = ts
		}
		out.Timeline[i] = p
	}

	return out, nil
}

// LoadSnapshot loads a dataset from src and normalizes it. The result is
// owned by the caller and shares nothing with other snapshots.
func LoadSnapshot(ctx context.Context, src Source) (*Dataset, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}
