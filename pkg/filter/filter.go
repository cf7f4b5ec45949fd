package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elonfeng/sentiboard/pkg/dataset"
)

const (
	// All matches every sentiment label.
	All = "all"
	// AllLabel is how the All option is shown in the dashboard selector.
	AllLabel = "Todos"
	// PreviewLimit is the number of matches kept for display.
	PreviewLimit = 20
)

// ErrInvalidCriteria is returned when a date bound cannot be parsed.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria selects tweets by sentiment label and inclusive calendar date range.
type Criteria struct {
	Category string
	Start    time.Time
	End      time.Time
}

// Result holds the first matches in load order plus the total match count.
type Result struct {
	Matches []dataset.Tweet
	Count   int
}

// Shown is the number of matches kept for display.
func (r Result) Shown() int { return len(r.Matches) }

// Truncated reports whether matches were dropped from the preview.
func (r Result) Truncated() bool { return r.Count > len(r.Matches) }

// Match reports whether t passes both the category and the date test.
func (c Criteria) Match(t dataset.Tweet) bool {
	if c.Category != All && t.Sentiment != c.Category {
		return false
	}
	day := dataset.CalendarDate(t.CreatedAt)
	return !day.Before(dataset.CalendarDate(c.Start)) && !day.After(dataset.CalendarDate(c.End))
}

// Empty reports whether the date range is inverted.
func (c Criteria) Empty() bool {
	return dataset.CalendarDate(c.Start).After(dataset.CalendarDate(c.End))
}

// Apply filters tweets keeping at most PreviewLimit matches.
func Apply(tweets []dataset.Tweet, c Criteria) Result {
	return ApplyLimit(tweets, c, PreviewLimit)
}

// ApplyLimit filters tweets keeping at most limit matches. Count always
// reflects every match. A limit <= 0 keeps all matches.
func ApplyLimit(tweets []dataset.Tweet, c Criteria, limit int) Result {
	res := Result{Matches: []dataset.Tweet{}}
	if c.Empty() {
		return res
	}

	for _, t := range tweets {
		if !c.Match(t) {
			continue
		}
		res.Count++
		if limit <= 0 || len(res.Matches) < limit {
			res.Matches = append(res.Matches, t)
		}
	}
	return res
}

// Defaults are the bounds used when a request leaves a date empty.
type Defaults struct {
	Start time.Time
	End   time.Time
}

// DefaultsFor returns the tweet span of d as filter defaults.
func DefaultsFor(d *dataset.Dataset) Defaults {
	first, last, ok := d.Span()
	if !ok {
		today := dataset.CalendarDate(time.Now())
		return Defaults{Start: today, End: today}
	}
	return Defaults{Start: first, End: last}
}

// ParseCriteria builds criteria from user input. Empty dates fall back to
// defaults; an empty category or the selector label means All.
func ParseCriteria(category, start, end string, defaults Defaults) (Criteria, error) {
	c := Criteria{
		Category: strings.TrimSpace(category),
		Start:    defaults.Start,
		End:      defaults.End,
	}
	if c.Category == "" || c.Category == AllLabel {
		c.Category = All
	}

	if s := strings.TrimSpace(start); s != "" {
		t, err := dataset.ParseDate(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: start %q: want YYYY-MM-DD", ErrInvalidCriteria, s)
		}
		c.Start = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := dataset.ParseDate(s)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: end %q: want YYYY-MM-DD", ErrInvalidCriteria, s)
		}
		c.End = t
	}
	return c, nil
}

// Options returns the selector values: All followed by the observed labels.
func Options(d *dataset.Dataset) []string {
	return append([]string{All}, d.Categories()...)
}
