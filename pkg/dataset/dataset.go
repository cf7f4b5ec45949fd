package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Sentiment labels assigned upstream by the VADER batch job.
const (
	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"
)

// Labels returns the three known sentiment labels in display order.
func Labels() []string {
	return []string{Positive, Neutral, Negative}
}

// TweetID is a tweet identifier. The upstream export writes it either as a
// JSON string or as a bare number.
type TweetID string

func (id *TweetID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TweetID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tweet id %s: not a string or number", b)
	}
	*id = TweetID(n.String())
	return nil
}

// Tweet is one scored tweet. Created holds the raw timestamp text as
// exported; CreatedAt is filled in by Normalize.
type Tweet struct {
	ID        TweetID   `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	CleanText string    `json:"clean_text" db:"clean_text"`
	Created   string    `json:"tweet_created" db:"tweet_created"`
	Sentiment string    `json:"sentiment" db:"sentiment"`
	CreatedAt time.Time `json:"-" db:"-"`
}

// TimelinePoint is the per-day aggregate of each sentiment label.
type TimelinePoint struct {
	Date     string    `json:"date" db:"date"`
	Positive float64   `json:"positive" db:"positive"`
	Neutral  float64   `json:"neutral" db:"neutral"`
	Negative float64   `json:"negative" db:"negative"`
	Day      time.Time `json:"-" db:"-"`
}

// Value returns the value recorded for label, or 0 for unknown labels.
func (p TimelinePoint) Value(label string) float64 {
	switch label {
	case Positive:
		return p.Positive
	case Neutral:
		return p.Neutral
	case Negative:
		return p.Negative
	}
	return 0
}

// Summary is the opaque summary mapping. It is only ever echoed back, so
// numbers are kept as json.Number to preserve their original text.
type Summary map[string]any

// WordcloudIndex maps a sentiment label to an image reference (path or URL).
type WordcloudIndex map[string]string

// Dataset is one loaded sentiment results document. RawSummary keeps the
// summary exactly as written, key order included.
type Dataset struct {
	Tweets     []Tweet         `json:"tweets"`
	Timeline   []TimelinePoint `json:"timeline"`
	Summary    Summary         `json:"summary"`
	RawSummary json.RawMessage `json:"-"`
	Wordclouds WordcloudIndex  `json:"wordclouds"`
}

// Source produces a freshly loaded Dataset on every call.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Dataset, error)
}

// Normalized reports whether every date field has been parsed.
func (d *Dataset) Normalized() bool {
	for i := range d.Tweets {
		if d.Tweets[i].CreatedAt.IsZero() {
			return false
		}
	}
	for i := range d.Timeline {
		if d.Timeline[i].Day.IsZero() {
			return false
		}
	}
	return true
}

// Span returns the first and last calendar dates among the tweets.
// ok is false when there are no parsed tweets.
func (d *Dataset) Span() (first, last time.Time, ok bool) {
	for i := range d.Tweets {
		if d.Tweets[i].CreatedAt.IsZero() {
			continue
		}
		day := CalendarDate(d.Tweets[i].CreatedAt)
		if !ok || day.Before(first) {
			first = day
		}
		if !ok || day.After(last) {
			last = day
		}
		ok = true
	}
	return first, last, ok
}

// Categories returns the sentiment labels observed in the tweets, in the
// order they first appear.
func (d *Dataset) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range d.Tweets {
		if seen[t.Sentiment] {
			continue
		}
		seen[t.Sentiment] = true
		out = append(out, t.Sentiment)
	}
	return out
}

// UncoveredDates lists tweet calendar dates that have no timeline point,
// in ascending order.
func (d *Dataset) UncoveredDates() []time.Time {
	covered := make(map[time.Time]bool, len(d.Timeline))
	for _, p := range d.Timeline {
		if !p.Day.IsZero() {
			covered[CalendarDate(p.Day)] = true
		}
	}

	missing := make(map[time.Time]bool)
	for _, t := range d.Tweets {
		if t.CreatedAt.IsZero() {
			continue
		}
		day := CalendarDate(t.CreatedAt)
		if !covered[day] {
			missing[day] = true
		}
	}

	out := make([]time.Time, 0, len(missing))
	for day := range missing {
		out = append(out, day)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

// CountByLabel counts tweets per sentiment label.
func (d *Dataset) CountByLabel() map[string]int {
	counts := make(map[string]int)
	for _, t := range d.Tweets {
		counts[t.Sentiment]++
	}
	return counts
}

// SummaryValue formats the summary value v the way it appeared in the document.
func SummaryValue(v any) string {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
