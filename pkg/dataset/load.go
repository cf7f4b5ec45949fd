package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Top-level keys every document must carry.
const (
	KeyTweets     = "tweets"
	KeyTimeline   = "timeline"
	KeySummary    = "summary"
	KeyWordclouds = "wordclouds"
)

var requiredKeys = []string{KeyTweets, KeyTimeline, KeySummary, KeyWordclouds}

// File loads a dataset from a JSON document on disk.
type File struct {
	path string
}

// NewFile creates a file-backed dataset source.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "file" }

// Path returns the document path.
func (f *File) Path() string { return f.path }

// Load opens, decodes and closes the document. A new Dataset is returned
// on every call.
func (f *File) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDatasetUnavailable, f.path, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrDatasetUnavailable, f.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatasetUnavailable, f.path)
	}

	d, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return d, nil
}

// Decode reads one dataset document from r and checks its shape.
func Decode(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrDatasetUnavailable, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, malformed("not a JSON object: %v", err)
	}
	for _, key := range requiredKeys {
		raw, ok := top[key]
		if !ok {
			return nil, malformed("missing key %q", key)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, malformed("key %q is null", key)
		}
	}

	d := &Dataset{}
	if err := json.Unmarshal(top[KeyTweets], &d.Tweets); err != nil {
		return nil, malformed("%s: %v", KeyTweets, err)
	}
	if err := json.Unmarshal(top[KeyTimeline], &d.Timeline); err != nil {
		return nil, malformed("%s: %v", KeyTimeline, err)
	}
	if err := json.Unmarshal(top[KeyWordclouds], &d.Wordclouds); err != nil {
		return nil, malformed("%s: %v", KeyWordclouds, err)
	}

	summary, err := DecodeSummary(top[KeySummary])
	if err != nil {
		return nil, err
	}
	d.Summary = summary
	d.RawSummary = bytes.TrimSpace(top[KeySummary])

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodeSummary decodes the summary mapping keeping numbers as json.Number.
func DecodeSummary(raw []byte) (Summary, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var s Summary
	if err := dec.Decode(&s); err != nil {
		return nil, malformed("%s: %v", KeySummary, err)
	}
	if s == nil {
		return nil, malformed("%s: not an object", KeySummary)
	}
	return s, nil
}

func (d *Dataset) validate() error {
	for i, t := range d.Tweets {
		if strings.TrimSpace(string(t.ID)) == "" {
			return malformed("%s[%d]: missing id", KeyTweets, i)
		}
		if strings.TrimSpace(t.Sentiment) == "" {
			return malformed("%s[%d]: missing sentiment", KeyTweets, i)
		}
	}
	for i, p := range d.Timeline {
		if p.Positive < 0 || p.Neutral < 0 || p.Negative < 0 {
			return malformed("%s[%d]: negative value", KeyTimeline, i)
		}
	}
	return nil
}
