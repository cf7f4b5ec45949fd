package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"slices"

	"github.com/elonfeng/sentiboard/internal/metrics"
	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/elonfeng/sentiboard/pkg/filter"
	"github.com/elonfeng/sentiboard/pkg/media"
)

// Image routes served next to the dashboard.
const (
	DistributionPath = "/images/distribution"
	WordcloudPath    = "/images/wordcloud/"
)

// Images resolves image references for the image widgets.
type Images interface {
	Resolve(ctx context.Context, ref string) (*media.Image, error)
	Wordcloud(ctx context.Context, index map[string]string, category string) (*media.Image, error)
}

// Options configures page assembly.
type Options struct {
	Title            string
	DistributionRef  string
	DefaultWordcloud string
	PreviewLimit     int
	Author           string
}

// Request carries the user's control selections for one rendering pass.
type Request struct {
	Wordcloud string
	Sentiment string
	Start     string
	End       string
}

// Widget is an image slot. Error is set when the image is unavailable.
type Widget struct {
	Caption string
	URL     string
	Error   string
}

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Row is one line of the tweet preview table.
type Row struct {
	Created   string
	Sentiment string
	CleanText string
}

// Page is everything the dashboard template renders.
type Page struct {
	Title            string
	Author           string
	Docs             template.HTML
	Distribution     Widget
	SummaryJSON      string
	Chart            Chart
	WordcloudOptions []Option
	Wordcloud        Widget
	SentimentOptions []Option
	Start            string
	End              string
	Notice           string
	Message          string
	Result           filter.Result
	Rows             []Row
}

// Build assembles one rendering pass over a normalized dataset. Image
// problems are reported on their widget only; bad filter input falls back
// to the default range and is reported in Notice.
func Build(ctx context.Context, d *dataset.Dataset, req Request, images Images, opts Options) (*Page, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.DefaultWordcloud == "" {
		opts.DefaultWordcloud = dataset.Positive
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = filter.PreviewLimit
	}

	summary, err := summaryJSON(d)
	if err != nil {
		return nil, err
	}

	p := &Page{
		Title:       opts.Title,
		Author:      opts.Author,
		Docs:        RenderMarkdown(Documentation),
		SummaryJSON: summary,
		Chart:       BuildChart(d.Timeline),
	}

	p.Distribution = Widget{Caption: "Distribución de Sentimientos", URL: DistributionPath}
	if _, err := images.Resolve(ctx, opts.DistributionRef); err != nil {
		p.Distribution.Error = imageNotice(err)
		metrics.RecordImageFailure("distribution")
		slog.Warn("distribution image unavailable", "ref", opts.DistributionRef, "error", err)
	}

	category := req.Wordcloud
	if category == "" {
		category = opts.DefaultWordcloud
	}
	p.WordcloudOptions = selectOptions(WordcloudCategories(d), category, nil)
	p.Wordcloud = Widget{
		Caption: "Nube de palabras: " + category,
		URL:     WordcloudPath + url.PathEscape(category),
	}
	if _, err := images.Wordcloud(ctx, d.Wordclouds, category); err != nil {
		p.Wordcloud.Error = imageNotice(err)
		metrics.RecordImageFailure("wordcloud")
		slog.Warn("wordcloud unavailable", "category", category, "error", err)
	}

	defaults := filter.DefaultsFor(d)
	criteria, err := filter.ParseCriteria(req.Sentiment, req.Start, req.End, defaults)
	if err != nil {
		p.Notice = err.Error()
		criteria = filter.Criteria{Category: filter.All, Start: defaults.Start, End: defaults.End}
	}

	p.SentimentOptions = selectOptions(filter.Options(d), criteria.Category, map[string]string{filter.All: filter.AllLabel})
	p.Start = criteria.Start.Format(dataset.DateLayout)
	p.End = criteria.End.Format(dataset.DateLayout)

	p.Result = filter.ApplyLimit(d.Tweets, criteria, opts.PreviewLimit)
	metrics.RecordFilter(criteria.Category, p.Result.Count)
	p.Message = CountMessage(p.Result)
	for _, t := range p.Result.Matches {
		p.Rows = append(p.Rows, Row{
			Created:   t.CreatedAt.Format("2006-01-02 15:04:05"),
			Sentiment: t.Sentiment,
			CleanText: t.CleanText,
		})
	}

	return p, nil
}

// CountMessage is the line shown above the tweet preview.
func CountMessage(r filter.Result) string {
	msg := fmt.Sprintf("Se encontraron %d tweets con los filtros aplicados.", r.Count)
	if r.Truncated() {
		msg += fmt.Sprintf(" Mostrando los primeros %d.", r.Shown())
	}
	return msg
}

// WordcloudCategories lists the wordcloud selector values: the three known
// labels followed by any other label observed in the tweets.
func WordcloudCategories(d *dataset.Dataset) []string {
	out := dataset.Labels()
	for _, c := range d.Categories() {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// summaryJSON pretty-prints the summary in document order when the raw
// bytes are available.
func summaryJSON(d *dataset.Dataset) (string, error) {
	if len(d.RawSummary) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, d.RawSummary, "", "  "); err != nil {
			return "", fmt.Errorf("indent summary: %w", err)
		}
		return buf.String(), nil
	}
	b, err := json.MarshalIndent(d.Summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return string(b), nil
}

func selectOptions(values []string, selected string, labels map[string]string) []Option {
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		label := v
		if l, ok := labels[v]; ok {
			label = l
		}
		opts = append(opts, Option{Value: v, Label: label, Selected: v == selected})
	}
	return opts
}

func imageNotice(err error) string {
	if errors.Is(err, media.ErrImageUnavailable) {
		return "Imagen no disponible: " + err.Error()
	}
	return err.Error()
}
