package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/elonfeng/sentiboard/internal/config"
	"github.com/elonfeng/sentiboard/internal/logging"
	"github.com/elonfeng/sentiboard/internal/store"
	"github.com/elonfeng/sentiboard/pkg/dashboard"
	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/elonfeng/sentiboard/pkg/filter"
	"github.com/elonfeng/sentiboard/pkg/media"
	"github.com/elonfeng/sentiboard/pkg/server"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/sync/errgroup"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if datasetPath != "" {
		cfg.Dataset.Path = datasetPath
	}
	logging.Init(os.Stderr, cfg.Log.Level)
	return cfg, nil
}

// openSource picks the archive reader for .db files and the JSON document
// reader for everything else.
func openSource(path string) dataset.Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return store.NewSource(path)
	}
	return dataset.NewFile(path)
}

func newResolver(cfg *config.Config) *media.Resolver {
	return media.NewResolver(cfg.Dataset.AssetsDir, cfg.Server.ParseImageTimeout())
}

func dashboardOptions(cfg *config.Config) dashboard.Options {
	return dashboard.Options{
		Title:            cfg.Dashboard.Title,
		DistributionRef:  cfg.Dataset.DistributionImage,
		DefaultWordcloud: cfg.Dashboard.DefaultWordcloud,
		PreviewLimit:     cfg.Dashboard.PreviewLimit,
		Author:           cfg.Dashboard.Author,
	}
}

func runServe(ctx context.Context, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	srv := server.New(openSource(cfg.Dataset.Path), newResolver(cfg), dashboardOptions(cfg), port)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type tweetsOptions struct {
	Sentiment string
	Start     string
	End       string
	Limit     int
	JSON      bool
}

type tweetRow struct {
	ID        dataset.TweetID `json:"id"`
	Created   string          `json:"tweet_created"`
	Sentiment string          `json:"sentiment"`
	CleanText string          `json:"clean_text"`
}

func runTweets(ctx context.Context, w io.Writer, opts tweetsOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := dataset.LoadSnapshot(ctx, openSource(cfg.Dataset.Path))
	if err != nil {
		return err
	}

	criteria, err := filter.ParseCriteria(opts.Sentiment, opts.Start, opts.End, filter.DefaultsFor(d))
	if err != nil {
		return err
	}

	limit := opts.Limit
	if limit == 0 {
		limit = cfg.Dashboard.PreviewLimit
	}
	result := filter.ApplyLimit(d.Tweets, criteria, limit)

	rows := make([]tweetRow, 0, len(result.Matches))
	for _, t := range result.Matches {
		rows = append(rows, tweetRow{
			ID:        t.ID,
			Created:   t.Created,
			Sentiment: t.Sentiment,
			CleanText: t.CleanText,
		})
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"count":  result.Count,
			"shown":  result.Shown(),
			"tweets": rows,
		})
	}

	if result.Count == 0 {
		fmt.Fprintln(w, "no tweets match the filters")
		return nil
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Created, r.Sentiment, r.CleanText})
	}
	renderTable(w, []string{"TWEET_CREATED", "SENTIMENT", "CLEAN_TEXT"}, cells)

	fmt.Fprintf(w, "\n%d found", result.Count)
	if result.Truncated() {
		fmt.Fprintf(w, ", showing first %d", result.Shown())
	}
	fmt.Fprintln(w)
	return nil
}

func runSummary(ctx context.Context, w io.Writer, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := dataset.LoadSnapshot(ctx, openSource(cfg.Dataset.Path))
	if err != nil {
		return err
	}
	counts := d.CountByLabel()

	if jsonOutput {
		var summary any = d.Summary
		if len(d.RawSummary) > 0 {
			summary = d.RawSummary
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"summary": summary,
			"counts":  counts,
		})
	}

	var summary [][]string
	for _, k := range slices.Sorted(maps.Keys(d.Summary)) {
		summary = append(summary, []string{k, dataset.SummaryValue(d.Summary[k])})
	}
	renderTable(w, []string{"KEY", "VALUE"}, summary)
	fmt.Fprintln(w)

	var labels [][]string
	for _, label := range d.Categories() {
		labels = append(labels, []string{label, strconv.Itoa(counts[label])})
	}
	renderTable(w, []string{"SENTIMENT", "TWEETS"}, labels)

	if first, last, ok := d.Span(); ok {
		fmt.Fprintf(w, "\n%d tweets from %s to %s\n", len(d.Tweets),
			first.Format(dataset.DateLayout), last.Format(dataset.DateLayout))
	}
	return nil
}

func runImport(ctx context.Context, w io.Writer, dbPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if filepath.Clean(dbPath) == filepath.Clean(cfg.Dataset.Path) {
		return fmt.Errorf("import: source and archive are the same file: %s", dbPath)
	}

	// Normalize first so an archive never holds dates the dashboard cannot parse.
	d, err := dataset.LoadSnapshot(ctx, openSource(cfg.Dataset.Path))
	if err != nil {
		return err
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := db.ImportDataset(ctx, filepath.Base(cfg.Dataset.Path), d); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	slog.Info("dataset imported", "origin", cfg.Dataset.Path, "archive", dbPath, "tweets", len(d.Tweets))
	fmt.Fprintf(w, "imported %d tweets and %d timeline points into %s\n", len(d.Tweets), len(d.Timeline), dbPath)
	return nil
}

// runCheck reports dataset problems. Load failures are fatal; image and
// coverage problems are only warnings, matching how the dashboard treats them.
func runCheck(ctx context.Context, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := newPrinter(w)
	src := openSource(cfg.Dataset.Path)

	d, err := dataset.LoadSnapshot(ctx, src)
	if err != nil {
		p.Error("%s: %v", cfg.Dataset.Path, err)
		return errors.New("check failed")
	}
	p.Success("%s (%s): %d tweets, %d timeline points, %d summary keys",
		cfg.Dataset.Path, src.Name(), len(d.Tweets), len(d.Timeline), len(d.Summary))

	if missing := d.UncoveredDates(); len(missing) > 0 {
		days := make([]string, len(missing))
		for i, day := range missing {
			days[i] = day.Format(dataset.DateLayout)
		}
		p.Warning("timeline has no point for %d tweet dates: %s", len(days), strings.Join(days, ", "))
	}

	images := newResolver(cfg)
	if img, err := images.Resolve(ctx, cfg.Dataset.DistributionImage); err != nil {
		p.Warning("distribution: %v", err)
	} else {
		p.Success("distribution: %s %dx%d", img.Format, img.Width, img.Height)
	}

	for _, category := range dashboard.WordcloudCategories(d) {
		img, err := images.Wordcloud(ctx, d.Wordclouds, category)
		if err != nil {
			p.Warning("wordcloud %s: %v", category, err)
			continue
		}
		p.Success("wordcloud %s: %s %dx%d", category, img.Format, img.Width, img.Height)
	}
	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(header)
	table.Bulk(rows)
	table.Render()
}

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) Success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(p.w, "✓ "+format+"\n", args...)
}

func (p *printer) Warning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(p.w, "⚠ "+format+"\n", args...)
}

func (p *printer) Error(format string, args ...any) {
	color.New(color.FgRed).Fprintf(p.w, "✗ "+format+"\n", args...)
}
