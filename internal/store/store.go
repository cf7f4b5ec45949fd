package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Import records one dataset import.
type Import struct {
	ID         int64     `db:"id" json:"id"`
	Origin     string    `db:"origin" json:"origin"`
	Tweets     int       `db:"tweets" json:"tweets"`
	ImportedAt time.Time `db:"imported_at" json:"imported_at"`
}

// Store is the dataset archive interface.
type Store interface {
	ImportDataset(ctx context.Context, origin string, d *dataset.Dataset) error
	LoadDataset(ctx context.Context) (*dataset.Dataset, error)
	LastImport(ctx context.Context) (*Import, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportDataset replaces the archived dataset with d in one transaction.
// Dates are stored as their original text.
func (s *SQLiteStore) ImportDataset(ctx context.Context, origin string, d *dataset.Dataset) error {
	summary := []byte(d.RawSummary)
	if len(summary) == 0 {
		var err error
		if summary, err = json.Marshal(d.Summary); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tweets", "timeline", "summary", "wordclouds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, t := range d.Tweets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tweets (seq, id, text, clean_text, tweet_created, sentiment)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, string(t.ID), t.Text, t.CleanText, t.Created, t.Sentiment)
		if err != nil {
			return fmt.Errorf("insert tweet %s: %w", t.ID, err)
		}
	}

	for i, p := range d.Timeline {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timeline (seq, date, positive, neutral, negative)
			VALUES (?, ?, ?, ?, ?)
		`, i, p.Date, p.Positive, p.Neutral, p.Negative)
		if err != nil {
			return fmt.Errorf("insert timeline %s: %w", p.Date, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO summary (id, body) VALUES (1, ?)", string(summary)); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	for category, ref := range d.Wordclouds {
		if _, err := tx.ExecContext(ctx, "INSERT INTO wordclouds (category, ref) VALUES (?, ?)", category, ref); err != nil {
			return fmt.Errorf("insert wordcloud %s: %w", category, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO imports (origin, tweets, imported_at) VALUES (?, ?, ?)
	`, origin, len(d.Tweets), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	return tx.Commit()
}

// LoadDataset reads the archived dataset back in its original order. An
// archive with nothing imported is reported as malformed.
func (s *SQLiteStore) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	var body string
	err := s.db.GetContext(ctx, &body, "SELECT body FROM summary WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: archive is empty", dataset.ErrDatasetMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read summary: %w", dataset.ErrDatasetUnavailable, err)
	}

	summary, err := dataset.DecodeSummary([]byte(body))
	if err != nil {
		return nil, err
	}
	d := &dataset.Dataset{
		Summary:    summary,
		RawSummary: json.RawMessage(body),
		Wordclouds: dataset.WordcloudIndex{},
	}

	if err := s.db.SelectContext(ctx, &d.Tweets,
		"SELECT id, text, clean_text, tweet_created, sentiment FROM tweets ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("%w: read tweets: %w", dataset.ErrDatasetUnavailable, err)
	}
	if err := s.db.SelectContext(ctx, &d.Timeline,
		"SELECT date, positive, neutral, negative FROM timeline ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("%w: read timeline: %w", dataset.ErrDatasetUnavailable, err)
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT category, ref FROM wordclouds")
	if err != nil {
		return nil, fmt.Errorf("%w: read wordclouds: %w", dataset.ErrDatasetUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, ref string
		if err := rows.Scan(&category, &ref); err != nil {
			return nil, fmt.Errorf("%w: read wordclouds: %w", dataset.ErrDatasetUnavailable, err)
		}
		d.Wordclouds[category] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read wordclouds: %w", dataset.ErrDatasetUnavailable, err)
	}

	if d.Tweets == nil {
		d.Tweets = []dataset.Tweet{}
	}
	if d.Timeline == nil {
		d.Timeline = []dataset.TimelinePoint{}
	}
	return d, nil
}

// LastImport returns the most recent import, or nil if there is none.
func (s *SQLiteStore) LastImport(ctx context.Context) (*Import, error) {
	var imp Import
	err := s.db.GetContext(ctx, &imp, "SELECT * FROM imports ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last import: %w", err)
	}
	return &imp, nil
}

// Source loads the dataset from an archive file, opening and closing the
// database read-only on every Load.
type Source struct {
	path string
}

// NewSource creates an archive-backed dataset source.
func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Name() string { return "sqlite" }

func (s *Source) Load(ctx context.Context) (*dataset.Dataset, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", dataset.ErrDatasetUnavailable, s.path, err)
	}

	db, err := openReadOnly(ctx, s.path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.LoadDataset(ctx)
}

// archiveTables must all exist for a file to be read as an archive.
var archiveTables = []string{"tweets", "timeline", "summary", "wordclouds"}

// openReadOnly opens an existing archive without applying the schema or
// changing the journal mode. A database lacking the archive tables is
// reported as malformed.
func openReadOnly(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %w", dataset.ErrDatasetUnavailable, path, err)
	}

	query, args, err := sqlx.In("SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?)", archiveTables)
	if err != nil {
		db.Close()
		return nil, err
	}
	var found []string
	if err := db.SelectContext(ctx, &found, db.Rebind(query), args...); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: read %s: %w", dataset.ErrDatasetUnavailable, path, err)
	}
	for _, table := range archiveTables {
		if !slices.Contains(found, table) {
			db.Close()
			return nil, fmt.Errorf("%w: %s has no %s table", dataset.ErrDatasetMalformed, path, table)
		}
	}

	return &SQLiteStore{db: db}, nil
}
