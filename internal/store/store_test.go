package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "tweets": [
    {"id": 570306133677760513, "text": "@united thanks", "clean_text": "thanks", "tweet_created": "2015-02-24 11:35:52 -0800", "sentiment": "positive"},
    {"id": "b", "text": "@delta late again", "clean_text": "late", "tweet_created": "2015-02-23", "sentiment": "negative"}
  ],
  "timeline": [
    {"date": "2015-02-23", "positive": 0, "neutral": 0, "negative": 1},
    {"date": "2015-02-24", "positive": 1, "neutral": 0, "negative": 0}
  ],
  "summary": {"positive": 1, "negative": 1, "ratio": 0.50},
  "wordclouds": {"positive": "data/pos.png", "negative": "https://example.com/neg.png"}
}`

func openStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentiboard.db")
	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestImportAndLoad(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	original, err := dataset.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, s.ImportDataset(ctx, "sentiment_results.json", original))

	loaded, err := s.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.Equal(t, json.Number("0.50"), loaded.Summary["ratio"])

	imp, err := s.LastImport(ctx)
	require.NoError(t, err)
	require.NotNil(t, imp)
	assert.Equal(t, "sentiment_results.json", imp.Origin)
	assert.Equal(t, 2, imp.Tweets)
	assert.False(t, imp.ImportedAt.IsZero())
}

func TestImportReplaces(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	first, err := dataset.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, s.ImportDataset(ctx, "a.json", first))

	second := &dataset.Dataset{
		Tweets:     []dataset.Tweet{{ID: "z", Created: "2024-05-01", Sentiment: dataset.Neutral}},
		Timeline:   []dataset.TimelinePoint{{Date: "2024-05-01", Neutral: 1}},
		Summary:    dataset.Summary{"neutral": json.Number("1")},
		RawSummary: json.RawMessage(`{"neutral": 1}`),
		Wordclouds: dataset.WordcloudIndex{dataset.Neutral: "neu.png"},
	}
	require.NoError(t, s.ImportDataset(ctx, "b.json", second))

	loaded, err := s.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	imp, err := s.LastImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b.json", imp.Origin)
}

func TestLoadEmptyArchive(t *testing.T) {
	s, _ := openStore(t)

	_, err := s.LoadDataset(context.Background())
	require.ErrorIs(t, err, dataset.ErrDatasetMalformed)

	imp, err := s.LastImport(context.Background())
	require.NoError(t, err)
	assert.Nil(t, imp)
}

func TestSource(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	original, err := dataset.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, s.ImportDataset(ctx, "sentiment_results.json", original))

	src := NewSource(path)
	assert.Equal(t, "sqlite", src.Name())

	snap, err := dataset.LoadSnapshot(ctx, src)
	require.NoError(t, err)
	require.Len(t, snap.Tweets, 2)
	assert.True(t, snap.Normalized())
	assert.Equal(t, dataset.TweetID("570306133677760513"), snap.Tweets[0].ID)
}

func TestSourceUnavailable(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.db")).Load(context.Background())
	require.ErrorIs(t, err, dataset.ErrDatasetUnavailable)

	notDB := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(notDB, []byte(strings.Repeat("not a sqlite database ", 64)), 0o644))
	_, err = NewSource(notDB).Load(context.Background())
	require.ErrorIs(t, err, dataset.ErrDatasetUnavailable)
}

func tableNames(t *testing.T, path string) []string {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var names []string
	require.NoError(t, db.Select(&names, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	return names
}

func TestSourceLeavesForeignDatabaseUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.db")
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE unrelated (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewSource(path).Load(context.Background())
	require.ErrorIs(t, err, dataset.ErrDatasetMalformed)
	assert.Equal(t, []string{"unrelated"}, tableNames(t, path))
}

func TestSourceDoesNotWriteArchive(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	original, err := dataset.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, s.ImportDataset(ctx, "sentiment_results.json", original))
	before := tableNames(t, path)

	_, err = NewSource(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, tableNames(t, path))

	ro, err := openReadOnly(ctx, path)
	require.NoError(t, err)
	defer ro.Close()
	_, err = ro.db.ExecContext(ctx, "DELETE FROM tweets")
	require.Error(t, err, "read-only connection must reject writes")
}


func TestLoadWordcloudScanError(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	for _, stmt := range []string{
		"DROP TABLE wordclouds",
		"CREATE TABLE wordclouds (category TEXT, ref TEXT)",
		"INSERT INTO wordclouds (category, ref) VALUES ('positive', NULL)",
		`INSERT INTO summary (id, body) VALUES (1, '{"total": 0}')`,
	} {
		_, err := s.db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	_, err := NewSource(path).Load(ctx)
	require.ErrorIs(t, err, dataset.ErrDatasetUnavailable)
	assert.Contains(t, err.Error(), "wordclouds")
}
