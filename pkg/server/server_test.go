package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elonfeng/sentiboard/pkg/dashboard"
	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/elonfeng/sentiboard/pkg/media"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = `{
  "tweets": [
    {"id": 1, "text": "@airline loved it", "clean_text": "loved", "tweet_created": "2024-01-01 10:00:00", "sentiment": "positive"},
    {"id": 2, "text": "@airline lost my bag", "clean_text": "lost bag", "tweet_created": "2024-01-02 11:00:00", "sentiment": "negative"},
    {"id": 3, "text": "@airline boarding now", "clean_text": "boarding", "tweet_created": "2024-01-03 12:00:00", "sentiment": "neutral"}
  ],
  "timeline": [
    {"date": "2024-01-01", "positive": 1, "neutral": 0, "negative": 0},
    {"date": "2024-01-02", "positive": 0, "neutral": 0, "negative": 1},
    {"date": "2024-01-03", "positive": 0, "neutral": 1, "negative": 0}
  ],
  "summary": {"positive": 1, "neutral": 1, "negative": 1, "positive_pct": 33.3},
  "wordclouds": {"positive": "wc_positive.png", "neutral": "wc_neutral.png", "negative": "wc_missing.png"}
}`

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newTestServer(t *testing.T, doc string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sentiment_results.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	writePNG(t, filepath.Join(dir, "wc_positive.png"))
	writePNG(t, filepath.Join(dir, "wc_neutral.png"))
	writePNG(t, filepath.Join(dir, "distribution.png"))

	srv := New(dataset.NewFile(path), media.NewResolver(dir, 0), dashboard.Options{
		DistributionRef: "distribution.png",
	}, 0)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type tweetsResponse struct {
	Data  []tweetView `json:"data"`
	Count int         `json:"count"`
	Shown int         `json:"shown"`
}

func decodeTweets(t *testing.T, rec *httptest.ResponseRecorder) tweetsResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out tweetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, testDoc), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDashboard(t *testing.T) {
	rec := get(t, newTestServer(t, testDoc), "/?sentiment=negative&start=2024-01-01&end=2024-01-03")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, dashboard.DefaultTitle)
	assert.Contains(t, body, "Se encontraron 1 tweets con los filtros aplicados.")
	assert.Contains(t, body, "lost bag")
	assert.NotContains(t, body, "boarding")
}

func TestDashboardWordcloudUnavailable(t *testing.T) {
	h := newTestServer(t, testDoc)

	rec := get(t, h, "/?wordcloud=negative")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Imagen no disponible")
	assert.Contains(t, body, "Se encontraron 3 tweets")
	assert.Contains(t, body, "<polyline")

	img := get(t, h, "/images/wordcloud/negative")
	assert.Equal(t, http.StatusNotFound, img.Code)
	assert.Contains(t, img.Body.String(), "image unavailable")

	ok := get(t, h, "/images/wordcloud/positive")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "image/png", ok.Header().Get("Content-Type"))

	dist := get(t, h, "/images/distribution")
	assert.Equal(t, http.StatusOK, dist.Code)
}

func TestDashboardDatasetErrors(t *testing.T) {
	missing := New(dataset.NewFile(filepath.Join(t.TempDir(), "nope.json")), media.NewResolver("", 0), dashboard.Options{}, 0)
	rec := get(t, missing.Handler(), "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "No se pudo abrir el dataset")

	rec = get(t, newTestServer(t, `{"tweets": [], "summary": {}, "wordclouds": {}}`), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "formato esperado")

	badDate := strings.Replace(testDoc, "2024-01-02 11:00:00", "02/01/2024", 1)
	rec = get(t, newTestServer(t, badDate), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "fecha")
}

func TestTweetsAPI(t *testing.T) {
	h := newTestServer(t, testDoc)

	out := decodeTweets(t, get(t, h, "/api/v1/tweets?sentiment=all&start=2024-01-01&end=2024-01-02"))
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "1", out.Data[0].ID)
	assert.Equal(t, "2", out.Data[1].ID)

	out = decodeTweets(t, get(t, h, "/api/v1/tweets?sentiment=negative&start=2024-01-01&end=2024-01-03"))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "2", out.Data[0].ID)

	out = decodeTweets(t, get(t, h, "/api/v1/tweets?start=2024-01-05&end=2024-01-01"))
	assert.Zero(t, out.Count)
	assert.Empty(t, out.Data)

	out = decodeTweets(t, get(t, h, "/api/v1/tweets"))
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, 3, out.Shown)

	rec := get(t, h, "/api/v1/tweets?start=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid filter criteria")
}

func TestTweetsAPIDatasetUnavailable(t *testing.T) {
	srv := New(dataset.NewFile(filepath.Join(t.TempDir(), "nope.json")), media.NewResolver("", 0), dashboard.Options{}, 0)
	rec := get(t, srv.Handler(), "/api/v1/tweets")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset unavailable")
}

func TestTimelineSummaryCategories(t *testing.T) {
	h := newTestServer(t, testDoc)

	rec := get(t, h, "/api/v1/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline struct {
		Data  []timelineView `json:"data"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Equal(t, 3, timeline.Count)
	assert.Equal(t, "2024-01-02", timeline.Data[1].Date)
	assert.Equal(t, 1.0, timeline.Data[1].Negative)

	rec = get(t, h, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"positive": 1, "neutral": 1, "negative": 1, "positive_pct": 33.3}`, rec.Body.String())
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"neutral"`), strings.Index(body, `"negative"`), "summary keeps document order")

	rec = get(t, h, "/api/v1/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"sentiments": ["all", "positive", "negative", "neutral"],
		"wordclouds": ["positive", "neutral", "negative"],
		"start": "2024-01-01",
		"end": "2024-01-03"
	}`, rec.Body.String())
}

func TestFeed(t *testing.T) {
	rec := get(t, newTestServer(t, testDoc), "/feed.xml?sentiment=positive")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "rss", feed.FeedType)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "loved", feed.Items[0].Description)
	assert.Equal(t, "tweet:1", feed.Items[0].GUID)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.Equal(t, 2024, feed.Items[0].PublishedParsed.Year())
	assert.Equal(t, []string{"positive"}, feed.Items[0].Categories)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, testDoc)
	get(t, h, "/api/v1/tweets")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentiboard_dataset_loads_total")
	assert.Contains(t, rec.Body.String(), "sentiboard_filter_requests_total")
}
