package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "wc.png"), pngBytes(t, 4, 3), 0o644))

	r := NewResolver(dir, 0)
	img, err := r.Resolve(context.Background(), "data/wc.png")
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)

	abs, err := NewResolver("", 0).Resolve(context.Background(), filepath.Join(dir, "data", "wc.png"))
	require.NoError(t, err)
	assert.Equal(t, img.Data, abs.Data)
}

func TestResolveUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))
	r := NewResolver(dir, 0)

	for _, ref := range []string{"", "missing.png", "notes.txt"} {
		_, err := r.Resolve(context.Background(), ref)
		require.ErrorIs(t, err, ErrImageUnavailable, ref)
	}
}

func TestResolveURL(t *testing.T) {
	body := pngBytes(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wc.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	r := NewResolver("", 0)
	img, err := r.Resolve(context.Background(), srv.URL+"/wc.png")
	require.NoError(t, err)
	assert.Equal(t, body, img.Data)

	_, err = r.Resolve(context.Background(), srv.URL+"/gone.png")
	require.ErrorIs(t, err, ErrImageUnavailable)
	assert.Contains(t, err.Error(), "status 404")
}

func TestWordcloud(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pos.png"), pngBytes(t, 1, 1), 0o644))
	r := NewResolver(dir, 0)
	index := map[string]string{"positive": "pos.png", "negative": "neg.png"}

	_, err := r.Wordcloud(context.Background(), index, "positive")
	require.NoError(t, err)

	_, err = r.Wordcloud(context.Background(), index, "negative")
	require.ErrorIs(t, err, ErrImageUnavailable)

	_, err = r.Wordcloud(context.Background(), index, "neutral")
	require.ErrorIs(t, err, ErrImageUnavailable)
	assert.Contains(t, err.Error(), "no wordcloud")
}
