package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrImageUnavailable means an image reference could not be resolved to a
// readable image. It only affects the widget showing that image.
var ErrImageUnavailable = errors.New("image unavailable")

const maxImageBytes = 32 << 20

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// Image is a resolved, decodable image.
type Image struct {
	Ref         string
	Format      string
	ContentType string
	Width       int
	Height      int
	Data        []byte
}

// Resolver loads images from local paths or http(s) URLs.
type Resolver struct {
	client  *http.Client
	baseDir string
}

// NewResolver creates a resolver. Relative paths are resolved against
// baseDir.
func NewResolver(baseDir string, timeout time.Duration) *Resolver {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client:  &http.Client{Timeout: timeout},
		baseDir: baseDir,
	}
}

// Resolve reads the image behind ref and checks that it decodes.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrImageUnavailable)
	}

	var (
		data []byte
		err  error
	)
	if isURL(ref) {
		data, err = r.fetch(ctx, ref)
	} else {
		data, err = r.readFile(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrImageUnavailable, ref, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %w", ErrImageUnavailable, ref, err)
	}

	return &Image{
		Ref:         ref,
		Format:      format,
		ContentType: contentTypes[format],
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        data,
	}, nil
}

// Wordcloud resolves the wordcloud image for category. A category with no
// entry in index is reported as ErrImageUnavailable.
func (r *Resolver) Wordcloud(ctx context.Context, index map[string]string, category string) (*Image, error) {
	ref, ok := index[category]
	if !ok {
		return nil, fmt.Errorf("%w: no wordcloud for %q", ErrImageUnavailable, category)
	}
	return r.Resolve(ctx, ref)
}

func (r *Resolver) readFile(ref string) ([]byte, error) {
	path := ref
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readLimited(f)
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "sentiboard/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("larger than %d bytes", maxImageBytes)
	}
	return data, nil
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
