package events

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/codewiresh/uibridge/internal/protocol"
)

// ImageLoader fetches images and probes their natural size. Results are
// cached per URL. Safe for concurrent use.
type ImageLoader struct {
	client  *http.Client
	base    *url.URL
	timeout time.Duration

	mu       sync.Mutex
	sizes    map[string]image.Config
	inflight map[string]bool
}

// NewImageLoader returns a loader resolving relative URLs against base,
// normally the page URL. A nil client uses http.DefaultClient.
func NewImageLoader(client *http.Client, base string) (*ImageLoader, error) {
	if client == nil {
		client = http.DefaultClient
	}
	l := &ImageLoader{
		client:   client,
		timeout:  30 * time.Second,
		sizes:    make(map[string]image.Config),
		inflight: make(map[string]bool),
	}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		l.base = u
	}
	return l, nil
}

// Cached returns the probed size of a loaded image.
func (l *ImageLoader) Cached(rawURL string) (image.Config, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.sizes[rawURL]
	return c, ok
}

// begin reports whether a load for rawURL should start: it is neither
// cached nor already in flight.
func (l *ImageLoader) begin(rawURL string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sizes[rawURL]; ok || l.inflight[rawURL] {
		return false
	}
	l.inflight[rawURL] = true
	return true
}

func (l *ImageLoader) finish(rawURL string, cfg image.Config, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, rawURL)
	if ok {
		l.sizes[rawURL] = cfg
	}
}

// Probe fetches rawURL and decodes only the image header.
func (l *ImageLoader) Probe(ctx context.Context, rawURL string) (image.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return image.Config{}, fmt.Errorf("parse image url: %w", err)
	}
	if l.base != nil {
		u = l.base.ResolveReference(u)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return image.Config{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return image.Config{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return image.Config{}, fmt.Errorf("fetch image: %s", resp.Status)
	}
	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode image: %w", err)
	}
	return cfg, nil
}

// LoadImage loads an image in the background and reports imageLoaded with
// its natural size, or imageError. Images already loaded or loading are
// ignored.
func (t *Translator) LoadImage(rawURL string) {
	if t.images == nil || !t.images.begin(rawURL) {
		return
	}
	t.loads.Add(1)
	go func() {
		defer t.loads.Done()
		cfg, err := t.images.Probe(context.Background(), rawURL)
		t.images.finish(rawURL, cfg, err == nil)
		if err != nil {
			t.logger.Debug("image load failed", "url", rawURL, "err", err)
			t.send(t.message("imageError").
				Put("url", protocol.Quoted(rawURL)).
				Add("message", protocol.Quoted(err.Error())))
			return
		}
		t.send(t.message("imageLoaded").
			Put("url", protocol.Quoted(rawURL)).
			Add("width", protocol.Int(cfg.Width)).
			Add("height", protocol.Int(cfg.Height)))
	}()
}
