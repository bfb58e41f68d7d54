package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"rpotraining/internal/adapters/http/perf"
)

// DefaultTimeout bounds a single fragment request.
const DefaultTimeout = 10 * time.Second

// maxFragmentBytes caps how much of a response body is read.
const maxFragmentBytes = 4 << 20

// HTTPFetcher reads fragments relative to a base URL.
type HTTPFetcher struct {
	base      *url.URL
	client    *http.Client
	collector *perf.Collector
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithCollector records fetch timings.
func WithCollector(c *perf.Collector) HTTPOption {
	return func(f *HTTPFetcher) { f.collector = c }
}

// NewHTTPFetcher creates a fetcher rooted at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: returns a fetcher or a parse error
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse content url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("content url %q: scheme must be http or https", baseURL)
	}
	f := &HTTPFetcher{
		base:   u,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch issues GET <base>/<path> and returns the body of a 2xx response.
// PRE: path is relative without parent references
// POST: returns the fragment, or ErrStatus / a transport error
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) (string, error) {
	if err := checkPath(path); err != nil {
		return "", fmt.Errorf("fetch %q: %w", path, err)
	}
	target := f.base.JoinPath(path).String()

	start := time.Now()
	body, status, err := f.get(ctx, target)
	f.record(path, status, err != nil, start)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, target string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxFragmentBytes))
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return string(data), resp.StatusCode, nil
}

func (f *HTTPFetcher) record(path string, status int, failed bool, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	slog.Debug("content_fetch",
		"path", path,
		"status", status,
		"failed", failed,
		"duration_ms", durationMs,
	)
	if f.collector == nil {
		return
	}
	f.collector.Record(perf.Entry{
		Kind:       perf.KindFetch,
		Path:       path,
		StatusCode: status,
		Failed:     failed,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}
