package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"rpotraining/internal/adapters/http/perf"
)

// mdRenderer converts markdown fragments. Raw HTML inside markdown is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// DirFetcher reads fragments from a local directory. A missing .html file
// falls back to a sibling .md file rendered to HTML.
type DirFetcher struct {
	dir       string
	collector *perf.Collector
}

// NewDirFetcher creates a fetcher rooted at dir. collector may be nil.
func NewDirFetcher(dir string, collector *perf.Collector) *DirFetcher {
	return &DirFetcher{dir: dir, collector: collector}
}

// Dir returns the root directory.
func (f *DirFetcher) Dir() string {
	return f.dir
}

// Fetch reads <dir>/<path>, or renders <dir>/<path without .html>.md.
// PRE: path is relative without parent references
// POST: returns the fragment, ErrNotFound, or an I/O error
func (f *DirFetcher) Fetch(ctx context.Context, path string) (string, error) {
	start := time.Now()
	out, err := f.fetch(ctx, path)
	if f.collector != nil {
		status := 200
		if err != nil {
			status = 0
		}
		f.collector.Record(perf.Entry{
			Kind:       perf.KindFetch,
			Path:       path,
			StatusCode: status,
			Failed:     err != nil,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp:  start,
		})
	}
	return out, err
}

func (f *DirFetcher) fetch(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkPath(path); err != nil {
		return "", fmt.Errorf("fetch %q: %w", path, err)
	}

	root, err := os.OpenRoot(f.dir)
	if err != nil {
		return "", fmt.Errorf("open content dir: %w", err)
	}
	defer root.Close()

	data, err := readRoot(root, path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) || !strings.HasSuffix(path, ".html") {
		return "", notFound(path, err)
	}

	mdPath := strings.TrimSuffix(path, ".html") + ".md"
	md, err := readRoot(root, mdPath)
	if err != nil {
		return "", notFound(path, err)
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert(md, &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", mdPath, err)
	}
	return buf.String(), nil
}

func readRoot(root *os.Root, name string) ([]byte, error) {
	file, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fetch %q: %w", path, ErrNotFound)
	}
	return fmt.Errorf("fetch %q: %w", path, err)
}
