package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/domain/catalogue"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

var slowRequestMs int64
var slowRequestOnce sync.Once

// getSlowRequestThreshold returns the slow-request threshold in milliseconds.
func getSlowRequestThreshold() float64 {
	slowRequestOnce.Do(func() {
		ms := DefaultSlowRequestMs
		if v := os.Getenv("RPO_SLOW_REQUEST_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowRequestMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowRequestMs))
}

var requestSeq uint64

// statusWriter remembers the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
// PRE: code is a valid HTTP status code
// POST: status stored, header written to underlying ResponseWriter
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

var statusWriterPool = sync.Pool{
	New: func() any { return &statusWriter{} },
}

// isAsset reports whether the path is a static file or a raw session fragment.
// Neither is timed and neither needs a tab.
func isAsset(path string) bool {
	return strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/sessions/")
}

// pageTarget names the kind of view a /page id asks for.
func pageTarget(id string) string {
	switch {
	case id == "":
		return "none"
	case id == catalogue.MainPageID:
		return "main"
	case catalogue.SessionID(strings.TrimSuffix(id, "-page")).Valid():
		return "session"
	case catalogue.IsModuleID(id):
		return "module"
	default:
		return "other"
	}
}

// requestLabel reduces a request to "VERB route", e.g. "GET /page session".
// Navigation requests are grouped by target kind so raw ids never become
// aggregation keys or reach the logs.
func requestLabel(r *http.Request) string {
	label := r.Method + " " + r.URL.Path
	if r.URL.Path == "/page" {
		label += " " + pageTarget(r.URL.Query().Get("id"))
	}
	return label
}

// requestTimer logs and records one request timing.
type requestTimer struct {
	collector *perf.Collector
	threshold float64
}

func (rt requestTimer) observe(label string, status int, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	seq := atomic.AddUint64(&requestSeq, 1)

	if durationMs >= rt.threshold {
		slog.Warn("slow_request",
			"request_id", seq,
			"route", label,
			"status", status,
			"duration_ms", durationMs,
		)
	} else {
		slog.Debug("request",
			"request_id", seq,
			"route", label,
			"status", status,
			"duration_ms", durationMs,
		)
	}

	if rt.collector != nil {
		rt.collector.Record(perf.Entry{
			Kind:       perf.KindRequest,
			Path:       label,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// Timing returns middleware that times every non-asset request under its
// route label. Slow requests log at WARN, the rest at DEBUG. A nil collector
// only disables the perf dashboard feed.
func Timing(collector *perf.Collector) func(http.Handler) http.Handler {
	rt := requestTimer{collector: collector, threshold: getSlowRequestThreshold()}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAsset(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			label := requestLabel(r)
			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				rt.observe(label, sw.status, start)
				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
