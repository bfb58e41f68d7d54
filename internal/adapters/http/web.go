package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"rpotraining/internal/adapters/http/middleware"
	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/adapters/http/view"
	"rpotraining/internal/application/router"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
)

// Deps holds everything the web layer serves.
type Deps struct {
	Catalogue *catalogue.Catalogue
	Tracker   *tracker.Tracker
	Router    *router.Router
	Renderer  *view.Renderer
	Tabs      *middleware.TabStore
	Collector *perf.Collector

	Static     fs.FS  // served under /static/
	ContentDir string // served under /sessions/ when non-empty
	Now        func() time.Time
}

// Config holds HTTP security settings.
type Config struct {
	CSRFKey        []byte
	TrustedOrigins []string
	Limiter        *middleware.RateLimiter // defaults to DefaultRateLimitPerSecond
}

// DefaultRateLimitPerSecond is the per-IP request budget.
const DefaultRateLimitPerSecond = 20

// LoadCSRFKey decodes RPO_CSRF_KEY (hex-encoded, 32 bytes).
// In production the key must be set. Otherwise a random key is generated
// and forms stop validating after a restart.
func LoadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("RPO_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("RPO_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_random", "hint", "set RPO_CSRF_KEY so forms survive restarts")
	return key, nil
}

// NewMux wires HTTP handlers and middleware.
// PRE: deps.Catalogue, Tracker, Router, Renderer and Tabs are non-nil; cfg.CSRFKey is 32 bytes
// POST: returns the root handler
func NewMux(deps Deps, cfg Config) http.Handler {
	s := &server{
		cat:       deps.Catalogue,
		tracker:   deps.Tracker,
		router:    deps.Router,
		renderer:  deps.Renderer,
		tabs:      deps.Tabs,
		collector: deps.Collector,
		now:       deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	if deps.Static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(deps.Static)))
	}
	if deps.ContentDir != "" {
		mux.Handle("GET /sessions/", http.FileServer(http.Dir(deps.ContentDir)))
	}
	s.registerRoutes(mux)

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(DefaultRateLimitPerSecond, time.Second)
	}

	// Outermost last: Timing -> RateLimit -> Tabs -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(cfg.CSRFKey, cfg.TrustedOrigins),
		middleware.Tabs(deps.Tabs),
		middleware.RateLimit(limiter),
		middleware.Timing(deps.Collector),
	)
}
