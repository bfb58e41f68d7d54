package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"rpotraining/internal/adapters/content"
	"rpotraining/internal/application/tracker"
)

// config is the process configuration. Environment variables seed it and
// command flags override them.
type config struct {
	addr          string
	db            string
	env           string
	cataloguePath string
	contentDir    string
	contentURL    string
	progressKey   string
	csrfKey       string
	fetchTimeout  time.Duration
	resendKey     string
	notifyFrom    string
	notifyTo      string
	logLevel      string
	ephemeral     bool
}

func configFromEnv() config {
	return config{
		addr:          envOrDefault("RPO_ADDR", ":8080"),
		db:            envOrDefault("RPO_DB", "rpo-training.db"),
		env:           envOrDefault("RPO_ENV", "development"),
		cataloguePath: os.Getenv("RPO_CATALOGUE"),
		contentDir:    envOrDefault("RPO_CONTENT_DIR", "content"),
		contentURL:    os.Getenv("RPO_CONTENT_URL"),
		progressKey:   envOrDefault("RPO_PROGRESS_KEY", tracker.DefaultKey),
		csrfKey:       os.Getenv("RPO_CSRF_KEY"),
		fetchTimeout:  durationOrDefault("RPO_FETCH_TIMEOUT", content.DefaultTimeout),
		resendKey:     os.Getenv("RPO_RESEND_KEY"),
		notifyFrom:    envOrDefault("RPO_NOTIFY_FROM", "RPO Training <training@localhost>"),
		notifyTo:      os.Getenv("RPO_NOTIFY_TO"),
		logLevel:      envOrDefault("RPO_LOG_LEVEL", "info"),
	}
}

func (c config) production() bool {
	return c.env == "production"
}

// recipients splits RPO_NOTIFY_TO on commas.
func (c config) recipients() []string {
	var out []string
	for _, addr := range strings.Split(c.notifyTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// envOrDefault returns the value of the environment variable or the fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("ignoring %s=%q: want a non-negative duration such as 10s", key, v)
		return fallback
	}
	return d
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

func setupLogging(levelName string) error {
	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
