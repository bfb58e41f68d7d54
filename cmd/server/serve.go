package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rpotraining/internal/adapters/content"
	emailPkg "rpotraining/internal/adapters/email"
	web "rpotraining/internal/adapters/http"
	"rpotraining/internal/adapters/http/middleware"
	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/adapters/http/view"
	"rpotraining/internal/adapters/storage"
	"rpotraining/internal/adapters/storage/kv"
	"rpotraining/internal/application/orchestrators"
	"rpotraining/internal/application/router"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
	"rpotraining/static"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
	visitorIdle     = 10 * time.Minute
)

func newServeCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the course web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.addr, "addr", cfg.addr, "listen address (RPO_ADDR)")
	f.StringVar(&cfg.env, "env", cfg.env, "development or production (RPO_ENV)")
	f.StringVar(&cfg.contentDir, "content-dir", cfg.contentDir, "directory holding sessions/ (RPO_CONTENT_DIR)")
	f.StringVar(&cfg.contentURL, "content-url", cfg.contentURL, "remote content origin; overrides --content-dir (RPO_CONTENT_URL)")
	f.DurationVar(&cfg.fetchTimeout, "fetch-timeout", cfg.fetchTimeout, "remote content timeout, 0 disables (RPO_FETCH_TIMEOUT)")
	f.BoolVar(&cfg.ephemeral, "ephemeral", false, "keep progress in memory only")
	return cmd
}

// loadCatalogue returns the YAML catalogue at path, or the built-in course.
func loadCatalogue(path string) (*catalogue.Catalogue, error) {
	if path == "" {
		return catalogue.Default(), nil
	}
	return catalogue.LoadFile(path)
}

// openStore returns the progress store and its close function.
func openStore(cfg config, collector *perf.Collector) (tracker.ProgressStore, func() error, error) {
	if cfg.ephemeral {
		return kv.NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := storage.Open(cfg.db)
	if err != nil {
		return nil, nil, err
	}
	timed := storage.NewTimedDB(db, collector)
	return kv.NewSQLiteStore(timed), timed.Close, nil
}

func newFetcher(cfg config, collector *perf.Collector) (content.Fetcher, error) {
	if cfg.contentURL != "" {
		return content.NewHTTPFetcher(cfg.contentURL,
			content.WithTimeout(cfg.fetchTimeout),
			content.WithCollector(collector),
		)
	}
	return content.NewDirFetcher(cfg.contentDir, collector), nil
}

func newSender(cfg config) emailPkg.Sender {
	if cfg.resendKey == "" {
		return emailPkg.NewNoopSender()
	}
	return emailPkg.NewResendSender(cfg.resendKey, cfg.notifyFrom)
}

func runServe(ctx context.Context, cfg config) error {
	middleware.SecureCookies = cfg.production()

	cat, err := loadCatalogue(cfg.cataloguePath)
	if err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	store, closeStore, err := openStore(cfg, collector)
	if err != nil {
		return err
	}
	defer closeStore()

	tr, err := tracker.New(ctx, tracker.Deps{Store: store, Catalogue: cat, Key: cfg.progressKey})
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg, collector)
	if err != nil {
		return err
	}
	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	csrfKey, err := web.LoadCSRFKey(cfg.csrfKey, cfg.production())
	if err != nil {
		return err
	}

	var notifier *orchestrators.MilestoneNotifier
	if to := cfg.recipients(); len(to) > 0 {
		notifier = orchestrators.NewMilestoneNotifier(orchestrators.NotifyMilestonesDeps{
			Sender:    newSender(cfg),
			Catalogue: cat,
			From:      cfg.notifyFrom,
			To:        to,
		}, orchestrators.DefaultNotifyQueue)
		tr.OnChange(notifier.Observe)
	}

	tabs := middleware.NewTabStore(middleware.DefaultTabIdle)
	limiter := middleware.NewRateLimiter(web.DefaultRateLimitPerSecond, time.Second)
	deps := web.Deps{
		Catalogue: cat,
		Tracker:   tr,
		Router:    router.New(router.Deps{Catalogue: cat, Progress: tr, Fetcher: fetcher}),
		Renderer:  renderer,
		Tabs:      tabs,
		Collector: collector,
		Static:    static.FS,
	}
	if cfg.contentURL == "" {
		deps.ContentDir = cfg.contentDir
	}

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           web.NewMux(deps, web.Config{CSRFKey: csrfKey, Limiter: limiter}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("RPO training %s starting on %s (env=%s, schema=%d, sessions=%d)",
			version, cfg.addr, cfg.env, storage.LatestSchemaVersion(), len(cat.Order()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return middleware.RunJanitor(gctx, janitorInterval,
			func() { tabs.Sweep() },
			func() { limiter.Sweep(visitorIdle) },
		)
	})
	if notifier != nil {
		g.Go(func() error { return notifier.Run(gctx) })
	}

	err = g.Wait()
	log.Printf("RPO training stopped")
	return err
}
