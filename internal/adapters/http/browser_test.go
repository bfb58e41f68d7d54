package web_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"rpotraining/internal/adapters/content"
	web "rpotraining/internal/adapters/http"
	"rpotraining/internal/adapters/http/middleware"
	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/adapters/http/view"
	"rpotraining/internal/adapters/storage"
	"rpotraining/internal/adapters/storage/kv"
	"rpotraining/internal/application/router"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
	"rpotraining/static"
)

// browserApp holds the running server and Playwright handles.
type browserApp struct {
	BaseURL string
	Browser playwright.Browser
}

// newBrowserApp serves the full stack over a temp SQLite file and starts Chromium.
// The test is skipped when the Playwright driver is not installed.
func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sessions"), 0o755)
	os.WriteFile(filepath.Join(dir, "sessions", "1-1.html"),
		[]byte(`<button class="back-btn" onclick="showPage('module-1')">Back</button><h2>Prompt Engineering 101</h2>`), 0o644)
	os.WriteFile(filepath.Join(dir, "sessions", "1-2.md"), []byte("## Email Lab\n\nDraft three emails."), 0o644)

	db, err := storage.Open(filepath.Join(dir, "progress.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	collector := perf.NewCollector(1000)
	cat := catalogue.Default()
	tr, err := tracker.New(context.Background(), tracker.Deps{
		Store:     kv.NewSQLiteStore(storage.NewTimedDB(db, collector)),
		Catalogue: cat,
	})
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	renderer, err := view.New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := web.NewMux(web.Deps{
		Catalogue:  cat,
		Tracker:    tr,
		Router:     router.New(router.Deps{Catalogue: cat, Progress: tr, Fetcher: content.NewDirFetcher(dir, collector)}),
		Renderer:   renderer,
		Tabs:       middleware.NewTabStore(0),
		Collector:  collector,
		Static:     static.FS,
		ContentDir: dir,
	}, web.Config{
		CSRFKey:        make([]byte, 32),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
		Limiter:        middleware.NewRateLimiter(1000, time.Second),
	})
	srv := &http.Server{Handler: handler}
	go srv.Serve(listener)

	pw, err := playwright.Run()
	if err != nil {
		srv.Close()
		db.Close()
		t.Skipf("playwright unavailable: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		pw.Stop()
		srv.Close()
		db.Close()
		t.Skipf("chromium unavailable: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &browserApp{BaseURL: fmt.Sprintf("http://127.0.0.1:%d", port), Browser: browser}
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	bctx, err := a.Browser.NewContext()
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	t.Cleanup(func() { bctx.Close() })
	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	return page
}

func waitVisible(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		t.Fatalf("%s not visible: %v", selector, err)
	}
}

// TestBrowser_CompleteSessionFlow walks catalogue → module → session → mark complete → back.
func TestBrowser_CompleteSessionFlow(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	waitVisible(t, page, "#main-page")

	if err := page.Locator("#module-1-card").Click(); err != nil {
		t.Fatalf("open module: %v", err)
	}
	waitVisible(t, page, ".session-list")

	if err := page.Locator(`a.session-card[href*="session-1-1"]`).Click(); err != nil {
		t.Fatalf("open session: %v", err)
	}
	waitVisible(t, page, "#session-complete-session-1-1")
	if title, _ := page.Locator("#header-title").TextContent(); title != "Session 1.1: Prompt Engineering 101" {
		t.Errorf("header title = %q", title)
	}

	if err := page.Locator("#session-complete-session-1-1").Check(); err != nil {
		t.Fatalf("check box: %v", err)
	}
	waitVisible(t, page, ".session-completion .completed-mark")

	if err := page.Locator("button[data-back-href]").Click(); err != nil {
		t.Fatalf("back button: %v", err)
	}
	waitVisible(t, page, ".session-card.completed")

	if err := page.Locator("a.back-btn").Click(); err != nil {
		t.Fatalf("back to modules: %v", err)
	}
	waitVisible(t, page, "#overall-progress")
	count, _ := page.Locator(`#module-1-card .progress-count`).TextContent()
	if count != "1/3 sessions" {
		t.Errorf("module-1 badge = %q, want 1/3 sessions", count)
	}
}

// TestBrowser_DeepLink tests that a fragment in the address opens the session.
func TestBrowser_DeepLink(t *testing.T) {
	app := newBrowserApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/#session-1-2"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	waitVisible(t, page, "#session-complete-session-1-2")
	if text, _ := page.Locator("#session-container h2").Last().TextContent(); text != "Email Lab" {
		t.Errorf("markdown heading = %q", text)
	}
}
