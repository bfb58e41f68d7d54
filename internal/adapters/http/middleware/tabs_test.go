package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"rpotraining/internal/application/router"
)

// TestTabStore_WithPersistsState tests that state written in one call is seen in the next.
func TestTabStore_WithPersistsState(t *testing.T) {
	ts := NewTabStore(0)
	token := ts.Create()

	ts.With(token, func(nav *router.NavState) { nav.CurrentModule = "module-2" })
	var got router.NavState
	ts.With(token, func(nav *router.NavState) { got = *nav })
	if got.CurrentModule != "module-2" {
		t.Errorf("CurrentModule = %q, want module-2", got.CurrentModule)
	}
}

// TestTabStore_TabsAreIsolated tests that tabs do not share navigation state.
func TestTabStore_TabsAreIsolated(t *testing.T) {
	ts := NewTabStore(0)
	a, b := ts.Create(), ts.Create()
	if a == b {
		t.Fatal("tokens collide")
	}
	ts.With(a, func(nav *router.NavState) { nav.LastVisitedModule = "module-1" })
	ts.With(b, func(nav *router.NavState) {
		if nav.LastVisitedModule != "" {
			t.Errorf("tab b sees %q", nav.LastVisitedModule)
		}
	})
}

// TestTabStore_Sweep tests that idle tabs are dropped.
func TestTabStore_Sweep(t *testing.T) {
	ts := NewTabStore(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	old := ts.Create()
	now = now.Add(2 * time.Hour)
	fresh := ts.Create()

	if removed := ts.Sweep(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if ts.Has(old) || !ts.Has(fresh) {
		t.Errorf("Has(old)=%v Has(fresh)=%v", ts.Has(old), ts.Has(fresh))
	}
}

// TestTabStore_HasExpires tests that lookups drop expired tabs without a sweep.
func TestTabStore_HasExpires(t *testing.T) {
	ts := NewTabStore(time.Minute)
	now := time.Now()
	ts.now = func() time.Time { return now }
	token := ts.Create()
	now = now.Add(2 * time.Minute)

	if ts.Has(token) {
		t.Error("expired tab still live")
	}
	if ts.Len() != 0 {
		t.Errorf("Len = %d, want 0", ts.Len())
	}
}

// TestTabStore_ConcurrentWith tests that With serialises access per tab.
func TestTabStore_ConcurrentWith(t *testing.T) {
	ts := NewTabStore(0)
	token := ts.Create()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts.With(token, func(nav *router.NavState) {
				y := 1
				if nav.MainScroll != nil {
					y = *nav.MainScroll + 1
				}
				nav.MainScroll = &y
			})
		}()
	}
	wg.Wait()
	ts.With(token, func(nav *router.NavState) {
		if nav.MainScroll == nil || *nav.MainScroll != 50 {
			t.Errorf("counter = %v, want 50", nav.MainScroll)
		}
	})
}

// TestTabs_IssuesCookie tests that a request without a cookie gets one.
func TestTabs_IssuesCookie(t *testing.T) {
	ts := NewTabStore(0)
	var seen string
	handler := Tabs(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = TabFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != TabCookieName {
		t.Fatalf("cookies = %v", cookies)
	}
	if cookies[0].MaxAge != 0 || !cookies[0].HttpOnly {
		t.Errorf("cookie = %+v, want session HttpOnly cookie", cookies[0])
	}
	if seen != cookies[0].Value {
		t.Errorf("context token = %q, cookie = %q", seen, cookies[0].Value)
	}
}

// TestTabs_AssetsDoNotAllocateTabs tests that static and fragment requests
// arriving before the first page's cookie leave the store empty.
func TestTabs_AssetsDoNotAllocateTabs(t *testing.T) {
	ts := NewTabStore(0)
	handler := Tabs(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TabFromContext(r.Context()); ok && r.URL.Path != "/page" {
			t.Errorf("%s: asset request carries a tab", r.URL.Path)
		}
	}))

	for _, path := range []string{"/static/css/style.css", "/static/js/app.js", "/sessions/1-1.html"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if cookies := rr.Result().Cookies(); len(cookies) != 0 {
			t.Errorf("%s: cookies = %v, want none", path, cookies)
		}
	}
	if ts.Len() != 0 {
		t.Errorf("Len = %d, want 0", ts.Len())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/page?id=main-page", nil))
	if ts.Len() != 1 {
		t.Errorf("after navigation Len = %d, want 1", ts.Len())
	}
}

// TestTabs_ReusesKnownCookie tests that a live tab keeps its token.
func TestTabs_ReusesKnownCookie(t *testing.T) {
	ts := NewTabStore(0)
	token := ts.Create()
	handler := Tabs(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got, _ := TabFromContext(r.Context()); got != token {
			t.Errorf("token = %q, want %q", got, token)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: TabCookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if len(rr.Result().Cookies()) != 0 {
		t.Error("cookie reissued for a live tab")
	}
}

// TestTabs_ReplacesUnknownCookie tests that a forged or expired token is replaced.
func TestTabs_ReplacesUnknownCookie(t *testing.T) {
	ts := NewTabStore(0)
	handler := Tabs(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: TabCookieName, Value: "forged"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "forged" {
		t.Errorf("cookies = %v, want a fresh token", cookies)
	}
}
