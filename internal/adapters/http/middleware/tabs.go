package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"rpotraining/internal/application/router"
)

// TabCookieName names the cookie that identifies a browser tab session.
const TabCookieName = "rpo_tab"

// DefaultTabIdle is how long an untouched tab keeps its navigation state.
const DefaultTabIdle = 12 * time.Hour

// SecureCookies marks cookies Secure. Set in production.
var SecureCookies bool

type contextKey string

const tabContextKey contextKey = "tab"

type tab struct {
	mu       sync.Mutex
	nav      router.NavState
	lastSeen time.Time
}

// TabStore holds per-tab navigation state in memory. Entries die with the
// process or after DefaultTabIdle without use.
type TabStore struct {
	mu   sync.Mutex
	tabs map[string]*tab
	idle time.Duration
	now  func() time.Time
}

// NewTabStore creates an empty store. idle <= 0 selects DefaultTabIdle.
func NewTabStore(idle time.Duration) *TabStore {
	if idle <= 0 {
		idle = DefaultTabIdle
	}
	return &TabStore{
		tabs: make(map[string]*tab),
		idle: idle,
		now:  time.Now,
	}
}

// Create registers a fresh tab and returns its token.
// PRE: none
// POST: token maps to a zero NavState
func (ts *TabStore) Create() string {
	token := uuid.NewString()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tabs[token] = &tab{lastSeen: ts.now()}
	return token
}

// Has reports whether token names a live tab.
func (ts *TabStore) Has(token string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.tabs[token]
	if !ok {
		return false
	}
	if ts.now().Sub(t.lastSeen) > ts.idle {
		delete(ts.tabs, token)
		return false
	}
	return true
}

// With runs fn with exclusive access to the tab's navigation state.
// Unknown tokens get a fresh state that is kept for later requests.
// PRE: token is non-empty
// POST: the tab's lastSeen is refreshed
func (ts *TabStore) With(token string, fn func(nav *router.NavState)) {
	ts.mu.Lock()
	t, ok := ts.tabs[token]
	if !ok {
		t = &tab{}
		ts.tabs[token] = t
	}
	t.lastSeen = ts.now()
	ts.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.nav)
}

// Len returns the number of live tabs.
func (ts *TabStore) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tabs)
}

// Sweep drops tabs idle for longer than the store's idle limit.
// POST: returns the number of tabs removed
func (ts *TabStore) Sweep() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	removed := 0
	now := ts.now()
	for token, t := range ts.tabs {
		if now.Sub(t.lastSeen) > ts.idle {
			delete(ts.tabs, token)
			removed++
		}
	}
	return removed
}

// Tabs returns middleware that attaches a tab token to every non-asset
// request, issuing a session cookie for new or expired tabs. Asset requests
// pass through untouched so they never allocate a tab.
func Tabs(store *TabStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAsset(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			token := ""
			if c, err := r.Cookie(TabCookieName); err == nil && store.Has(c.Value) {
				token = c.Value
			}
			if token == "" {
				token = store.Create()
				SetTabCookie(w, token)
			}
			ctx := context.WithValue(r.Context(), tabContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TabFromContext returns the tab token set by Tabs.
func TabFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tabContextKey).(string)
	return token, ok && token != ""
}

// ContextWithTab returns a context carrying token.
// Intended for use in tests.
func ContextWithTab(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tabContextKey, token)
}

// SetTabCookie sets the tab cookie. It has no MaxAge so it ends with the browser session.
func SetTabCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TabCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}
