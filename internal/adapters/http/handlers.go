package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/csrf"

	"rpotraining/internal/adapters/http/middleware"
	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/adapters/http/view"
	"rpotraining/internal/application/projections"
	"rpotraining/internal/application/router"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
	"rpotraining/internal/domain/progress"
)

// maxSessionIDLen bounds ids accepted by the mark-complete endpoint.
const maxSessionIDLen = 128

// perfWindow is how far back /api/perf aggregates.
const perfWindow = time.Hour

type server struct {
	cat       *catalogue.Catalogue
	tracker   *tracker.Tracker
	router    *router.Router
	renderer  *view.Renderer
	tabs      *middleware.TabStore
	collector *perf.Collector
	now       func() time.Time
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// navigate runs one navigation for the request's tab and renders the page.
func (s *server) navigate(w http.ResponseWriter, r *http.Request, req router.Request) {
	token, ok := middleware.TabFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tab session", http.StatusBadRequest)
		return
	}

	var v router.View
	s.tabs.With(token, func(nav *router.NavState) {
		v = s.router.Navigate(r.Context(), nav, req)
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := s.renderer.Page(w, view.PageData{
		CourseTitle: s.cat.Title(),
		View:        v,
		CSRFField:   csrf.TemplateField(r),
		Now:         s.now(),
	})
	if err != nil {
		internalError(w, err)
	}
}

// handleIndex serves the initial view, honouring a forwarded deep link.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	target := s.router.InitialTarget(r.URL.Query().Get("start"))
	s.navigate(w, r, router.Request{Target: target})
}

// handlePage serves /page?id=<id>[&scroll=N][&back=1].
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scroll, _ := strconv.Atoi(q.Get("scroll"))
	s.navigate(w, r, router.Request{
		Target:  q.Get("id"),
		ScrollY: max(scroll, 0),
		Back:    q.Get("back") == "1",
	})
}

type completeResponse struct {
	SessionID catalogue.SessionID       `json:"session_id"`
	Record    progress.CompletionRecord `json:"record"`
	Module    progress.Summary          `json:"module"`
	Overall   progress.Summary          `json:"overall"`
}

// handleComplete marks a session complete. Form posts redirect back to the
// session; JSON callers get the updated counts. An unchecked box does nothing.
func (s *server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	isJSON := wantsJSON(r)
	if !isJSON {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		if id == "" {
			id = r.PostFormValue("id")
		}
	}
	if id == "" || len(id) > maxSessionIDLen {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}
	sid := catalogue.SessionID(id)

	if !isJSON && r.PostFormValue("completed") == "" {
		http.Redirect(w, r, router.PageHref(id), http.StatusSeeOther)
		return
	}

	rec, err := s.tracker.MarkComplete(r.Context(), sid)
	if err != nil {
		internalError(w, err)
		return
	}

	if isJSON {
		writeJSON(w, http.StatusOK, completeResponse{
			SessionID: sid,
			Record:    rec,
			Module:    s.tracker.ModuleProgress(sid.Module()),
			Overall:   s.tracker.OverallProgress(),
		})
		return
	}
	http.Redirect(w, r, router.PageHref(id), http.StatusSeeOther)
}

type progressResponse struct {
	Overall  progress.Summary          `json:"overall"`
	Modules  []projections.ModuleBadge `json:"modules"`
	Next     *tracker.Next             `json:"next"`
	Progress progress.Progress         `json:"progress"`
}

// handleProgress returns every progress figure plus the raw mapping.
func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	cv := projections.QueryGetCatalogueView(projections.GetCatalogueViewDeps{
		Catalogue: s.cat,
		Progress:  s.tracker,
	})
	resp := progressResponse{
		Overall:  cv.Overall.Summary,
		Modules:  cv.Modules,
		Progress: s.tracker.Snapshot(),
	}
	if next, ok := s.tracker.NextIncompleteSession(); ok {
		resp.Next = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleModuleProgress returns one module's summary.
func (s *server) handleModuleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	m := catalogue.ModuleID(id)
	if _, err := m.Number(); err != nil {
		http.Error(w, "invalid module id", http.StatusBadRequest)
		return
	}
	title, _ := s.cat.ModuleTitle(m)
	writeJSON(w, http.StatusOK, projections.ModuleBadge{
		ModuleID: m,
		Title:    title,
		Summary:  s.tracker.ModuleProgress(m),
	})
}

type catalogueResponse struct {
	Title    string                `json:"title"`
	Modules  []catalogue.Module    `json:"modules"`
	Sessions []catalogue.Session   `json:"sessions"`
	Order    []catalogue.SessionID `json:"order"`
}

// handleCatalogue returns the loaded catalogue.
func (s *server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogueResponse{
		Title:    s.cat.Title(),
		Modules:  s.cat.Modules(),
		Sessions: s.cat.Sessions(),
		Order:    s.cat.Order(),
	})
}

// handleProgressFragment re-renders the catalogue's progress indicators.
func (s *server) handleProgressFragment(w http.ResponseWriter, r *http.Request) {
	cv := projections.QueryGetCatalogueView(projections.GetCatalogueViewDeps{
		Catalogue: s.cat,
		Progress:  s.tracker,
	})
	out, err := s.renderer.Progress(cv)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(out))
}

// handlePerf returns the last hour of timing aggregates.
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	topN := 10
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 && n <= 100 {
		topN = n
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot(s.now().Add(-perfWindow), topN))
}
