// Package router decides which of the three course views a navigation
// request lands on and assembles the data that view needs.
package router

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"rpotraining/internal/adapters/content"
	"rpotraining/internal/application/projections"
	"rpotraining/internal/domain/catalogue"
)

// ErrorMessage replaces session content that could not be loaded.
const ErrorMessage = "Error loading content. Please try again later."

// ScrollCorrection is subtracted from the saved catalogue offset on return,
// leaving some space above the card the learner left from.
const ScrollCorrection = 100

// State is one of the router's view states.
type State int

const (
	StateCatalogue State = iota
	StateModuleMenu
	StateSession
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateCatalogue:
		return "catalogue"
	case StateModuleMenu:
		return "module_menu"
	case StateSession:
		return "session"
	default:
		return "unknown"
	}
}

// NavState is the tab-scoped navigation memory. It is lost with the tab.
type NavState struct {
	Active            State
	MainScroll        *int // one-shot catalogue scroll marker
	CurrentModule     catalogue.ModuleID
	LastVisitedModule catalogue.ModuleID
}

// Request is one navigation.
type Request struct {
	Target  string
	ScrollY int  // scroll offset of the page being left
	Back    bool // issued by a fragment's back control
}

// SessionView is the session container's content.
type SessionView struct {
	SessionID catalogue.SessionID
	Control   projections.SessionControl
	Content   string // fetched fragment with its back control rewired
	Failed    bool
	BackHref  string
}

// View is the outcome of a navigation. Exactly one of Catalogue, Menu and
// Session is set, matching State.
type View struct {
	State         State
	Target        string
	HeaderTitle   string
	RestoreScroll *int
	ScrollTop     bool

	Catalogue *projections.CatalogueView
	Menu      *projections.ModuleMenu
	Session   *SessionView
}

// Deps holds the router's dependencies.
type Deps struct {
	Catalogue *catalogue.Catalogue
	Progress  projections.ProgressReader
	Fetcher   content.Fetcher
}

// Router is the navigation controller. It holds no per-tab state.
type Router struct {
	cat      *catalogue.Catalogue
	progress projections.ProgressReader
	fetcher  content.Fetcher
}

// New creates a Router.
func New(deps Deps) *Router {
	return &Router{
		cat:      deps.Catalogue,
		progress: deps.Progress,
		fetcher:  deps.Fetcher,
	}
}

// PageHref is the link that navigates to id.
func PageHref(id string) string {
	return "/page?id=" + url.QueryEscape(id)
}

// BackHref is the link a fragment's back control follows.
func BackHref(id string) string {
	return PageHref(id) + "&back=1"
}

// InitialTarget resolves a deep-link fragment to the first page to show.
// PRE: none
// POST: returns a known page id, or the catalogue id
func (r *Router) InitialTarget(fragment string) string {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if fragment != "" && r.cat.IsKnownPage(fragment) {
		return fragment
	}
	return catalogue.MainPageID
}

// Navigate moves nav to req.Target and returns the view to render.
// Fetch failures are reported inside the view; Navigate never fails.
// PRE: nav is non-nil
// POST: nav.Active equals the returned view's State
func (r *Router) Navigate(ctx context.Context, nav *NavState, req Request) View {
	target := req.Target
	if target == "" {
		target = catalogue.MainPageID
	}

	if req.Back {
		nav.LastVisitedModule = ""
	}
	if nav.Active == StateCatalogue && target != catalogue.MainPageID {
		y := req.ScrollY
		nav.MainScroll = &y
	}

	view := View{
		Target:      target,
		HeaderTitle: r.cat.TitleFor(target),
	}

	switch {
	case target == catalogue.MainPageID:
		r.showCatalogue(nav, &view)
	case catalogue.IsModuleID(target):
		r.showModuleMenu(nav, &view, catalogue.ModuleID(target))
	default:
		r.showSession(ctx, nav, &view, catalogue.SessionID(target))
	}

	nav.Active = view.State
	slog.Debug("navigated",
		"target", target,
		"state", view.State.String(),
		"back", req.Back,
	)
	return view
}

func (r *Router) showCatalogue(nav *NavState, view *View) {
	view.State = StateCatalogue
	cv := projections.QueryGetCatalogueView(projections.GetCatalogueViewDeps{
		Catalogue: r.cat,
		Progress:  r.progress,
	})
	view.Catalogue = &cv

	if nav.MainScroll != nil {
		y := max(*nav.MainScroll-ScrollCorrection, 0)
		view.RestoreScroll = &y
		nav.MainScroll = nil
	}
}

func (r *Router) showModuleMenu(nav *NavState, view *View, m catalogue.ModuleID) {
	view.State = StateModuleMenu
	view.ScrollTop = true
	menu := projections.QueryGetModuleMenu(
		projections.GetModuleMenuQuery{ModuleID: m},
		projections.GetModuleMenuDeps{Catalogue: r.cat, Progress: r.progress},
	)
	view.Menu = &menu
	nav.CurrentModule = m
}

func (r *Router) showSession(ctx context.Context, nav *NavState, view *View, id catalogue.SessionID) {
	view.State = StateSession
	view.ScrollTop = true
	sv := &SessionView{SessionID: id}
	view.Session = sv

	path := catalogue.ContentPath(string(id))
	fragment, err := r.fetcher.Fetch(ctx, path)
	if err != nil {
		slog.Error("content_fetch_failed",
			"session_id", string(id),
			"path", path,
			"error", err.Error(),
		)
		sv.Failed = true
		return
	}

	if nav.CurrentModule != "" {
		nav.LastVisitedModule = nav.CurrentModule
	}
	back := catalogue.MainPageID
	if nav.LastVisitedModule != "" {
		back = string(nav.LastVisitedModule)
	}
	sv.BackHref = BackHref(back)
	sv.Content, _ = content.RewireBack(fragment, sv.BackHref)
	sv.Control = projections.QueryGetSessionControl(
		projections.GetSessionControlQuery{SessionID: id},
		r.progress,
	)
}
