package projections

import (
	"rpotraining/internal/domain/catalogue"
	"rpotraining/internal/domain/progress"
)

// GetCatalogueViewDeps holds dependencies for the catalogue view projection.
type GetCatalogueViewDeps struct {
	Catalogue *catalogue.Catalogue
	Progress  ProgressReader
}

// ModuleBadge is one module card's progress indicator.
type ModuleBadge struct {
	ModuleID catalogue.ModuleID `json:"module_id"`
	Title    string             `json:"title"`
	progress.Summary
}

// OverallBanner is the course-wide progress indicator.
// Visible is true once at least one session is complete.
type OverallBanner struct {
	progress.Summary
	Visible bool `json:"visible"`
}

// ContinuePrompt names the next session to take. Hidden when the course is done.
type ContinuePrompt struct {
	SessionID catalogue.SessionID `json:"session_id,omitempty"`
	Title     string              `json:"title,omitempty"`
	Visible   bool                `json:"visible"`
}

// CatalogueView carries everything the catalogue page shows.
type CatalogueView struct {
	Title    string         `json:"title"`
	Modules  []ModuleBadge  `json:"modules"`
	Overall  OverallBanner  `json:"overall"`
	Continue ContinuePrompt `json:"continue"`
}

// QueryGetCatalogueView computes badges, the overall banner and the continue prompt.
// PRE: deps are non-nil
// POST: one badge per catalogue module, in catalogue order
func QueryGetCatalogueView(deps GetCatalogueViewDeps) CatalogueView {
	modules := deps.Catalogue.Modules()
	view := CatalogueView{
		Title:   deps.Catalogue.Title(),
		Modules: make([]ModuleBadge, 0, len(modules)),
	}
	for _, m := range modules {
		view.Modules = append(view.Modules, ModuleBadge{
			ModuleID: m.ID,
			Title:    m.Title,
			Summary:  deps.Progress.ModuleProgress(m.ID),
		})
	}

	overall := deps.Progress.OverallProgress()
	view.Overall = OverallBanner{Summary: overall, Visible: overall.Completed > 0}

	if next, ok := deps.Progress.NextIncompleteSession(); ok {
		view.Continue = ContinuePrompt{SessionID: next.ID, Title: next.Title, Visible: true}
	}
	return view
}
