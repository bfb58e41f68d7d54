package projections

import (
	"rpotraining/internal/domain/catalogue"
)

// UntitledModuleHeading is shown when a module id has no catalogue title.
const UntitledModuleHeading = "Select a Session"

// GetModuleMenuQuery carries input for the module menu projection.
type GetModuleMenuQuery struct {
	ModuleID catalogue.ModuleID
}

// GetModuleMenuDeps holds dependencies for the module menu projection.
type GetModuleMenuDeps struct {
	Catalogue *catalogue.Catalogue
	Progress  ProgressReader
}

// MenuEntry is one selectable session in a module menu.
type MenuEntry struct {
	SessionID catalogue.SessionID `json:"session_id"`
	Title     string              `json:"title"`
	Completed bool                `json:"completed"`
}

// ModuleMenu lists a module's sessions and where the back control leads.
type ModuleMenu struct {
	ModuleID catalogue.ModuleID `json:"module_id"`
	Heading  string             `json:"heading"`
	Sessions []MenuEntry        `json:"sessions"`
	BackTo   string             `json:"back_to"`
}

// QueryGetModuleMenu lists the module's catalogue sessions in catalogue order.
// PRE: deps are non-nil
// POST: Sessions is empty (not nil) for modules without sessions
func QueryGetModuleMenu(query GetModuleMenuQuery, deps GetModuleMenuDeps) ModuleMenu {
	heading, ok := deps.Catalogue.ModuleTitle(query.ModuleID)
	if !ok {
		heading = UntitledModuleHeading
	}
	sessions := deps.Catalogue.SessionsForModule(query.ModuleID)
	menu := ModuleMenu{
		ModuleID: query.ModuleID,
		Heading:  heading,
		Sessions: make([]MenuEntry, 0, len(sessions)),
		BackTo:   catalogue.MainPageID,
	}
	for _, s := range sessions {
		menu.Sessions = append(menu.Sessions, MenuEntry{
			SessionID: s.ID,
			Title:     s.Title,
			Completed: deps.Progress.IsComplete(s.ID),
		})
	}
	return menu
}
