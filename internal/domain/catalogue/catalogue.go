package catalogue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validation errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrUndeclaredModule  = errors.New("session belongs to an undeclared module")
	ErrUnknownOrderEntry = errors.New("order entry is not a catalogue session")

	ErrSessionModuleMismatch = errors.New("session is listed under a different module")
)

// Module is a top-level course unit.
type Module struct {
	ID    ModuleID `json:"id"`
	Title string   `json:"title"`
}

// Session is a single lesson with its own content fragment.
type Session struct {
	ID    SessionID `json:"id"`
	Title string    `json:"title"`
}

// Catalogue is the fixed set of modules and sessions the course is built from.
// INVARIANT: immutable after New returns; accessors hand out copies.
type Catalogue struct {
	title         string
	modules       []Module
	sessions      []Session
	order         []SessionID
	moduleTitles  map[ModuleID]string
	sessionTitles map[SessionID]string
}

// New validates the given tables and builds a catalogue.
// An empty order defaults to the session insertion order.
// PRE: none
// POST: returns an immutable catalogue or the first validation error
func New(title string, modules []Module, sessions []Session, order []SessionID) (*Catalogue, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("catalogue: %w", ErrEmptyTitle)
	}

	c := &Catalogue{
		title:         title,
		modules:       slices.Clone(modules),
		sessions:      slices.Clone(sessions),
		moduleTitles:  make(map[ModuleID]string, len(modules)),
		sessionTitles: make(map[SessionID]string, len(sessions)),
	}

	for _, m := range modules {
		if _, err := m.ID.Number(); err != nil {
			return nil, err
		}
		if m.Title == "" {
			return nil, fmt.Errorf("module %s: %w", m.ID, ErrEmptyTitle)
		}
		if _, dup := c.moduleTitles[m.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		c.moduleTitles[m.ID] = m.Title
	}

	for _, s := range sessions {
		if _, _, err := ParseSessionID(string(s.ID)); err != nil {
			return nil, err
		}
		if s.Title == "" {
			return nil, fmt.Errorf("session %s: %w", s.ID, ErrEmptyTitle)
		}
		if _, dup := c.sessionTitles[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
		if _, ok := c.moduleTitles[s.ID.Module()]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUndeclaredModule, s.ID)
		}
		c.sessionTitles[s.ID] = s.Title
	}

	if len(order) == 0 {
		for _, s := range sessions {
			c.order = append(c.order, s.ID)
		}
		return c, nil
	}
	for _, id := range order {
		if _, ok := c.sessionTitles[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOrderEntry, id)
		}
	}
	c.order = slices.Clone(order)
	return c, nil
}

// Title returns the catalogue (main page) title.
func (c *Catalogue) Title() string { return c.title }

// Modules returns the modules in declaration order.
func (c *Catalogue) Modules() []Module { return slices.Clone(c.modules) }

// Sessions returns every session in catalogue order.
func (c *Catalogue) Sessions() []Session { return slices.Clone(c.sessions) }

// Order returns the fixed completion sequence used to suggest the next session.
func (c *Catalogue) Order() []SessionID { return slices.Clone(c.order) }

// SessionsForModule lists the sessions whose id carries the module's number,
// in catalogue order. Unknown or empty modules yield an empty slice.
func (c *Catalogue) SessionsForModule(m ModuleID) []Session {
	prefix := m.sessionPrefix()
	list := []Session{}
	for _, s := range c.sessions {
		if strings.HasPrefix(string(s.ID), prefix) {
			list = append(list, s)
		}
	}
	return list
}

// ModuleTitle looks up a module's display title.
func (c *Catalogue) ModuleTitle(m ModuleID) (string, bool) {
	t, ok := c.moduleTitles[m]
	return t, ok
}

// SessionTitle looks up a session's display title.
func (c *Catalogue) SessionTitle(s SessionID) (string, bool) {
	t, ok := c.sessionTitles[s]
	return t, ok
}

// HasModule reports whether the module is declared.
func (c *Catalogue) HasModule(m ModuleID) bool {
	_, ok := c.moduleTitles[m]
	return ok
}

// TitleFor resolves the header title for any page id, falling back to the
// catalogue title for ids it does not know.
func (c *Catalogue) TitleFor(id string) string {
	if t, ok := c.sessionTitles[SessionID(id)]; ok {
		return t
	}
	if t, ok := c.moduleTitles[ModuleID(id)]; ok {
		return t
	}
	return c.title
}

// IsKnownPage reports whether id names the main page, a declared module or a
// catalogue session. Used to vet deep links.
func (c *Catalogue) IsKnownPage(id string) bool {
	if id == MainPageID {
		return true
	}
	if _, ok := c.sessionTitles[SessionID(id)]; ok {
		return true
	}
	_, ok := c.moduleTitles[ModuleID(id)]
	return ok
}
