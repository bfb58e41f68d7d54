package catalogue

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSession is the YAML shape of a session entry.
type fileSession struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// fileModule is the YAML shape of a module and its sessions.
type fileModule struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Sessions []fileSession `yaml:"sessions"`
}

// file is the top-level YAML catalogue document.
type file struct {
	Title   string       `yaml:"title"`
	Modules []fileModule `yaml:"modules"`
	Order   []string     `yaml:"order,omitempty"`
}

// LoadFile reads and validates a YAML catalogue.
// PRE: path names a readable file
// POST: returns the catalogue or an error naming the file
func LoadFile(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}
	return c, nil
}

// Decode parses a YAML catalogue document.
// Unknown keys are rejected so typos surface at startup.
func Decode(r io.Reader) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	var modules []Module
	var sessions []Session
	for _, m := range doc.Modules {
		modules = append(modules, Module{ID: ModuleID(m.ID), Title: m.Title})
		for _, s := range m.Sessions {
			if got := SessionID(s.ID).Module(); got != "" && got != ModuleID(m.ID) {
				return nil, fmt.Errorf("%w: %s under %s", ErrSessionModuleMismatch, s.ID, m.ID)
			}
			sessions = append(sessions, Session{ID: SessionID(s.ID), Title: s.Title})
		}
	}
	order := make([]SessionID, 0, len(doc.Order))
	for _, id := range doc.Order {
		order = append(order, SessionID(id))
	}

	return New(doc.Title, modules, sessions, order)
}
