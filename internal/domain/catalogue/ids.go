package catalogue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Id prefixes and the reserved catalogue page id.
const (
	MainPageID    = "main-page"
	SessionPrefix = "session-"
	ModulePrefix  = "module-"
	pageSuffix    = "-page"
)

// Domain errors.
var (
	ErrInvalidSessionID = errors.New("session id must look like session-<module>-<index>")
	ErrInvalidModuleID  = errors.New("module id must look like module-<n>")
)

// SessionID identifies a single lesson, e.g. "session-2-3".
type SessionID string

// ModuleID identifies a course module, e.g. "module-2".
type ModuleID string

// ParseSessionID splits a session id into its module number and index.
// PRE: none
// POST: returns module and index >= 1, or ErrInvalidSessionID
func ParseSessionID(id string) (module int, index int, err error) {
	rest, ok := strings.CutPrefix(id, SessionPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	modPart, idxPart, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	module, ok = positive(modPart)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	index, ok = positive(idxPart)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return module, index, nil
}

// positive parses a canonical decimal n >= 1. "01" and "+1" are rejected so
// every number has exactly one spelling and prefix membership stays exact.
func positive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

// Module returns the module the session belongs to.
// PRE: none
// POST: returns "" when the id is malformed
func (s SessionID) Module() ModuleID {
	n, _, err := ParseSessionID(string(s))
	if err != nil {
		return ""
	}
	return ModuleIDFor(n)
}

// Valid reports whether the id is a well-formed session id.
func (s SessionID) Valid() bool {
	_, _, err := ParseSessionID(string(s))
	return err == nil
}

// ModuleIDFor builds the module id for module number n.
func ModuleIDFor(n int) ModuleID {
	return ModuleID(ModulePrefix + strconv.Itoa(n))
}

// Number parses the module number out of the id.
// PRE: none
// POST: returns n >= 1, or ErrInvalidModuleID
func (m ModuleID) Number() (int, error) {
	rest, ok := strings.CutPrefix(string(m), ModulePrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidModuleID, string(m))
	}
	n, ok := positive(rest)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidModuleID, string(m))
	}
	return n, nil
}

// sessionPrefix returns the id prefix shared by every session of the module.
// Membership is decided by this prefix alone, so "module-1" never matches "session-10-1".
func (m ModuleID) sessionPrefix() string {
	return SessionPrefix + strings.TrimPrefix(string(m), ModulePrefix) + "-"
}

// IsModuleID reports whether a page id addresses a module menu.
func IsModuleID(id string) bool {
	return strings.HasPrefix(id, ModulePrefix)
}

// ContentPath derives the fragment path for a page id by stripping the
// session prefix and page suffix: "session-1-2" -> "sessions/1-2.html".
func ContentPath(id string) string {
	stem := strings.Replace(id, SessionPrefix, "", 1)
	stem = strings.Replace(stem, pageSuffix, "", 1)
	return "sessions/" + stem + ".html"
}
