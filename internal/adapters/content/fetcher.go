// Package content retrieves session fragments from a remote origin or a local
// directory.
package content

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound means the fragment does not exist at the source.
	ErrNotFound = errors.New("content not found")
	// ErrStatus means the origin answered with a non-2xx status.
	ErrStatus = errors.New("unexpected content status")
	// ErrBadPath means the requested path is not a plain relative path.
	ErrBadPath = errors.New("invalid content path")
)

// Fetcher retrieves a session fragment by its relative path,
// e.g. "sessions/1-1.html".
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// checkPath rejects absolute paths and parent references.
func checkPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, "\\") {
		return ErrBadPath
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." || seg == "" {
			return ErrBadPath
		}
	}
	return nil
}
