// Package tracker holds the learner's completion state for one course and
// answers the progress questions the views need.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rpotraining/internal/domain/catalogue"
	"rpotraining/internal/domain/progress"
)

// DefaultKey is the single persisted key holding the completion mapping.
const DefaultKey = "rpo-training-progress"

// ProgressStore defines the persistence surface the tracker needs.
type ProgressStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Deps holds the tracker's dependencies.
type Deps struct {
	Store     ProgressStore
	Catalogue *catalogue.Catalogue
	Key       string           // defaults to DefaultKey
	Now       func() time.Time // defaults to time.Now
}

// Next is the session the learner should continue with.
type Next struct {
	ID    catalogue.SessionID `json:"id"`
	Title string              `json:"title"`
}

// ChangeEvent describes a completed MarkComplete call.
type ChangeEvent struct {
	SessionID catalogue.SessionID
	Record    progress.CompletionRecord
	Module    catalogue.ModuleID
	ModuleSum progress.Summary
	Overall   progress.Summary
	Repeat    bool // the session was already complete before this call
}

// Tracker is the progress controller. Construct one per course at startup
// and share it by reference.
// INVARIANT: the in-memory mapping always equals the last successfully persisted blob.
type Tracker struct {
	mu        sync.RWMutex
	store     ProgressStore
	cat       *catalogue.Catalogue
	key       string
	now       func() time.Time
	progress  progress.Progress
	listeners []func(ChangeEvent)
}

// New builds a tracker and loads the persisted mapping once.
// PRE: deps.Store and deps.Catalogue are non-nil
// POST: returns a loaded tracker; absent or malformed blobs load as empty progress
func New(ctx context.Context, deps Deps) (*Tracker, error) {
	t := &Tracker{
		store: deps.Store,
		cat:   deps.Catalogue,
		key:   deps.Key,
		now:   deps.Now,
	}
	if t.key == "" {
		t.key = DefaultKey
	}
	if t.now == nil {
		t.now = time.Now
	}
	if err := t.Reload(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the persisted mapping, replacing the in-memory copy.
// PRE: none
// POST: mapping reflects the store; only storage I/O failures are returned
func (t *Tracker) Reload(ctx context.Context) error {
	blob, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	p := progress.Progress{}
	if ok {
		p = progress.Decode(blob)
	}
	t.mu.Lock()
	t.progress = p
	t.mu.Unlock()
	slog.Debug("progress_loaded", "key", t.key, "entries", len(p))
	return nil
}

// Catalogue returns the catalogue the tracker counts against.
func (t *Tracker) Catalogue() *catalogue.Catalogue {
	return t.cat
}

// OnChange registers a listener invoked synchronously after every successful MarkComplete.
// Listeners run outside the tracker's lock and may read from it.
func (t *Tracker) OnChange(fn func(ChangeEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// IsComplete reports whether the session was marked complete.
// PRE: none
// POST: false for unknown ids
func (t *Tracker) IsComplete(id catalogue.SessionID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress.IsComplete(id)
}

// Record returns the stored completion record for a session.
func (t *Tracker) Record(id catalogue.SessionID) (progress.CompletionRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.progress[id]
	return rec, ok
}

// Snapshot returns a copy of the whole mapping.
func (t *Tracker) Snapshot() progress.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress.Clone()
}

// MarkComplete records {completed: true, completedAt: now} for the session,
// persists the whole mapping, then notifies listeners.
// Re-marking refreshes the timestamp. Ids are not checked against the catalogue.
// PRE: id is non-empty
// POST: on nil error the record is durable and visible to IsComplete
func (t *Tracker) MarkComplete(ctx context.Context, id catalogue.SessionID) (progress.CompletionRecord, error) {
	if id == "" {
		return progress.CompletionRecord{}, fmt.Errorf("mark complete: empty session id")
	}

	t.mu.Lock()
	rec := progress.CompletionRecord{Completed: true, CompletedAt: t.now().UTC()}
	repeat := t.progress.IsComplete(id)
	next := t.progress.Clone()
	next[id] = rec

	blob, err := progress.Encode(next)
	if err != nil {
		t.mu.Unlock()
		return progress.CompletionRecord{}, fmt.Errorf("encode progress: %w", err)
	}
	if err := t.store.Put(ctx, t.key, blob); err != nil {
		t.mu.Unlock()
		return progress.CompletionRecord{}, fmt.Errorf("save progress: %w", err)
	}
	t.progress = next

	module := id.Module()
	ev := ChangeEvent{
		SessionID: id,
		Record:    rec,
		Module:    module,
		ModuleSum: t.moduleProgressLocked(module),
		Overall:   t.overallProgressLocked(),
		Repeat:    repeat,
	}
	listeners := append([]func(ChangeEvent){}, t.listeners...)
	t.mu.Unlock()

	slog.Info("progress_marked_complete",
		"session_id", string(id),
		"module_id", string(module),
		"module_completed", ev.ModuleSum.Completed,
		"overall_completed", ev.Overall.Completed,
	)
	for _, fn := range listeners {
		fn(ev)
	}
	return rec, nil
}

// ModuleProgress counts the module's catalogue sessions that are complete.
// PRE: none
// POST: Percentage is 0 for modules without sessions
func (t *Tracker) ModuleProgress(m catalogue.ModuleID) progress.Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.moduleProgressLocked(m)
}

func (t *Tracker) moduleProgressLocked(m catalogue.ModuleID) progress.Summary {
	sessions := t.cat.SessionsForModule(m)
	completed := 0
	for _, s := range sessions {
		if t.progress.IsComplete(s.ID) {
			completed++
		}
	}
	return progress.NewSummary(completed, len(sessions))
}

// OverallProgress counts complete sessions across the whole catalogue.
// Stale ids in the mapping that the catalogue does not list are ignored.
func (t *Tracker) OverallProgress() progress.Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.overallProgressLocked()
}

func (t *Tracker) overallProgressLocked() progress.Summary {
	sessions := t.cat.Sessions()
	completed := 0
	for _, s := range sessions {
		if t.progress.IsComplete(s.ID) {
			completed++
		}
	}
	return progress.NewSummary(completed, len(sessions))
}

// NextIncompleteSession scans the catalogue's fixed order and returns the
// first session not yet complete.
// PRE: none
// POST: ok is false when every ordered session is complete
func (t *Tracker) NextIncompleteSession() (Next, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.cat.Order() {
		if t.progress.IsComplete(id) {
			continue
		}
		title, found := t.cat.SessionTitle(id)
		if !found {
			title = string(id)
		}
		return Next{ID: id, Title: title}, true
	}
	return Next{}, false
}
