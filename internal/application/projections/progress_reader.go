package projections

import (
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
	"rpotraining/internal/domain/progress"
)

// ProgressReader is the read side of the progress tracker used by projections.
type ProgressReader interface {
	IsComplete(id catalogue.SessionID) bool
	Record(id catalogue.SessionID) (progress.CompletionRecord, bool)
	ModuleProgress(m catalogue.ModuleID) progress.Summary
	OverallProgress() progress.Summary
	NextIncompleteSession() (tracker.Next, bool)
}

var _ ProgressReader = (*tracker.Tracker)(nil)
