package projections

import (
	"time"

	"rpotraining/internal/domain/catalogue"
)

// GetSessionControlQuery carries input for the completion control projection.
type GetSessionControlQuery struct {
	SessionID catalogue.SessionID
}

// SessionControl is the state behind a session's completion checkbox.
type SessionControl struct {
	SessionID   catalogue.SessionID `json:"session_id"`
	Completed   bool                `json:"completed"`
	CompletedAt time.Time           `json:"completed_at"`
}

// QueryGetSessionControl reads the completion state of one session.
// PRE: progress is non-nil
// POST: Completed is false for unknown sessions
func QueryGetSessionControl(query GetSessionControlQuery, progress ProgressReader) SessionControl {
	ctrl := SessionControl{SessionID: query.SessionID}
	if rec, ok := progress.Record(query.SessionID); ok && rec.Completed {
		ctrl.Completed = true
		ctrl.CompletedAt = rec.CompletedAt
	}
	return ctrl
}
