package progress

import (
	"log/slog"
	"math"
	"time"

	"github.com/goccy/go-json"

	"rpotraining/internal/domain/catalogue"
)

// CompletionRecord is the persisted fact that a session was marked done.
// INVARIANT: Completed is true for every record written by this package.
type CompletionRecord struct {
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completedAt"`
}

// Progress maps session ids to their completion records.
// Ids are not validated against the catalogue; stale entries are carried as-is.
type Progress map[catalogue.SessionID]CompletionRecord

// IsComplete reports whether the session has a completed record.
// PRE: none
// POST: false for unknown ids
func (p Progress) IsComplete(id catalogue.SessionID) bool {
	return p[id].Completed
}

// Clone returns an independent copy of the mapping.
func (p Progress) Clone() Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Encode serialises the whole mapping into the persisted blob.
// PRE: none
// POST: returns a JSON object keyed by session id
func Encode(p Progress) ([]byte, error) {
	if p == nil {
		p = Progress{}
	}
	return json.Marshal(p)
}

// Decode parses a persisted blob. Absent or malformed input is treated as
// "no progress": an empty mapping is returned and nothing is surfaced.
// PRE: none
// POST: returns a non-nil mapping
func Decode(blob []byte) Progress {
	p := Progress{}
	if len(blob) == 0 {
		return p
	}
	if err := json.Unmarshal(blob, &p); err != nil {
		slog.Warn("progress_decode_failed", "error", err.Error(), "bytes", len(blob))
		return Progress{}
	}
	if p == nil {
		// the literal "null" decodes to a nil map
		return Progress{}
	}
	return p
}

// Summary is a completed/total/percentage triple for a module or the course.
type Summary struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// NewSummary computes round(completed/total*100).
// A zero total yields 0% rather than dividing by zero.
func NewSummary(completed, total int) Summary {
	s := Summary{Completed: completed, Total: total}
	if total > 0 {
		s.Percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return s
}

// Done reports whether every counted session is complete.
// Empty summaries are never done.
func (s Summary) Done() bool {
	return s.Total > 0 && s.Completed == s.Total
}
