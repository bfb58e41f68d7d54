package orchestrators

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rpotraining/internal/adapters/email"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
)

// DefaultNotifyQueue is the number of pending milestone emails kept before new ones are dropped.
const DefaultNotifyQueue = 32

// MilestoneKind names what a learner finished.
type MilestoneKind string

const (
	MilestoneModule MilestoneKind = "module"
	MilestoneCourse MilestoneKind = "course"
)

// Milestone is a module or the whole course reaching 100%.
type Milestone struct {
	Kind      MilestoneKind
	ModuleID  catalogue.ModuleID // empty for the course
	Title     string
	Completed int
	At        time.Time
}

// NotifyMilestonesDeps holds dependencies for the milestone notifier.
type NotifyMilestonesDeps struct {
	Sender    email.Sender
	Catalogue *catalogue.Catalogue
	From      string
	To        []string
	NewRefID  func() string
}

// MilestoneNotifier turns tracker change events into emails. Observe never
// blocks the request that marked the session; Run delivers in the background.
type MilestoneNotifier struct {
	deps    NotifyMilestonesDeps
	queue   chan Milestone
	dropped atomic.Int64
}

// NewMilestoneNotifier builds a notifier with a bounded queue.
// PRE: deps.Sender and deps.Catalogue are non-nil; queue <= 0 selects DefaultNotifyQueue
// POST: returns a notifier; nothing is sent until Run is called
func NewMilestoneNotifier(deps NotifyMilestonesDeps, queue int) *MilestoneNotifier {
	if queue <= 0 {
		queue = DefaultNotifyQueue
	}
	if deps.NewRefID == nil {
		deps.NewRefID = uuid.NewString
	}
	return &MilestoneNotifier{deps: deps, queue: make(chan Milestone, queue)}
}

// MilestonesFor lists what the event completed. Repeat marks never count,
// and neither do marks for ids outside the catalogue: they change no summary.
func MilestonesFor(ev tracker.ChangeEvent, cat *catalogue.Catalogue) []Milestone {
	if ev.Repeat {
		return nil
	}
	if _, ok := cat.SessionTitle(ev.SessionID); !ok {
		return nil
	}
	var out []Milestone
	if ev.ModuleSum.Done() {
		title, _ := cat.ModuleTitle(ev.Module)
		out = append(out, Milestone{
			Kind:      MilestoneModule,
			ModuleID:  ev.Module,
			Title:     title,
			Completed: ev.ModuleSum.Completed,
			At:        ev.Record.CompletedAt,
		})
	}
	if ev.Overall.Done() {
		out = append(out, Milestone{
			Kind:      MilestoneCourse,
			Title:     cat.Title(),
			Completed: ev.Overall.Completed,
			At:        ev.Record.CompletedAt,
		})
	}
	return out
}

// Observe queues emails for any milestone in ev. Register it with Tracker.OnChange.
func (n *MilestoneNotifier) Observe(ev tracker.ChangeEvent) {
	for _, m := range MilestonesFor(ev, n.deps.Catalogue) {
		select {
		case n.queue <- m:
		default:
			n.dropped.Add(1)
			slog.Warn("milestone_email_dropped", "kind", string(m.Kind), "title", m.Title)
		}
	}
}

// Dropped returns how many milestones were discarded because the queue was full.
func (n *MilestoneNotifier) Dropped() int64 {
	return n.dropped.Load()
}

// Run sends queued milestone emails until ctx is cancelled.
// Delivery failures are logged and do not stop the loop.
func (n *MilestoneNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-n.queue:
			n.send(ctx, m)
		}
	}
}

func (n *MilestoneNotifier) send(ctx context.Context, m Milestone) {
	req, err := BuildMilestoneEmail(m)
	if err != nil {
		slog.Error("milestone_email_render_failed", "error", err)
		return
	}
	req.From = n.deps.From
	req.To = n.deps.To
	req.RefID = n.deps.NewRefID()

	res, err := n.deps.Sender.Send(ctx, req)
	if err != nil {
		slog.Error("milestone_email_failed", "kind", string(m.Kind), "error", err)
		return
	}
	slog.Info("milestone_email_sent", "kind", string(m.Kind), "module_id", string(m.ModuleID), "message_id", res.MessageID)
}

var milestoneBody = template.Must(template.New("milestone").Parse(
	`<h1>{{if eq .Kind "course"}}Course complete{{else}}Module complete{{end}}</h1>
<p>{{.Title}}: all {{.Completed}} sessions are marked complete.</p>
{{- if not .At.IsZero}}
<p>Finished {{.At.Format "2 January 2006 15:04 MST"}}.</p>
{{- end}}
`))

// BuildMilestoneEmail renders the subject and body for m. Addressing is left to the caller.
func BuildMilestoneEmail(m Milestone) (email.SendRequest, error) {
	var buf bytes.Buffer
	if err := milestoneBody.Execute(&buf, m); err != nil {
		return email.SendRequest{}, err
	}
	subject := "Module complete: " + m.Title
	if m.Kind == MilestoneCourse {
		subject = "Course complete: " + m.Title
	}
	return email.SendRequest{Subject: subject, HTML: buf.String()}, nil
}
