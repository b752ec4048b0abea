package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"outreach/internal/domain"
)

// Stage is how far a recipient's pipeline got.
type Stage string

const (
	StageScrape   Stage = "scrape"
	StageGenerate Stage = "generate"
	StageDispatch Stage = "dispatch"
	StageDone     Stage = "done"
)

// Outcome is one recipient's result. Degraded marks emails built from
// fallback text or a fallback profile rather than the full pipeline.
type Outcome struct {
	Contact     domain.Contact `json:"contact"`
	Stage       Stage          `json:"stage"`
	Subject     string         `json:"subject,omitempty"`
	Degraded    bool           `json:"degraded,omitempty"`
	Error       string         `json:"error,omitempty"`
	Duration    time.Duration  `json:"duration_ns"`
	ScheduledAt time.Time      `json:"scheduled_at,omitzero"`
}

// Success reports whether the recipient made it through dispatch.
func (o Outcome) Success() bool { return o.Stage == StageDone }

// Report aggregates a campaign run.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (r *Report) Sent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int { return len(r.Outcomes) - r.Sent() }

// Summary renders a one-line result suitable for logs and notifications.
func (r *Report) Summary() string {
	verb := "sent"
	if r.DryRun {
		verb = "generated"
	}
	return fmt.Sprintf("campaign finished: %d %s, %d failed of %d in %s",
		r.Sent(), verb, r.Failed(), len(r.Outcomes),
		r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
}

// WriteJSON dumps the full report to a results file.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
