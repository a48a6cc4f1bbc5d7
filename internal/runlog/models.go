package runlog

import "time"

// Run statuses recorded in the history database.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run captures one pipeline invocation.
type Run struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	SourceImages int
	Validated   int
	CostUSD     float64
	Error       string
}

// StageRecord captures one stage's contribution within a run.
type StageRecord struct {
	Stage        string
	Records      int
	Calls        int
	InputTokens  int64
	OutputTokens int64
	Elapsed      time.Duration
	CostUSD      float64
}

// Duration reports wall-clock time for the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	d := r.FinishedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
