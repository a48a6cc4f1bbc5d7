package stage

import (
	"context"
	"time"

	"examforge/internal/question"
)

// Batch is the state handed from one stage to the next: the surviving record
// sequence and, after extraction, the final document text.
type Batch struct {
	// SourceImages is the number of images the transcriber found, kept for
	// the run summary.
	SourceImages int
	Records      []question.Record
	Document     string
}

// Handler is the contract the pipeline manager needs from each stage.
type Handler interface {
	Name() string
	Execute(ctx context.Context, batch *Batch) error
	HealthCheck(ctx context.Context) Health
}

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Pause blocks for the inter-request delay, honoring cancellation. Stage
// loops call it between successive API calls; it is the pipeline's only
// throttling mechanism.
func Pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
