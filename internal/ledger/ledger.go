package ledger

import (
	"time"
)

// Pricing holds the USD cost per million tokens for each direction.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost computes the dollar cost of a token count pair.
func (p Pricing) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)*p.InputPerMillion/1e6 + float64(outputTokens)*p.OutputPerMillion/1e6
}

// StageTotals is the accumulated usage for one pipeline stage.
type StageTotals struct {
	Stage        string
	InputTokens  int64
	OutputTokens int64
	Elapsed      time.Duration
	Calls        int
}

// Ledger collects usage per stage in first-seen order. It is used from a
// single goroutine; the pipeline is strictly sequential.
type Ledger struct {
	pricing Pricing
	order   []string
	stages  map[string]*StageTotals
}

// New returns an empty ledger priced with p.
func New(p Pricing) *Ledger {
	return &Ledger{pricing: p, stages: make(map[string]*StageTotals)}
}

// Add records one API call's usage against a stage.
func (l *Ledger) Add(stage string, inputTokens, outputTokens int64, elapsed time.Duration) {
	totals, ok := l.stages[stage]
	if !ok {
		totals = &StageTotals{Stage: stage}
		l.stages[stage] = totals
		l.order = append(l.order, stage)
	}
	totals.InputTokens += inputTokens
	totals.OutputTokens += outputTokens
	totals.Elapsed += elapsed
	totals.Calls++
}

// Stage returns the totals for one stage; the zero value when it never ran.
func (l *Ledger) Stage(stage string) StageTotals {
	if totals, ok := l.stages[stage]; ok {
		return *totals
	}
	return StageTotals{Stage: stage}
}

// Stages returns stage totals in the order stages first reported usage.
func (l *Ledger) Stages() []StageTotals {
	out := make([]StageTotals, 0, len(l.order))
	for _, stage := range l.order {
		out = append(out, *l.stages[stage])
	}
	return out
}

// Totals aggregates usage across all stages.
func (l *Ledger) Totals() StageTotals {
	var total StageTotals
	for _, stage := range l.order {
		s := l.stages[stage]
		total.InputTokens += s.InputTokens
		total.OutputTokens += s.OutputTokens
		total.Elapsed += s.Elapsed
		total.Calls += s.Calls
	}
	return total
}

// Pricing exposes the configured rates.
func (l *Ledger) Pricing() Pricing {
	return l.pricing
}

// StageCost prices one stage's accumulated usage.
func (l *Ledger) StageCost(stage string) float64 {
	totals := l.Stage(stage)
	return l.pricing.Cost(totals.InputTokens, totals.OutputTokens)
}

// TotalCost prices the whole run.
func (l *Ledger) TotalCost() float64 {
	totals := l.Totals()
	return l.pricing.Cost(totals.InputTokens, totals.OutputTokens)
}
