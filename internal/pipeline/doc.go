// Package pipeline composes the four stages into a single run: transcribe,
// perturb, validate, extract. The manager owns the run lock, the cost
// ledger, stage sequencing, and the final summary.
package pipeline
