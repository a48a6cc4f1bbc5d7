// Package question defines the record type that flows through the pipeline
// plus the JSONL codec used for stage artifacts.
//
// Records are immutable once written: each stage appends complete lines to
// its own artifact and never rewrites a prior stage's output. The schema is
// deliberately loose (only the question text is required) because the model
// fills in whatever metadata it can read from the source material.
package question
