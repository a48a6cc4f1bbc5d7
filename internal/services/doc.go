// Package services defines shared utilities consumed by the pipeline stages.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so stage failures carry
//     consistent context and classify cleanly into recoverable vs terminal.
//   - Context helpers that stamp the active stage and item source for log
//     correlation.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
