// Package llm wraps the chat-completions API behind the narrow surface the
// pipeline stages need: JSON-only completions, an image-bearing variant for
// transcription, and token usage extraction for the cost ledger.
//
// Calls are single-shot. Failed calls are reported to the caller, which drops
// the item; throttling is handled by the fixed inter-request delay in the
// stage loops, not here.
package llm
