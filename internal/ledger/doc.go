// Package ledger accumulates per-stage token usage and elapsed API time for
// cost reporting. The ledger never influences control flow and lives only
// for the duration of a run.
package ledger
