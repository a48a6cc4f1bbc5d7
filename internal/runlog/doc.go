// Package runlog persists a history of pipeline runs in SQLite so past
// runs can be listed with their per-stage counts, token usage, and cost.
package runlog
