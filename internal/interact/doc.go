// Package interact wraps the operator-facing prompts (y/n confirmations and
// free-text hints) behind a small driver interface so non-interactive runs
// and tests can substitute fixed answers.
package interact
