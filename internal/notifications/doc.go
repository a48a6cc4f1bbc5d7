// Package notifications pushes run lifecycle events to an ntfy topic so an
// operator can walk away from a long, costly pipeline run. When no topic is
// configured a noop implementation is returned.
package notifications
