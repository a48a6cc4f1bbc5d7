// Package preflight verifies the environment before a pipeline run:
// directory permissions, prompt and exemplar files, credentials, and
// API reachability.
package preflight
