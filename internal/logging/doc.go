// Package logging builds the slog loggers used across the pipeline: a
// human-oriented console handler for interactive runs and a JSON handler for
// machine consumption, optionally teed into a log file under the configured
// log directory.
package logging
