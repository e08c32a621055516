// Package logging wraps log/slog with the attribute helpers and handlers
// used across Phonodex.
//
// Console output is the default and renders compact single-line records,
// colored when stdout is a terminal. JSON output is available for scripted
// runs via the log_format config setting. Component loggers carry a stable
// "component" attribute so resolver, client, and pipeline records can be
// filtered apart.
package logging
