// Package logging provides structured logging for Showbox Core.
//
// It wraps the standard library's log/slog with configuration-driven
// format/level selection and default service fields. Components receive a
// child logger via With("component", ...) so every line carries its origin.
package logging
