// Package logging provides slog construction and shared structured-field
// conventions. Loggers are built once by the caller and injected; no package
// in this repository reaches for a global logger.
package logging
