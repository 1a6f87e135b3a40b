// Package logging assembles structured slog loggers and formatting helpers used
// across tuneprint.
//
// It owns the console and JSON handlers, fans CLI runs out to stderr plus a
// JSON log file, and exposes context-aware helpers so pipeline code can tag log
// lines with the analyzed file, stage, and correlation ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
