// Package logger provides structured logging for s3fs built on zerolog.
//
// It supports console and JSON output, component tagging and field helpers.
// A process-wide global logger is available through the package-level
// functions; engines receive a *Logger explicitly so tests can inject a
// no-op logger.
package logger
