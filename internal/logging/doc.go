// Package logging constructs slog loggers from application configuration and
// provides the attribute helpers used throughout the codebase.
package logging
