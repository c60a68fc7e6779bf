// Package logging sets up structured slog logging for docrag.
// Logs are JSON lines written to a size-rotated file under ~/.docrag/logs/,
// optionally mirrored to stderr.
package logging
