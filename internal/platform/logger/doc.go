// Package logger configures the process-wide JSON slog logger for vocabd.
//
// The level lives in a shared LevelVar so the config watcher can change it
// while the server runs. Request handlers and the sync coordinator carry
// scoped loggers through context.Context. NewTestLogger gives tests a
// Recorder that captures records in memory.
package logger
