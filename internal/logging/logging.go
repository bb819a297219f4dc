// Package logging initializes the process-wide structured loggers.
package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	initOnce sync.Once
	levelVar slog.LevelVar
)

// Init configures the default slog logger. Structured JSON goes to stdout so
// log shippers can ingest it without a parsing stage. Debug switches the
// minimum level.
func Init(debug bool) {
	initOnce.Do(func() {
		if debug {
			levelVar.Set(slog.LevelDebug)
		} else {
			levelVar.Set(slog.LevelInfo)
		}
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: &levelVar,
		})
		slog.SetDefault(slog.New(handler))
	})
}

// SetLevel adjusts the minimum logging level at runtime.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// ForService returns a logger tagged with the originating service name,
// e.g. "processor" or "datastore".
func ForService(service string) *slog.Logger {
	return slog.Default().With("service", service)
}
