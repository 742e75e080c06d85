package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// setupLogger installs a tinted slog handler at the configured level.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(log)
	return log
}
