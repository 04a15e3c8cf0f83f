package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger of one App. It never touches slog.Default, so
// concurrent apps in tests keep their output apart. Unknown levels fall back
// to info; NewConfig rejects them earlier.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
