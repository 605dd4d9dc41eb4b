package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output so log shippers can parse it.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
