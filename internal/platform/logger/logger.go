package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. JSON output in production, text
// when PORTAL_LOG_FORMAT=text is set for local development.
func New() *slog.Logger {
	var handler slog.Handler
	if os.Getenv("PORTAL_LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
