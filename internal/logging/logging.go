// Package logging builds the slog logger used by every mode.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"treesum/internal/config"
)

// Level maps the command-line log level onto slog. Progress only lets
// warnings through because the progress bar takes over the terminal.
func Level(l config.LogLevel) slog.Level {
	switch l {
	case config.LogQuiet:
		return slog.LevelError
	case config.LogProgress:
		return slog.LevelWarn
	case config.LogDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w. Terminals get text, anything else
// gets JSON.
func New(w io.Writer, l config.LogLevel) *slog.Logger {
	options := &slog.HandlerOptions{Level: Level(l)}

	var handler slog.Handler
	if IsTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115
}
