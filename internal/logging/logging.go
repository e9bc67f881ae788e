// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Options selects verbosity and output shape.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool

	// Quiet raises the level to warnings and errors only.
	Quiet bool

	// JSON forces machine-readable output even on a terminal.
	JSON bool
}

// Setup builds a logger writing to w. Terminals get the text handler; pipes
// and files get JSON lines, so captured logs stay parseable.
func Setup(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelWarn
	}
	hopts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.JSON || !writerIsTerminal(w) {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(h)
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
