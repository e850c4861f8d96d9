// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options controls logger construction.
type Options struct {
	Level zerolog.Level
	JSON  bool // JSON lines instead of the console format
}

// Level maps the CLI verbosity flags to a zerolog level.
// quiet wins over verbose.
func Level(quiet, verbose bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.WarnLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to w. Console output is coloured only when
// w is a terminal.
func New(w io.Writer, o Options) zerolog.Logger {
	out := w
	if !o.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    !IsTerminal(w),
		}
	}
	return zerolog.New(out).Level(o.Level).With().Timestamp().Logger()
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
