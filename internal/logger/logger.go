package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the CLI logger. It writes to stderr so token output on stdout
// stays clean for scripting: JSON lines at info level by default, or
// human-readable console lines at debug level when dev is set.
func Setup(dev bool) zerolog.Logger {
	return New(os.Stderr, dev)
}

// New returns a logger writing to w, configured as described for Setup.
func New(w io.Writer, dev bool) zerolog.Logger {
	if !dev {
		return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Caller().Logger()
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}

	return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Caller().Stack().Logger()
}
