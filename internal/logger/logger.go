package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger. Debug mode switches to a human readable
// console writer and lowers the level to debug.
func Setup(debug bool) zerolog.Logger {
	return New(os.Stderr, debug)
}

// New builds a logger writing to w.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if !debug {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(any) string {
		return time.Now().Format(time.TimeOnly)
	}}).Level(level).With().Timestamp().Caller().Logger()
}

// Install replaces the global logger used by the build packages and
// returns it.
func Install(debug bool, fields map[string]any) zerolog.Logger {
	l := Setup(debug).With().Fields(fields).Logger()
	log.Logger = l
	return l
}
