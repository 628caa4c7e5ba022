// Package logger builds the zerolog logger shared by the server and its middleware.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger in production and a console logger elsewhere.
// An unknown level falls back to info.
func New(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env != "production" && env != "prod" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level).With().Str("service", "devconnector").Logger()
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
