package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger at the requested level, falling back
// to info when the level string is unknown.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// NewConsoleLogger is NewLogger with human-readable console output, used
// for local development runs.
func NewConsoleLogger(level string) zerolog.Logger {
	return NewLogger(level).Output(zerolog.ConsoleWriter{Out: os.Stdout})
}
