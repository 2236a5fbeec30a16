// Package logger builds the process logger and routes gnark's own logging
// through it.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// New returns a JSON zerolog logger at level writing to w (stdout when nil).
// gnark's compile and setup logs are redirected to the same logger.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if w == nil {
		w = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := zerolog.New(w).
		With().
		Timestamp().
		Str("service", "zkvc").
		Logger().
		Level(lvl)

	gnarklogger.Set(l.With().Str("component", "gnark").Logger())
	return l, nil
}

// ParseLevel accepts zerolog level names, case-insensitively. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Console returns a human-readable logger for CLIs.
func Console(level string) zerolog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger().
		Level(lvl)
	gnarklogger.Set(l)
	return l
}
