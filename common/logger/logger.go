// Package logger provides the unified leveled logging facade for the
// pipeline, backed by zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// SetOutput redirects log output, e.g. to a file or io.Discard in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	zlog = zlog.Output(w)
}

// SetLevel sets the minimum level: "debug", "info", "warn", "error".
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(level) {
	case "debug":
		zlog = zlog.Level(zerolog.DebugLevel)
	case "warn":
		zlog = zlog.Level(zerolog.WarnLevel)
	case "error":
		zlog = zlog.Level(zerolog.ErrorLevel)
	default:
		zlog = zlog.Level(zerolog.InfoLevel)
	}
}

// JSONOutput switches to machine-readable JSON lines on the given writer.
func JSONOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	zlog = zerolog.New(w).With().Timestamp().Logger()
}

func log() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return zlog
}

// Debugf logs a debug message.
func Debugf(format string, args ...any) { l := log(); l.Debug().Msgf(format, args...) }

// Infof logs an info message.
func Infof(format string, args ...any) { l := log(); l.Info().Msgf(format, args...) }

// Warnf logs a warning message.
func Warnf(format string, args ...any) { l := log(); l.Warn().Msgf(format, args...) }

// Errorf logs an error message.
func Errorf(format string, args ...any) { l := log(); l.Error().Msgf(format, args...) }
