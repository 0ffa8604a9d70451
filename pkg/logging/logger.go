// Package logging provides structured logging for kinmap using zerolog.
// Reconciliation runs log through a context-scoped logger so every line
// carries the contact and pass it belongs to.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("contact", "john").Msg("Reconciled contact")
//
//	ctx := logging.WithContact(context.Background(), "john")
//	logging.FromContext(ctx).Debug().Msg("No material change")
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is the global logger instance.
var defaultLogger zerolog.Logger

func init() {
	ConfigureFromEnv()
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a new logger with the given writer.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.GlobalLevel()).
		With().
		Timestamp().
		Logger()
}

// Debug starts a new debug level log event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts a new info level log event.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a new warning level log event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Err creates a new error log event with the given error.
func Err(err error) *zerolog.Event {
	return defaultLogger.Err(err)
}

func isatty() bool {
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}

// envFirst returns the KINMAP_-prefixed variable when set, else the bare one.
func envFirst(key string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return os.Getenv(key)
}
