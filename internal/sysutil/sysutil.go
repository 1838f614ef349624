// Package sysutil holds process-level helpers shared by the relay binaries:
// global log configuration and small environment conveniences.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Anything else falls back to info.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// NewLogger builds a service-tagged logger writing to w. With pretty set the
// output is the human-readable console format instead of JSON lines.
func NewLogger(w io.Writer, pretty bool, service string) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger()
}

// ConfigureLogging sets the global level and replaces the package-level
// zerolog logger used by log.Info() and friends. It returns that logger.
func ConfigureLogging(level string, pretty bool, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	SetLogLevel(level)
	log.Logger = NewLogger(os.Stderr, pretty, service)
	return log.Logger
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
// If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
