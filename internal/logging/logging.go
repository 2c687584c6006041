package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a structured logger that writes to the console.
type Logger struct {
	zl zerolog.Logger
}

// Options controls the logger output.
type Options struct {
	Level  string
	Pretty bool
	Out    io.Writer
}

// New creates a Logger from options.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(args).Logger()}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info().Fields(args).Msg(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Fields(args).Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error().Fields(args).Msg(msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Fields(args).Msg(msg)
}
