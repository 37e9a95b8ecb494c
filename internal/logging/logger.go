// Package logging provides structured logging for the CLI, terminal and desktop front ends.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rescale/pdfmerge/internal/constants"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog    zerolog.Logger
	mode    string    // "cli", "tui" or "gui"
	output  io.Writer // current console writer
	fileOut io.WriteCloser
}

// Options configures optional logger outputs.
type Options struct {
	// File enables a rotated log file in addition to the console.
	File string
}

// NewLogger creates a new logger for the specified mode.
func NewLogger(mode string, opts Options) *Logger {
	var out io.Writer = os.Stderr
	if mode == "cli" {
		// CLI mode: stdout for logs (stderr reserved for progress bars)
		out = os.Stdout
	}

	l := &Logger{mode: mode}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err == nil {
			l.fileOut = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    constants.LogFileMaxSizeMB,
				MaxBackups: constants.LogFileMaxBackups,
				MaxAge:     constants.LogFileMaxAgeDays,
				Compress:   true,
			}
		}
	}
	l.SetOutput(out)
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli", Options{})
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: "cli", output: io.Discard}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// SetOutput changes the console writer.
// This is useful for redirecting logs through progress bars.
// The rotated file output, if any, is kept.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	var out io.Writer = zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    l.mode == "gui",
	}
	if l.fileOut != nil {
		out = zerolog.MultiLevelWriter(out, l.fileOut)
	}
	l.zlog = zerolog.New(out).With().Timestamp().Logger()
}

// Output returns the current console writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Close releases the rotated log file.
func (l *Logger) Close() error {
	if l.fileOut == nil {
		return nil
	}
	return l.fileOut.Close()
}

// Debugf logs a debug message with printf-style formatting.
// This is only shown when debug/verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
