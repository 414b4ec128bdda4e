// Package logging adapts zerolog to the domain Logger interface.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
)

// Format selects how log entries are rendered
type Format string

// Supported formats
const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ZerologLogger implements interfaces.Logger on top of zerolog
type ZerologLogger struct {
	logger zerolog.Logger
}

// New creates a logger writing to w at level in the given format, tagged with app
func New(w io.Writer, app string, level zerolog.Level, format Format) *ZerologLogger {
	out := w
	if format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger()
	return &ZerologLogger{logger: logger}
}

// ParseLevel maps CLI level names onto zerolog levels
func ParseLevel(value string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q (expected debug, info, warning, error)", value)
	}
}

// ParseFormat validates a --log-format value
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatConsole, "":
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (expected console or json)", value)
	}
}

// Debug logs debug-level messages
func (l *ZerologLogger) Debug(msg string, fields ...interfaces.Field) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Info logs informational messages
func (l *ZerologLogger) Info(msg string, fields ...interfaces.Field) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Warn logs warning messages
func (l *ZerologLogger) Warn(msg string, fields ...interfaces.Field) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// Error logs error messages
func (l *ZerologLogger) Error(msg string, fields ...interfaces.Field) {
	withFields(l.logger.Error(), fields).Msg(msg)
}

// With returns a child logger carrying fields on every entry
func (l *ZerologLogger) With(fields ...interfaces.Field) interfaces.Logger {
	ctx := l.logger.With()
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ctx = ctx.AnErr(f.Key, err)
			continue
		}
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{logger: ctx.Logger()}
}

func withFields(event *zerolog.Event, fields []interfaces.Field) *zerolog.Event {
	// Disabled levels return a nil event
	if event == nil {
		return event
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			event = event.AnErr(f.Key, err)
			continue
		}
		event = event.Interface(f.Key, f.Value)
	}
	return event
}
