// Package logger wraps github.com/charmbracelet/log into the small leveled
// API the rest of this module uses, keeping one process-wide default
// logger alongside constructors for per-component loggers (one per pipeline
// connection, typically).
package logger

import (
	"fmt"
	"io"
	"os"

	charm "github.com/charmbracelet/log"
)

// LogLevel mirrors charm's levels under names this module already uses
// elsewhere (config flags, test fixtures).
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) charm() charm.Level {
	switch l {
	case DEBUG:
		return charm.DebugLevel
	case INFO:
		return charm.InfoLevel
	case WARN:
		return charm.WarnLevel
	case ERROR:
		return charm.ErrorLevel
	case FATAL:
		return charm.FatalLevel
	default:
		return charm.InfoLevel
	}
}

// ParseLevel maps a --log-level flag value to a LogLevel, defaulting to
// INFO for anything unrecognized.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Logger wraps a *charm.Logger. Its Warnf/Errorf methods satisfy
// dispatch.Logger, so a *Logger can be handed directly to
// dispatch.NewRequestPipeline and dispatch.NewResponsePipeline.
type Logger struct {
	inner *charm.Logger
}

// New builds a logger writing to w at the given level, with caller
// reporting enabled (matching the prior implementation's file:line
// annotation).
func New(w io.Writer, level LogLevel) *Logger {
	l := charm.NewWithOptions(w, charm.Options{
		ReportCaller:    true,
		ReportTimestamp: false,
		Level:           level.charm(),
	})
	return &Logger{inner: l}
}

var defaultLogger = New(os.Stderr, INFO)

// Default returns the process-wide logger used by the package-level
// convenience functions.
func Default() *Logger { return defaultLogger }

// SetLevel adjusts the default logger's minimum level.
func SetLevel(level LogLevel) { defaultLogger.inner.SetLevel(level.charm()) }

// SetShowDateTime toggles timestamp reporting on the default logger.
func SetShowDateTime(value bool) { defaultLogger.inner.SetReportTimestamp(value) }

// SetLogOutput redirects the default logger's output. 'c' is stderr
// (console), 'f' is a log file under /tmp, 'b' duplicates to both.
func SetLogOutput(outputType rune) {
	switch outputType {
	case 'c':
		defaultLogger.inner.SetOutput(os.Stderr)
	case 'f', 'b':
		f, err := os.OpenFile("/tmp/jrpc.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		if outputType == 'f' {
			defaultLogger.inner.SetOutput(f)
		} else {
			defaultLogger.inner.SetOutput(io.MultiWriter(os.Stderr, f))
		}
	default:
		fmt.Fprintf(os.Stderr, "invalid log output type: %c\n", outputType)
		os.Exit(1)
	}
}

func (l *Logger) Debugf(format string, args ...any) { l.inner.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.inner.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.inner.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.inner.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...any) { l.inner.Fatal(fmt.Sprintf(format, args...)) }

// With returns a child logger with structured key/value context attached,
// for call sites that want it (e.g. a per-connection remote address).
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{inner: l.inner.With(keyvals...)}
}

// Package-level convenience functions against the default logger.
func Debug(format string, args ...any) { defaultLogger.Debugf(format, args...) }
func Info(format string, args ...any)  { defaultLogger.Infof(format, args...) }
func Warn(format string, args ...any)  { defaultLogger.Warnf(format, args...) }
func Error(format string, args ...any) { defaultLogger.Errorf(format, args...) }
func Fatal(format string, args ...any) { defaultLogger.Fatalf(format, args...) }
