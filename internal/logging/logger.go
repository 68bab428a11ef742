// Package logging provides structured, leveled logging for the wallet
// analytics service.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

// Level represents the severity of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// Format represents the output format for logs
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses a format name, defaulting to JSON.
func ParseFormat(s string) Format {
	if s == "text" {
		return FormatText
	}
	return FormatJSON
}

// Logger writes structured log entries at or above its configured level.
// WithField and friends return derived loggers; the zero-cost path for
// suppressed levels is an early return in write.
type Logger struct {
	level  Level
	format Format
	mu     *sync.Mutex
	out    io.Writer
	fields map[string]interface{}
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// New creates a logger writing to stdout.
func New(level Level, format Format) *Logger {
	return &Logger{
		level:  level,
		format: format,
		mu:     &sync.Mutex{},
		out:    os.Stdout,
		fields: map[string]interface{}{},
	}
}

// SetOutput redirects log output, primarily for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// WithField returns a derived logger carrying an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a derived logger carrying extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, format: l.format, mu: l.mu, out: l.out, fields: merged}
}

// WithError returns a derived logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(msg string)                          { l.write(LevelDebug, msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.write(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(msg string)                           { l.write(LevelInfo, msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.write(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(msg string)                           { l.write(LevelWarn, msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.write(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Error(msg string)                          { l.write(LevelError, msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.write(LevelError, fmt.Sprintf(format, args...)) }

// Fatal logs the message and exits.
func (l *Logger) Fatal(msg string) {
	l.write(LevelFatal, msg)
	os.Exit(1)
}

func (l *Logger) write(level Level, msg string) {
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Fields:    l.fields,
	}
	if level >= LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	var line string
	if l.format == FormatJSON {
		b, _ := json.Marshal(e)
		line = string(b)
	} else {
		line = fmt.Sprintf("[%s] %s: %s", e.Timestamp, e.Level, e.Message)
		if len(e.Fields) > 0 {
			b, _ := json.Marshal(e.Fields)
			line += " fields=" + string(b)
		}
		if e.Caller != "" {
			line += " caller=" + e.Caller
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

var (
	globalMu sync.RWMutex
	global   = New(LevelInfo, FormatJSON)
)

// Init replaces the global logger configuration.
func Init(level Level, format Format) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = New(level, format)
}

// Default returns the global logger.
func Default() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Package-level convenience functions delegating to the global logger.

func Debug(msg string)                          { Default().Debug(msg) }
func Debugf(format string, args ...interface{}) { Default().Debugf(format, args...) }
func Info(msg string)                           { Default().Info(msg) }
func Infof(format string, args ...interface{})  { Default().Infof(format, args...) }
func Warn(msg string)                           { Default().Warn(msg) }
func Warnf(format string, args ...interface{})  { Default().Warnf(format, args...) }
func Error(msg string)                          { Default().Error(msg) }
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }
func Fatal(msg string)                          { Default().Fatal(msg) }

func WithField(key string, value interface{}) *Logger { return Default().WithField(key, value) }
func WithFields(fields map[string]interface{}) *Logger {
	return Default().WithFields(fields)
}
func WithError(err error) *Logger { return Default().WithError(err) }
