package logging

import (
	"fmt"
	"io"
	"log"
	"maps"
	"sort"
	"strings"
	"sync"
)

// Level represents log levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", ...) to a Level
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Fields represents structured logging fields
type Fields map[string]any

// Logger is the logging interface used throughout fretune
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields
	WithFields(fields Fields) Logger

	// SetLevel sets the minimum log level
	SetLevel(level Level)
}

// DefaultLogger writes leveled lines through the standard log package
type DefaultLogger struct {
	out    *log.Logger
	level  *levelVar
	fields Fields
}

type levelVar struct {
	mu    sync.RWMutex
	level Level
}

func (v *levelVar) get() Level {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

func (v *levelVar) set(l Level) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.level = l
}

// New creates a logger writing to w at the given level
func New(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		out:    log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		level:  &levelVar{level: level},
		fields: make(Fields),
	}
}

func (d *DefaultLogger) formatMessage(level Level, err error, msg string, fields ...Fields) string {
	all := make(Fields, len(d.fields))
	maps.Copy(all, d.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level.String(), msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}

	// Sorted keys keep lines diffable
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}
	return b.String()
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level.get() {
		return
	}
	d.out.Println(d.formatMessage(level, err, msg, fields...))
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

// WithFields returns a child logger sharing output and level
func (d *DefaultLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(d.fields)+len(fields))
	maps.Copy(merged, d.fields)
	maps.Copy(merged, fields)
	return &DefaultLogger{
		out:    d.out,
		level:  d.level,
		fields: merged,
	}
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level.set(level)
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...Fields)        {}
func (NoOpLogger) Info(string, ...Fields)         {}
func (NoOpLogger) Warn(string, ...Fields)         {}
func (NoOpLogger) Error(error, string, ...Fields) {}
func (n NoOpLogger) WithFields(Fields) Logger     { return n }
func (NoOpLogger) SetLevel(Level)                 {}
