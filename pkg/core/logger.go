package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
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
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a config string (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})
}

// defaultLogger writes level-prefixed lines through the standard log package
// and drops anything below its minimum level.
type defaultLogger struct {
	level       Level
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
}

// NewDefaultLogger creates a logger at LevelInfo
func NewDefaultLogger() Logger {
	return NewLogger(LevelInfo)
}

// NewLogger creates a logger that writes errors and warnings to stderr and
// everything else to stdout.
func NewLogger(level Level) Logger {
	return newLogger(level, os.Stderr, os.Stdout)
}

// NewWriterLogger sends every level to w. Writes are serialized, so w need
// not be safe for concurrent use.
func NewWriterLogger(level Level, w io.Writer) Logger {
	lw := &lockedWriter{w: w}
	return newLogger(level, lw, lw)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func newLogger(level Level, errOut, out io.Writer) Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &defaultLogger{
		level:       level,
		errorLogger: log.New(errOut, "[ERROR] ", flags),
		warnLogger:  log.New(errOut, "[WARN] ", flags),
		infoLogger:  log.New(out, "[INFO] ", flags),
		debugLogger: log.New(out, "[DEBUG] ", flags),
	}
}

func (l *defaultLogger) Error(args ...interface{}) {
	l.output(LevelError, l.errorLogger, fmt.Sprint(args...))
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.output(LevelError, l.errorLogger, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Warn(args ...interface{}) {
	l.output(LevelWarn, l.warnLogger, fmt.Sprint(args...))
}

func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.output(LevelWarn, l.warnLogger, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Info(args ...interface{}) {
	l.output(LevelInfo, l.infoLogger, fmt.Sprint(args...))
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.output(LevelInfo, l.infoLogger, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) Debug(args ...interface{}) {
	l.output(LevelDebug, l.debugLogger, fmt.Sprint(args...))
}

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.output(LevelDebug, l.debugLogger, fmt.Sprintf(format, args...))
}

func (l *defaultLogger) output(level Level, logger *log.Logger, msg string) {
	if level < l.level {
		return
	}
	_ = logger.Output(3, msg)
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Error(...interface{})          {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Warn(...interface{})           {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Info(...interface{})           {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Debug(...interface{})          {}
func (nopLogger) Debugf(string, ...interface{}) {}
