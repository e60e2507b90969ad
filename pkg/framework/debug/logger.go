// Package debug provides file-backed logging for plugin components. A
// plugin loaded into a host process cannot assume a console, so the
// default sink is a log file under the user's temp directory; logging is
// off until explicitly enabled.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed development output.
	LevelDebug Level = iota
	// LevelInfo is for lifecycle and configuration events.
	LevelInfo
	// LevelWarn is for recoverable protocol violations.
	LevelWarn
	// LevelError is for failures reported to the host.
	LevelError
	// LevelOff disables all logging.
	LevelOff
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "OFF"
	}
}

// Logger writes leveled, timestamped messages to a sink. Safe for use
// from multiple goroutines; never used on the audio thread.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	prefix string
}

// New creates a logger writing to w.
func New(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{out: w, prefix: prefix, level: level}
}

// NewFile creates a logger appending to a named file under the temp
// directory.
func NewFile(name, prefix string, level Level) (*Logger, error) {
	path := filepath.Join(os.TempDir(), name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, prefix, level), nil
}

// Disabled returns a logger that drops everything.
func Disabled() *Logger {
	return New(io.Discard, "", LevelOff)
}

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.level == LevelOff {
		return
	}
	msg := fmt.Sprintf(format, args...)
	stamp := time.Now().Format("2006-01-02 15:04:05.000")
	if l.prefix != "" {
		fmt.Fprintf(l.out, "%s [%s] %s: %s\n", stamp, level, l.prefix, msg)
		return
	}
	fmt.Fprintf(l.out, "%s [%s] %s\n", stamp, level, msg)
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }
