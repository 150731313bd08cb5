// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// Log levels
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name such as "debug" into a LogLevel
func ParseLevel(name string) (LogLevel, error) {
	for level, levelName := range levelNames {
		if strings.EqualFold(name, levelName) {
			return level, nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", name)
}

// Logger represents a logger instance
type Logger struct {
	level      LogLevel
	outputs    map[LogLevel][]io.Writer
	closers    []io.Closer
	mu         sync.Mutex
	showFile   bool
	timeFormat string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance. It writes warnings and
// errors to stderr until Configure redirects it.
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger(WARN)
		defaultLogger.AddOutput(WARN, os.Stderr)
	})
	return defaultLogger
}

// NewLogger creates a new logger instance with the specified minimum log level
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		level:      level,
		outputs:    make(map[LogLevel][]io.Writer),
		timeFormat: "2006-01-02 15:04:05",
		showFile:   true,
	}
}

// SetLevel changes the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetShowFile enables or disables showing file and line information in logs
func (l *Logger) SetShowFile(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showFile = show
}

// AddOutput adds an output writer receiving messages at level and above
func (l *Logger) AddOutput(level LogLevel, w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs[level] = append(l.outputs[level], w)
}

// Reset drops all outputs and closes any files opened by AddFileOutput
func (l *Logger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	l.outputs = make(map[LogLevel][]io.Writer)
	return firstErr
}

// AddFileOutput appends messages at level and above to filename
func (l *Logger) AddFileOutput(level LogLevel, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.AddOutput(level, file)

	l.mu.Lock()
	l.closers = append(l.closers, file)
	l.mu.Unlock()
	return nil
}

// getCallerInfo returns the file and line number of the caller
func getCallerInfo() string {
	_, file, line, ok := runtime.Caller(4) // getCallerInfo, formatMessage, log, Debug/Info/Warn/Error
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// formatMessage formats a log message with timestamp, level, and caller info
func (l *Logger) formatMessage(level LogLevel, msg string) string {
	timestamp := time.Now().Format(l.timeFormat)

	if l.showFile {
		return fmt.Sprintf("%s [%s] %s - %s", timestamp, level, getCallerInfo(), msg)
	}
	return fmt.Sprintf("%s [%s] %s", timestamp, level, msg)
}

// log writes a message once to every writer registered at level or below it
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var msg string
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = format
	}

	formattedMsg := l.formatMessage(level, msg)

	seen := make(map[io.Writer]bool)
	for lvl, writers := range l.outputs {
		if lvl > level {
			continue
		}
		for _, w := range writers {
			if seen[w] {
				continue
			}
			seen[w] = true
			fmt.Fprintln(w, formattedMsg)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Global convenience functions that use the default logger

func Debug(format string, args ...interface{}) {
	GetLogger().log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	GetLogger().log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	GetLogger().log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	GetLogger().log(ERROR, format, args...)
}

// Configure sets the default logger level and sends its output to file.
// An empty file keeps stderr.
func Configure(levelName, file string) error {
	level, err := ParseLevel(levelName)
	if err != nil {
		return err
	}

	l := GetLogger()
	if err := l.Reset(); err != nil {
		return fmt.Errorf("failed to close previous log output: %w", err)
	}
	l.SetLevel(level)

	if file == "" {
		l.AddOutput(DEBUG, os.Stderr)
		return nil
	}
	return l.AddFileOutput(DEBUG, file)
}

// Discard silences the default logger, for use while the dashboard owns the terminal
func Discard() {
	l := GetLogger()
	_ = l.Reset()
	l.AddOutput(DEBUG, io.Discard)
}
