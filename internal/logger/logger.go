// Package logger writes marquee's own diagnostics to a file and keeps the most
// recent entries in memory for the console view. The terminal belongs to the
// TUI, so nothing is written to stdout or stderr.
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const maxBufferSize = 1000

// Level tags an entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one buffered log line.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
}

type Logger struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
	buffer []Entry
}

var (
	instanceMu sync.Mutex
	instance   = &Logger{}
)

// Init opens path for appending. Entries logged before Init are buffered only.
func Init(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = file
	l.logger = log.New(file, "", log.LstdFlags)
	return nil
}

// Close closes the log file. Buffering continues.
func Close() error {
	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger = nil
	return err
}

// Log records an informational message.
func Log(format string, args ...any) {
	get().write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn records a warning.
func Warn(format string, args ...any) {
	get().write(LevelWarn, fmt.Sprintf(format, args...))
}

// LogError records a failed operation.
func LogError(operation string, err error) {
	get().write(LevelError, fmt.Sprintf("%s: %v", operation, err))
}

// GetLogs returns a copy of the buffered entries, oldest first.
func GetLogs() []Entry {
	l := get()
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.buffer))
	copy(out, l.buffer)
	return out
}

// Reset drops buffered entries and detaches the file. Intended for tests.
func Reset() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance.file != nil {
		_ = instance.file.Close()
	}
	instance = &Logger{}
}

func get() *Logger {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

func (l *Logger) write(level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buffer) >= maxBufferSize {
		l.buffer = l.buffer[1:]
	}
	l.buffer = append(l.buffer, Entry{Timestamp: time.Now(), Level: level, Message: message})

	if l.logger != nil {
		l.logger.Printf("[%s] %s", level, message)
	}
}
