package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger writes timestamped debug lines to a file. A nil receiver is
// valid and discards everything, so callers never need to guard Log calls.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger creates a debug logger that appends to the given path,
// creating parent directories as needed.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{file: file}
	logger.Log("=== Chorus Debug Log Started at %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NewDebugLoggerForWorkdir creates a debug logger at <workdir>/.chorus/debug.log.
func NewDebugLoggerForWorkdir(workdir string) (*DebugLogger, error) {
	return NewDebugLogger(filepath.Join(workdir, ".chorus", "debug.log"))
}

// NopLogger returns a logger that discards all output.
func NopLogger() *DebugLogger {
	return nil
}

// Log writes a formatted line to the debug log.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
	l.file.Sync()
}

// Close closes the underlying log file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
