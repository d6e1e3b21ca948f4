package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLoggerWritesTimestampedLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "debug.log")

	logger, err := NewDebugLogger(logPath)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}
	logger.Log("agent %s did %d things", "agent-1", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Chorus Debug Log Started") {
		t.Errorf("expected header line, got %q", content)
	}
	if !strings.Contains(content, "agent agent-1 did 3 things") {
		t.Errorf("expected formatted message, got %q", content)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := NopLogger()
	logger.Log("should not panic")
	if err := logger.Close(); err != nil {
		t.Errorf("expected nil error from nop Close, got %v", err)
	}
}

func TestNewDebugLoggerForWorkdir(t *testing.T) {
	workdir := t.TempDir()

	logger, err := NewDebugLoggerForWorkdir(workdir)
	if err != nil {
		t.Fatalf("NewDebugLoggerForWorkdir: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Join(workdir, ".chorus", "debug.log")); err != nil {
		t.Errorf("expected log file under .chorus, got %v", err)
	}
}
