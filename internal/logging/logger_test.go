package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLogLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestNewLogger_WritesJSONToSessionDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	logger.Info("report generated", "failures", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := readLogLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1", len(lines))
	}
	if lines[0]["msg"] != "report generated" {
		t.Errorf("msg = %v, want report generated", lines[0]["msg"])
	}
	if lines[0]["failures"] != float64(2) {
		t.Errorf("failures = %v, want 2", lines[0]["failures"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := readLogLines(t, dir)
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	if lines[0]["msg"] != "kept" || lines[1]["msg"] != "also kept" {
		t.Errorf("unexpected messages: %v, %v", lines[0]["msg"], lines[1]["msg"])
	}
}

func TestLogger_PersistentAttributes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	child := logger.WithSession("sess-1").WithSubtask("P1.M1.T1.S1").WithPhase("P1")
	child.Info("subtask failed")
	// The parent logger is unaffected by child attributes.
	logger.Info("plain")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := readLogLines(t, dir)
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	if lines[0]["session_id"] != "sess-1" || lines[0]["subtask_id"] != "P1.M1.T1.S1" || lines[0]["phase"] != "P1" {
		t.Errorf("child attributes missing: %v", lines[0])
	}
	if _, ok := lines[1]["session_id"]; ok {
		t.Error("parent logger leaked child attribute")
	}
}

func TestLogger_WithSkipsNonStringKeys(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	logger.With(42, "dropped", "mode", "auto").Info("entry")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := readLogLines(t, dir)
	if lines[0]["mode"] != "auto" {
		t.Errorf("mode attribute missing: %v", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
