// Package internal contains integration tests that verify the packages
// compose correctly: a session directory on disk flows through discovery,
// loading, and report generation.
package internal

import (
	"strings"
	"testing"

	"github.com/tidewell/autopsy/internal/impact"
	"github.com/tidewell/autopsy/internal/report"
	"github.com/tidewell/autopsy/internal/session"
	"github.com/tidewell/autopsy/internal/testutil"
)

// TestSessionToReport drives the full path an operator exercises: the
// pipeline leaves a session directory behind, autopsy discovers it,
// loads it, and renders the report.
func TestSessionToReport(t *testing.T) {
	sessionsDir := t.TempDir()
	testutil.WriteFullSession(t, sessionsDir, "sess-1")

	latest, err := session.FindLatest(sessionsDir)
	if err != nil {
		t.Fatalf("FindLatest error: %v", err)
	}
	if latest == nil || latest.ID != "sess-1" {
		t.Fatalf("FindLatest = %+v, want sess-1", latest)
	}
	if latest.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", latest.FailureCount)
	}

	failures, ctx, err := session.Load(latest.SessionDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(failures) != 1 || ctx.Backlog == nil {
		t.Fatalf("loaded failures = %d, backlog = %v", len(failures), ctx.Backlog)
	}

	markdown := report.NewBuilder().Generate(failures, ctx)

	for _, heading := range []string{
		"# Error Report",
		"## Summary",
		"## Error Timeline",
		"## Failed Tasks",
		"## Error Categories",
		"## Impact Analysis",
		"## Next Steps",
	} {
		if !strings.Contains(markdown, heading+"\n") {
			t.Errorf("report missing section %q", heading)
		}
	}

	// The failure blocks its dependent subtask, so the report carries a
	// real impact, a fix for the recorded code, and a retry command.
	if !strings.Contains(markdown, "Affected: P1.M1.T1.S2") {
		t.Error("report missing downstream impact")
	}
	if !strings.Contains(markdown, "| task | 1 |") {
		t.Error("report missing category count")
	}
	if !strings.Contains(markdown, "--task P1.M1.T1.S1 --retry") {
		t.Error("report missing retry command")
	}
}

// TestSeverityContract pins the operator-facing glyph and label maps the
// report and viewer share.
func TestSeverityContract(t *testing.T) {
	tests := []struct {
		level impact.Level
		icon  string
		label string
	}{
		{impact.LevelCritical, "🔴", "Critical"},
		{impact.LevelHigh, "🟠", "High"},
		{impact.LevelMedium, "🟡", "Medium"},
		{impact.LevelLow, "🔵", "Low"},
		{impact.LevelNone, "⚪", "None"},
	}
	for _, tt := range tests {
		if got := impact.Icon(tt.level); got != tt.icon {
			t.Errorf("Icon(%s) = %s, want %s", tt.level, got, tt.icon)
		}
		if got := impact.Label(tt.level); got != tt.label {
			t.Errorf("Label(%s) = %s, want %s", tt.level, got, tt.label)
		}
	}
}
