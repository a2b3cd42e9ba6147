package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const metaYAML = `
id: sess-1
mode: auto
continue_on_error: true
total_tasks: 10
completed_tasks: 7
start_time: 2026-08-24T10:00:00Z
`

const backlogYAML = `
phases:
  - id: P1
    title: Foundation
    milestones:
      - id: P1.M1
        tasks:
          - id: P1.M1.T1
            subtasks:
              - id: P1.M1.T1.S1
                title: Set up schema
              - id: P1.M1.T1.S2
                title: Write migrations
                dependencies: [P1.M1.T1.S1]
`

const failuresYAML = `
failures:
  - subtask_id: P1.M1.T1.S1
    title: Set up schema
    kind: task
    code: PIPELINE_TASK_EXECUTION_FAILED
    message: schema apply failed
    timestamp: 2026-08-24T10:02:00Z
`

// writeSession creates a session directory with the given files.
func writeSession(t *testing.T, sessionsDir, id string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(sessionsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestListSessions(t *testing.T) {
	sessionsDir := t.TempDir()
	writeSession(t, sessionsDir, "sess-1", map[string]string{
		SessionFileName: metaYAML,
		"failures.yaml": failuresYAML,
	})
	// A directory without session.yaml is not a session.
	writeSession(t, sessionsDir, "scratch", map[string]string{"notes.txt": "x"})

	sessions, err := ListSessions(sessionsDir)
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}

	got := sessions[0]
	if got.ID != "sess-1" || got.Mode != "auto" {
		t.Errorf("Info = %+v, want sess-1/auto", got)
	}
	if got.TotalTasks != 10 || got.CompletedTasks != 7 {
		t.Errorf("counters = %d/%d, want 10/7", got.CompletedTasks, got.TotalTasks)
	}
	if got.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", got.FailureCount)
	}
}

func TestListSessions_MissingDir(t *testing.T) {
	sessions, err := ListSessions(filepath.Join(t.TempDir(), "absent"))
	if err != nil || sessions != nil {
		t.Errorf("ListSessions(absent) = %v, %v; want nil, nil", sessions, err)
	}
}

func TestGetSessionInfo_DefaultsIDToDirName(t *testing.T) {
	sessionsDir := t.TempDir()
	writeSession(t, sessionsDir, "unnamed", map[string]string{
		SessionFileName: "total_tasks: 3\n",
	})

	info, err := GetSessionInfo(sessionsDir, "unnamed")
	if err != nil {
		t.Fatalf("GetSessionInfo error: %v", err)
	}
	if info.ID != "unnamed" {
		t.Errorf("ID = %q, want directory name fallback", info.ID)
	}
}

func TestSessionExists(t *testing.T) {
	sessionsDir := t.TempDir()
	writeSession(t, sessionsDir, "sess-1", map[string]string{SessionFileName: metaYAML})

	if !SessionExists(sessionsDir, "sess-1") {
		t.Error("SessionExists(sess-1) = false")
	}
	if SessionExists(sessionsDir, "sess-2") {
		t.Error("SessionExists(sess-2) = true")
	}
}

func TestFindLatest(t *testing.T) {
	sessionsDir := t.TempDir()
	writeSession(t, sessionsDir, "old", map[string]string{
		SessionFileName: "id: old\nstart_time: 2026-08-23T09:00:00Z\n",
	})
	writeSession(t, sessionsDir, "new", map[string]string{
		SessionFileName: "id: new\nstart_time: 2026-08-24T09:00:00Z\n",
	})

	latest, err := FindLatest(sessionsDir)
	if err != nil {
		t.Fatalf("FindLatest error: %v", err)
	}
	if latest == nil || latest.ID != "new" {
		t.Errorf("FindLatest = %+v, want the newer session", latest)
	}

	if latest, err := FindLatest(t.TempDir()); err != nil || latest != nil {
		t.Errorf("FindLatest(empty) = %+v, %v; want nil, nil", latest, err)
	}
}

func TestLoad(t *testing.T) {
	sessionsDir := t.TempDir()
	dir := writeSession(t, sessionsDir, "sess-1", map[string]string{
		SessionFileName: metaYAML,
		"backlog.yaml":  backlogYAML,
		"failures.yaml": failuresYAML,
	})

	failures, ctx, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if ctx.SessionID != "sess-1" || ctx.SessionPath != dir {
		t.Errorf("ctx = %+v, want sess-1 at %s", ctx, dir)
	}
	if !ctx.ContinueOnError || ctx.Mode != "auto" {
		t.Errorf("ctx flags = %+v", ctx)
	}
	if want := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC); !ctx.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", ctx.StartTime, want)
	}
	if ctx.Backlog == nil {
		t.Fatal("Backlog not loaded")
	}
	if _, ok := ctx.Backlog.FindSubtask("P1.M1.T1.S2"); !ok {
		t.Error("backlog subtasks missing")
	}

	f, ok := failures["P1.M1.T1.S1"]
	if !ok {
		t.Fatal("failure record missing")
	}
	if f.Err == nil || f.Title != "Set up schema" {
		t.Errorf("failure = %+v", f)
	}
}

func TestLoad_PartialSession(t *testing.T) {
	sessionsDir := t.TempDir()
	// Metadata only: clean run, no backlog snapshot yet.
	dir := writeSession(t, sessionsDir, "sess-1", map[string]string{SessionFileName: metaYAML})

	failures, ctx, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %d, want 0", len(failures))
	}
	if ctx.Backlog != nil {
		t.Error("Backlog should be nil when the snapshot is missing")
	}
}

func TestLoad_MissingMetadata(t *testing.T) {
	if _, _, err := Load(t.TempDir()); err == nil {
		t.Error("Load without session.yaml: error = nil")
	}
}
