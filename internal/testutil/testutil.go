// Package testutil provides shared fixtures for tests that need a
// populated session directory on disk.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SessionMetaYAML is a minimal session.yaml fixture.
const SessionMetaYAML = `id: sess-1
mode: auto
continue_on_error: true
total_tasks: 4
completed_tasks: 3
start_time: 2026-08-24T10:00:00Z
`

// BacklogYAML is a small backlog snapshot with one dependency chain.
const BacklogYAML = `phases:
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

// FailuresYAML records one failed subtask matching BacklogYAML.
const FailuresYAML = `failures:
  - subtask_id: P1.M1.T1.S1
    title: Set up schema
    kind: task
    code: PIPELINE_TASK_EXECUTION_FAILED
    message: schema apply failed
    timestamp: 2026-08-24T10:02:00Z
    phase: Foundation
`

// WriteSession creates a session directory under sessionsDir populated
// with the given files and returns its path.
func WriteSession(t *testing.T, sessionsDir, id string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(sessionsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create session dir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// WriteFullSession creates a session with the standard metadata,
// backlog, and failure fixtures.
func WriteFullSession(t *testing.T, sessionsDir, id string) string {
	t.Helper()

	return WriteSession(t, sessionsDir, id, map[string]string{
		"session.yaml":  SessionMetaYAML,
		"backlog.yaml":  BacklogYAML,
		"failures.yaml": FailuresYAML,
	})
}
