// Package session reads the session directories a pipeline run leaves
// behind: per-session metadata, the backlog snapshot, and the failure
// records. Everything here is read-only; the pipeline owns the files.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tidewell/autopsy/internal/backlog"
)

// SessionFileName is the metadata file within a session directory
const SessionFileName = "session.yaml"

// Info contains summary information about a session
type Info struct {
	ID             string
	Mode           string
	StartTime      time.Time
	TotalTasks     int
	CompletedTasks int
	// FailureCount is the number of recorded failures, 0 when the session
	// has no failure file.
	FailureCount int
	SessionDir   string
}

// metadata is the on-disk shape of session.yaml.
type metadata struct {
	ID              string    `yaml:"id"`
	Mode            string    `yaml:"mode,omitempty"`
	ContinueOnError bool      `yaml:"continue_on_error,omitempty"`
	TotalTasks      int       `yaml:"total_tasks"`
	CompletedTasks  int       `yaml:"completed_tasks"`
	StartTime       time.Time `yaml:"start_time"`
}

// SessionDir returns the path to a specific session's directory.
func SessionDir(sessionsDir, sessionID string) string {
	return filepath.Join(sessionsDir, sessionID)
}

// ListSessions returns information about all sessions under sessionsDir.
// Sessions are discovered by scanning for subdirectories containing
// session.yaml files; unreadable sessions are skipped.
func ListSessions(sessionsDir string) ([]*Info, error) {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No sessions directory = no sessions
		}
		return nil, err
	}

	var sessions []*Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := GetSessionInfo(sessionsDir, entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, info)
	}

	return sessions, nil
}

// GetSessionInfo returns detailed information about a specific session.
func GetSessionInfo(sessionsDir, sessionID string) (*Info, error) {
	dir := SessionDir(sessionsDir, sessionID)

	meta, err := readMetadata(dir)
	if err != nil {
		return nil, err
	}

	id := meta.ID
	if id == "" {
		// Directory name stands in for sessions written without an id.
		id = sessionID
	}

	return &Info{
		ID:             id,
		Mode:           meta.Mode,
		StartTime:      meta.StartTime,
		TotalTasks:     meta.TotalTasks,
		CompletedTasks: meta.CompletedTasks,
		FailureCount:   countFailures(dir),
		SessionDir:     dir,
	}, nil
}

// SessionExists checks if a session with the given ID exists.
func SessionExists(sessionsDir, sessionID string) bool {
	_, err := os.Stat(filepath.Join(SessionDir(sessionsDir, sessionID), SessionFileName))
	return err == nil
}

// FindLatest returns the session with the most recent start time, or nil
// when no sessions exist.
func FindLatest(sessionsDir string) (*Info, error) {
	sessions, err := ListSessions(sessionsDir)
	if err != nil {
		return nil, err
	}

	var latest *Info
	for _, s := range sessions {
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	return latest, nil
}

// countFailures reads the failure records if present; any read or parse
// problem counts as zero, discovery never fails on a bad failure file.
func countFailures(dir string) int {
	failures, err := backlog.LoadFailures(filepath.Join(dir, backlog.FailuresFileName))
	if err != nil {
		return 0
	}
	return len(failures)
}

func readMetadata(dir string) (metadata, error) {
	var meta metadata
	data, err := os.ReadFile(filepath.Join(dir, SessionFileName))
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse session metadata: %w", err)
	}
	return meta, nil
}
