package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/tidewell/autopsy/internal/config"
)

const testMetaYAML = `
id: sess-1
mode: auto
total_tasks: 4
completed_tasks: 3
start_time: 2026-08-24T10:00:00Z
`

const testFailuresYAML = `
failures:
  - subtask_id: P1.M1.T1.S1
    title: Set up schema
    kind: task
    code: PIPELINE_TASK_EXECUTION_FAILED
    message: schema apply failed
    timestamp: 2026-08-24T10:02:00Z
`

// writeTestSession creates a sessions dir with one populated session and
// returns the sessions dir path.
func writeTestSession(t *testing.T, id string) string {
	t.Helper()
	sessionsDir := t.TempDir()
	dir := filepath.Join(sessionsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"session.yaml":  testMetaYAML,
		"failures.yaml": testFailuresYAML,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return sessionsDir
}

func testConfig(sessionsDir string) *config.Config {
	cfg := config.Default()
	cfg.Paths.SessionsDir = sessionsDir
	cfg.Logging.Enabled = false
	return cfg
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"report", "sessions", "view", "watch"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestResolveSession(t *testing.T) {
	sessionsDir := writeTestSession(t, "sess-1")
	cfg := testConfig(sessionsDir)

	info, err := resolveSession(cfg, []string{"sess-1"})
	if err != nil {
		t.Fatalf("resolveSession error: %v", err)
	}
	if info.ID != "sess-1" {
		t.Errorf("ID = %q, want sess-1", info.ID)
	}

	// Prefix match.
	if info, err = resolveSession(cfg, []string{"sess"}); err != nil || info.ID != "sess-1" {
		t.Errorf("prefix match = %v, %v", info, err)
	}

	// No argument picks the latest session.
	if info, err = resolveSession(cfg, nil); err != nil || info.ID != "sess-1" {
		t.Errorf("latest = %v, %v", info, err)
	}

	if _, err = resolveSession(cfg, []string{"nope"}); err == nil {
		t.Error("unknown session id: error = nil")
	}

	if _, err = resolveSession(testConfig(t.TempDir()), nil); err == nil {
		t.Error("empty sessions dir: error = nil")
	}
}

func TestGenerateReport(t *testing.T) {
	sessionsDir := writeTestSession(t, "sess-1")
	cfg := testConfig(sessionsDir)
	cfg.Resume.SkipDependents = true
	cfg.Resume.ExtraFlags = []string{"--no-color"}

	markdown, err := generateReport(cfg, filepath.Join(sessionsDir, "sess-1"))
	if err != nil {
		t.Fatalf("generateReport error: %v", err)
	}
	for _, heading := range []string{"# Error Report", "## Summary", "## Next Steps"} {
		if !strings.Contains(markdown, heading) {
			t.Errorf("report missing %q", heading)
		}
	}
	if !strings.Contains(markdown, "Set up schema") {
		t.Error("report missing the failed task")
	}
	// The resume section of the config shapes the rendered commands.
	if !strings.Contains(markdown, "--skip-dependents --no-color") {
		t.Error("report missing configured resume options")
	}
}

func TestGenerateReport_BadCatalogPath(t *testing.T) {
	sessionsDir := writeTestSession(t, "sess-1")
	cfg := testConfig(sessionsDir)
	cfg.Report.CatalogPath = filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := generateReport(cfg, filepath.Join(sessionsDir, "sess-1")); err == nil {
		t.Error("missing catalog file: error = nil")
	}
}

func TestReportCommand(t *testing.T) {
	sessionsDir := writeTestSession(t, "sess-1")
	viper.Reset()
	defer viper.Reset()
	config.SetDefaults()
	viper.Set("paths.sessions_dir", sessionsDir)
	viper.Set("logging.enabled", false)

	var out bytes.Buffer
	cmd := *reportCmd
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := runReport(&cmd, []string{"sess-1"}); err != nil {
		t.Fatalf("report command error: %v", err)
	}
	if !strings.Contains(out.String(), "# Error Report") {
		t.Error("report command did not print the report")
	}
}

func TestSessionsCommand(t *testing.T) {
	sessionsDir := writeTestSession(t, "sess-1")
	viper.Reset()
	defer viper.Reset()
	config.SetDefaults()
	viper.Set("paths.sessions_dir", sessionsDir)

	var out bytes.Buffer
	cmd := *sessionsCmd
	cmd.SetOut(&out)

	if err := runSessions(&cmd, nil); err != nil {
		t.Fatalf("sessions command error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "sess-1") || !strings.Contains(got, "Failures: 1") {
		t.Errorf("sessions output missing session details:\n%s", got)
	}
}
