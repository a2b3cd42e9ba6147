package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tidewell/autopsy/internal/backlog"
	pipelineerrors "github.com/tidewell/autopsy/internal/errors"
	"github.com/tidewell/autopsy/internal/resume"
)

var baseTime = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

// newTestBuilder pins the wall clock one hour past the session start.
func newTestBuilder() *Builder {
	b := NewBuilder()
	b.now = func() time.Time { return baseTime.Add(time.Hour) }
	return b
}

func testBacklog() *backlog.Backlog {
	return &backlog.Backlog{
		Phases: []backlog.Phase{
			{
				ID:    "P1",
				Title: "Foundation",
				Milestones: []backlog.Milestone{
					{
						ID: "P1.M1",
						Tasks: []backlog.Task{
							{
								ID: "P1.M1.T1",
								Subtasks: []backlog.Subtask{
									{ID: "P1.M1.T1.S1", Title: "Set up schema"},
									{ID: "P1.M1.T1.S2", Title: "Write migrations", Dependencies: []string{"P1.M1.T1.S1"}},
									{ID: "P1.M1.T1.S3", Title: "Seed data", Dependencies: []string{"P1.M1.T1.S2"}},
								},
							},
						},
					},
				},
			},
		},
	}
}

var sectionHeadings = []string{
	"# Error Report",
	"## Summary",
	"## Error Timeline",
	"## Failed Tasks",
	"## Error Categories",
	"## Impact Analysis",
	"## Next Steps",
}

// -----------------------------------------------------------------------------
// Zero Failure Tests
// -----------------------------------------------------------------------------

func TestGenerate_ZeroFailures(t *testing.T) {
	b := newTestBuilder()
	got := b.Generate(nil, backlog.ReportContext{
		SessionID: "sess-1",
		Backlog:   testBacklog(),
		StartTime: baseTime,
	})

	for _, heading := range sectionHeadings {
		if !strings.Contains(got, heading+"\n") {
			t.Errorf("missing section heading %q", heading)
		}
	}
	if !strings.Contains(got, "| Failed | 0 |") {
		t.Error("missing Failed: 0 summary row")
	}
	// totalTasks = 0 renders 0.0%, not a division error.
	if !strings.Contains(got, "| Success Rate | 0.0% |") {
		t.Error("missing 0.0% success rate for empty run")
	}
	if !strings.Contains(got, "No events recorded.") {
		t.Error("empty timeline not rendered")
	}
	if !strings.Contains(got, "No failed tasks.") {
		t.Error("missing empty failed-tasks placeholder")
	}
	// All four taxonomy rows appear with zero counts.
	for _, kind := range pipelineerrors.Kinds {
		row := "| " + kind.String() + " | 0 | 0.0% |"
		if !strings.Contains(got, row) {
			t.Errorf("missing zero-count category row %q", row)
		}
	}
	if !strings.Contains(got, "**Overall severity:** ⚪ None") {
		t.Error("overall severity should be None with no failures")
	}
	if !strings.Contains(got, "$ autopsy run --continue") {
		t.Error("zero failures should suggest the continue command")
	}
}

// -----------------------------------------------------------------------------
// Full Report Tests
// -----------------------------------------------------------------------------

func fullReportInput() (map[string]backlog.TaskFailure, backlog.ReportContext) {
	failures := map[string]backlog.TaskFailure{
		// Map order is irrelevant; the report sorts ids.
		"P1.M1.T1.S2": {
			SubtaskID: "P1.M1.T1.S2",
			Title:     "Write migrations",
			Err:       errors.New("migration 004 is not idempotent"),
			Timestamp: baseTime.Add(10 * time.Minute),
		},
		"P1.M1.T1.S1": {
			SubtaskID: "P1.M1.T1.S1",
			Title:     "Set up schema",
			Err:       pipelineerrors.NewSessionError("session state unreadable", nil),
			Timestamp: baseTime.Add(2 * time.Minute),
			Phase:     "Foundation",
			Milestone: "Database",
		},
	}
	ctx := backlog.ReportContext{
		SessionPath:    "/work/sessions/s1",
		SessionID:      "sess-1",
		Backlog:        testBacklog(),
		TotalTasks:     10,
		CompletedTasks: 7,
		Mode:           "auto",
		StartTime:      baseTime,
	}
	return failures, ctx
}

func TestGenerate_FullReport(t *testing.T) {
	b := newTestBuilder()
	failures, ctx := fullReportInput()
	got := b.Generate(failures, ctx)

	if !strings.Contains(got, "**Generated:** 2026-08-24 11:00:00") {
		t.Error("missing pinned generation timestamp")
	}
	if !strings.Contains(got, "**Session:** sess-1") || !strings.Contains(got, "**Mode:** auto") {
		t.Error("missing session metadata in header")
	}
	if !strings.Contains(got, "| Success Rate | 70.0% |") {
		t.Error("success rate should be 70.0% for 7/10")
	}

	// Failures render in sorted id order.
	s1 := strings.Index(got, "### 1. Set up schema")
	s2 := strings.Index(got, "### 2. Write migrations")
	if s1 < 0 || s2 < 0 || s2 < s1 {
		t.Fatalf("failure sections missing or out of order (s1=%d, s2=%d)", s1, s2)
	}

	// Explicit labels kept; missing ones defaulted.
	if !strings.Contains(got, "**Phase:** Foundation") || !strings.Contains(got, "**Milestone:** Database") {
		t.Error("explicit phase/milestone labels not rendered")
	}
	if !strings.Contains(got, "**Phase:** Unknown") || !strings.Contains(got, "**Milestone:** N/A") {
		t.Error("missing phase/milestone defaults")
	}

	if !strings.Contains(got, "_No stack trace captured._") {
		t.Error("missing no-trace placeholder")
	}

	// S1 blocks S2 and S3; M1 is the phase's only milestone, so the whole
	// phase is blocked and the failure rates high.
	if !strings.Contains(got, "🟠 High") {
		t.Error("missing high-severity impact for the root failure")
	}
	if !strings.Contains(got, "Affected: P1.M1.T1.S2, P1.M1.T1.S3") {
		t.Error("missing downstream task list for the root failure")
	}

	// One session error, one raw error counted as task.
	if !strings.Contains(got, "| session | 1 | 50.0% |") {
		t.Error("missing session category count")
	}
	if !strings.Contains(got, "| task | 1 | 50.0% |") {
		t.Error("raw error should count as a task failure")
	}
	if !strings.Contains(got, "| agent | 0 | 0.0% |") {
		t.Error("zero-count categories must still appear")
	}

	// Aggregate impact: union of {S2,S3} and {S3} is 2 tasks, depth 2.
	if !strings.Contains(got, "| Tasks | 2 |") {
		t.Error("aggregate affected-task union should be 2")
	}
	if !strings.Contains(got, "| Max cascade depth | 2 |") {
		t.Error("max cascade depth should be 2")
	}
	if !strings.Contains(got, "**Overall severity:** 🟠 High") {
		t.Error("overall severity should be the per-failure maximum")
	}

	// Canonical resume targets the first sorted failure.
	if !strings.Contains(got, "$ autopsy run --session /work/sessions/s1 --task P1.M1.T1.S1 --retry") {
		t.Error("missing canonical retry command in next steps")
	}
	if !strings.Contains(got, "**Report location:** /work/sessions/s1/ERROR_REPORT.md") {
		t.Error("missing report location")
	}
}

func TestGenerate_TimelineStats(t *testing.T) {
	b := newTestBuilder()
	failures, ctx := fullReportInput()
	got := b.Generate(failures, ctx)

	if !strings.Contains(got, "- Errors: 2") {
		t.Error("missing error count")
	}
	if !strings.Contains(got, "- First error: 10:02:00") || !strings.Contains(got, "- Last error: 10:12:00") {
		t.Error("missing first/last error times")
	}
	if !strings.Contains(got, "- Error span: 10m0s") {
		t.Error("missing error span")
	}
	if !strings.Contains(got, "- Total duration: 1h0m0s") {
		t.Error("missing pinned total duration")
	}
	// 10:02 and 10:12 are farther apart than the default 5m window.
	if !strings.Contains(got, "- Bursts: 2 (5m0s window)") {
		t.Error("missing burst count for the default window")
	}

	// The vertical layout lists entries chronologically with glyphs.
	first := strings.Index(got, "10:02:00 ❌ [P1.M1.T1.S1] Set up schema")
	second := strings.Index(got, "10:12:00 ❌ [P1.M1.T1.S2] Write migrations")
	if first < 0 || second < 0 || second < first {
		t.Errorf("timeline entries missing or out of order (first=%d, second=%d)", first, second)
	}
}

func TestGenerate_StackTraceSection(t *testing.T) {
	b := newTestBuilder()
	failures := map[string]backlog.TaskFailure{
		"P1.M1.T1.S1": {
			SubtaskID: "P1.M1.T1.S1",
			Title:     "Set up schema",
			Err:       pipelineerrors.NewTaskError("schema apply failed", nil),
			Timestamp: baseTime,
			Trace: strings.Join([]string{
				"at applySchema (src/db/schema.go:42:7)",
				"at run (/home/ci/go/pkg/mod/some/dep@v1/run.go:10)",
			}, "\n"),
		},
	}
	got := b.Generate(failures, backlog.ReportContext{Backlog: testBacklog(), StartTime: baseTime})

	if !strings.Contains(got, "**Stack trace:**") {
		t.Fatal("missing stack trace block")
	}
	if !strings.Contains(got, "PipelineError: schema apply failed [PIPELINE_TASK_EXECUTION_FAILED]") {
		t.Error("missing error type and message line")
	}
	if !strings.Contains(got, "  at applySchema (src/db/schema.go:42:7)") {
		t.Error("missing surviving user frame")
	}
	// The module-cache frame is filtered out.
	if strings.Contains(got, "run.go:10") {
		t.Error("library frame leaked into the report")
	}
	// src/db/schema.go does not exist, so no source excerpt.
	if strings.Contains(got, "Source context") {
		t.Error("source context rendered for an unreadable file")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	b := newTestBuilder()
	failures, ctx := fullReportInput()
	if first, second := b.Generate(failures, ctx), b.Generate(failures, ctx); first != second {
		t.Error("repeated generation with a pinned clock should be byte-identical")
	}
}

func TestGenerate_DefaultsSessionID(t *testing.T) {
	b := newTestBuilder()
	got := b.Generate(nil, backlog.ReportContext{Backlog: testBacklog(), StartTime: baseTime})

	if strings.Contains(got, "**Session:** \n") {
		t.Error("empty session id should be defaulted, not blank")
	}
}

// -----------------------------------------------------------------------------
// Configured Option Tests
// -----------------------------------------------------------------------------

func TestGenerate_TimeWindow(t *testing.T) {
	b := newTestBuilder()
	b.SetTimeWindow(15 * time.Minute)
	failures, ctx := fullReportInput()
	got := b.Generate(failures, ctx)

	// With a 15m window the 10m gap stays inside one burst.
	if !strings.Contains(got, "- Bursts: 1 (15m0s window)") {
		t.Error("missing burst count for the widened window")
	}

	// Non-positive falls back to the timeline default.
	b.SetTimeWindow(0)
	if got = b.Generate(failures, ctx); !strings.Contains(got, "- Bursts: 2 (5m0s window)") {
		t.Error("zero window should fall back to the default")
	}
}

func TestGenerate_ResumeOptions(t *testing.T) {
	b := newTestBuilder()
	b.SetResumeOptions(resume.Options{
		SkipDependents: true,
		ExtraFlags:     []string{"--no-color"},
	})
	failures, ctx := fullReportInput()
	got := b.Generate(failures, ctx)

	if !strings.Contains(got, "--skip P1.M1.T1.S1 --skip-dependents --no-color") {
		t.Error("skip command missing configured skip-dependents and extra flags")
	}
	if !strings.Contains(got, "--task P1.M1.T1.S1 --retry --no-color") {
		t.Error("retry command missing configured extra flags")
	}
	// The canonical command in Next Steps carries the extra flags too.
	if !strings.Contains(got, "$ autopsy run --session "+ctx.SessionPath+" --task P1.M1.T1.S1 --retry --no-color") {
		t.Error("canonical resume command missing configured extra flags")
	}
}
