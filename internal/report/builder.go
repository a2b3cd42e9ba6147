// Package report renders the final failure report: one markdown document
// combining the timeline, per-failure triage (stack trace, impact, fixes,
// resume commands), category statistics, and aggregate impact for a whole
// failed pipeline run.
//
// Generation is deterministic for identical inputs apart from the single
// generated-at timestamp: failures render in sorted subtask-id order, and
// every sub-engine used here is itself order-stable.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidewell/autopsy/internal/backlog"
	pipelineerrors "github.com/tidewell/autopsy/internal/errors"
	"github.com/tidewell/autopsy/internal/impact"
	"github.com/tidewell/autopsy/internal/recommend"
	"github.com/tidewell/autopsy/internal/resume"
	"github.com/tidewell/autopsy/internal/stacktrace"
	"github.com/tidewell/autopsy/internal/timeline"
	"github.com/tidewell/autopsy/internal/util"
)

// FileName is the report's file name within the session directory.
const FileName = "ERROR_REPORT.md"

// timeFormat renders full timestamps; clockFormat renders time-of-day in
// the timeline statistics block.
const (
	timeFormat  = "2006-01-02 15:04:05"
	clockFormat = "15:04:05"
)

// Builder generates failure reports. Construct with NewBuilder.
type Builder struct {
	formatter    *stacktrace.Formatter
	engine       *recommend.Engine
	timelineMode timeline.Mode
	timeWindow   time.Duration
	resumeOpts   resume.Options

	// now is the wall clock, replaceable in tests.
	now func() time.Time
}

// NewBuilder creates a builder backed by the default fix catalog and a
// filesystem-reading stack trace formatter.
func NewBuilder() *Builder {
	return &Builder{
		formatter:    stacktrace.NewFormatter(),
		engine:       recommend.NewEngine(),
		timelineMode: timeline.ModeVertical,
		timeWindow:   timeline.DefaultWindow,
		now:          time.Now,
	}
}

// SetTimelineMode selects the timeline layout used in generated reports.
func (b *Builder) SetTimelineMode(mode timeline.Mode) {
	b.timelineMode = mode
}

// SetTimeWindow sets the burst-grouping window for the timeline
// statistics. Non-positive falls back to the timeline default.
func (b *Builder) SetTimeWindow(window time.Duration) {
	if window <= 0 {
		window = timeline.DefaultWindow
	}
	b.timeWindow = window
}

// SetResumeOptions applies operator options to every resume command the
// report renders.
func (b *Builder) SetResumeOptions(opts resume.Options) {
	b.resumeOpts = opts
}

// SetCatalogFile replaces the built-in fix catalog with an
// operator-supplied file.
func (b *Builder) SetCatalogFile(path string) error {
	engine, err := recommend.NewEngineFromFile(path)
	if err != nil {
		return err
	}
	b.engine = engine
	return nil
}

// Generate renders the full markdown report for a set of failures. It
// never returns an error: malformed failures, unknown subtask ids, and
// unreadable source files all degrade to documented defaults. Zero
// failures still produces every section with zeroed counts.
func (b *Builder) Generate(failures map[string]backlog.TaskFailure, ctx backlog.ReportContext) string {
	ids := sortedIDs(failures)
	sessionID := ctx.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	analyzer := impact.NewAnalyzer(ctx.Backlog)
	impacts := make(map[string]impact.TaskImpact, len(ids))
	for _, id := range ids {
		impacts[id] = analyzer.AnalyzeImpact(id)
	}

	var sb strings.Builder
	b.writeHeader(&sb, sessionID, ctx)
	b.writeSummary(&sb, len(ids), ctx)
	b.writeTimeline(&sb, ids, failures, sessionID, ctx)
	b.writeFailedTasks(&sb, ids, failures, impacts, ctx)
	writeCategories(&sb, ids, failures)
	writeImpactAnalysis(&sb, ids, impacts)
	b.writeNextSteps(&sb, ids, failures, ctx)
	return sb.String()
}

// sortedIDs fixes the failure iteration order for the whole report.
func sortedIDs(failures map[string]backlog.TaskFailure) []string {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// -----------------------------------------------------------------------------
// Header and Summary
// -----------------------------------------------------------------------------

func (b *Builder) writeHeader(sb *strings.Builder, sessionID string, ctx backlog.ReportContext) {
	sb.WriteString("# Error Report\n\n")
	fmt.Fprintf(sb, "**Generated:** %s\n", b.now().Format(timeFormat))
	fmt.Fprintf(sb, "**Session:** %s\n", sessionID)
	mode := ctx.Mode
	if mode == "" {
		mode = "default"
	}
	fmt.Fprintf(sb, "**Mode:** %s\n", mode)
	fmt.Fprintf(sb, "**Continue on error:** %t\n\n", ctx.ContinueOnError)
}

func (b *Builder) writeSummary(sb *strings.Builder, failed int, ctx backlog.ReportContext) {
	rate := "0.0%"
	if ctx.TotalTasks > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(ctx.CompletedTasks)/float64(ctx.TotalTasks)*100)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(sb, "| Total Tasks | %d |\n", ctx.TotalTasks)
	fmt.Fprintf(sb, "| Completed | %d |\n", ctx.CompletedTasks)
	fmt.Fprintf(sb, "| Failed | %d |\n", failed)
	fmt.Fprintf(sb, "| Success Rate | %s |\n\n", rate)
}

// -----------------------------------------------------------------------------
// Timeline
// -----------------------------------------------------------------------------

// writeTimeline feeds one entry per failure into a fresh tracker and
// renders the vertical layout plus the summary statistics.
func (b *Builder) writeTimeline(sb *strings.Builder, ids []string, failures map[string]backlog.TaskFailure, sessionID string, ctx backlog.ReportContext) {
	start := ctx.StartTime
	if start.IsZero() && len(ids) > 0 {
		start = failures[ids[0]].Timestamp
	}

	tracker := timeline.NewTracker(sessionID, start)
	for _, id := range ids {
		f := failures[id]
		event := f.Title
		if event == "" {
			event = "task failed"
		}
		entry := timeline.Entry{
			Timestamp: f.Timestamp,
			Severity:  timeline.SeverityError,
			SubtaskID: id,
			Event:     event,
		}
		if f.Err != nil {
			entry.Details = f.Err.Error()
		}
		tracker.AddEntry(entry)
	}

	sb.WriteString("## Error Timeline\n\n")
	sb.WriteString(tracker.Format(b.timelineMode))
	sb.WriteString("\n\n")

	summary := tracker.Summary()
	fmt.Fprintf(sb, "- Errors: %d\n", summary.ErrorCount)
	if summary.ErrorCount > 0 {
		fmt.Fprintf(sb, "- First error: %s\n", summary.FirstErrorAt.Format(clockFormat))
		fmt.Fprintf(sb, "- Last error: %s\n", summary.LastErrorAt.Format(clockFormat))
		fmt.Fprintf(sb, "- Error span: %s\n", util.FormatDuration(summary.ErrorSpan))
	}
	if summary.ErrorCount > 1 {
		bursts := tracker.GroupByTimeWindow(b.timeWindow)
		fmt.Fprintf(sb, "- Bursts: %d (%s window)\n", len(bursts), util.FormatDuration(b.timeWindow))
	}
	if !start.IsZero() {
		if total := b.now().Sub(start); total > 0 {
			fmt.Fprintf(sb, "- Total duration: %s\n", util.FormatDuration(total))
		}
	}
	sb.WriteString("\n")
}

// -----------------------------------------------------------------------------
// Failed Tasks
// -----------------------------------------------------------------------------

func (b *Builder) writeFailedTasks(sb *strings.Builder, ids []string, failures map[string]backlog.TaskFailure, impacts map[string]impact.TaskImpact, ctx backlog.ReportContext) {
	sb.WriteString("## Failed Tasks\n\n")
	if len(ids) == 0 {
		sb.WriteString("No failed tasks.\n\n")
		return
	}

	for i, id := range ids {
		f := failures[id]
		title := f.Title
		if title == "" {
			title = id
		}
		phase := f.Phase
		if phase == "" {
			phase = "Unknown"
		}
		milestone := f.Milestone
		if milestone == "" {
			milestone = "N/A"
		}

		fmt.Fprintf(sb, "### %d. %s\n\n", i+1, title)
		fmt.Fprintf(sb, "**Task:** `%s`\n", id)
		fmt.Fprintf(sb, "**Phase:** %s\n", phase)
		fmt.Fprintf(sb, "**Milestone:** %s\n", milestone)
		if !f.Timestamp.IsZero() {
			fmt.Fprintf(sb, "**Failed at:** %s\n", f.Timestamp.Format(timeFormat))
		}
		if f.Err != nil {
			fmt.Fprintf(sb, "**Error:** %s\n", f.Err.Error())
		}
		sb.WriteString("\n")

		b.writeTrace(sb, f)
		writeImpact(sb, impacts[id])
		b.writeFixes(sb, f, ctx)
		b.writeResumeCommands(sb, id, ctx.SessionPath)
	}
}

func (b *Builder) writeTrace(sb *strings.Builder, f backlog.TaskFailure) {
	if strings.TrimSpace(f.Trace) == "" {
		sb.WriteString("_No stack trace captured._\n\n")
		return
	}
	ft := b.formatter.Format(f.Err, f.Trace)

	sb.WriteString("**Stack trace:**\n\n```\n")
	if ft.ErrorType != "" {
		fmt.Fprintf(sb, "%s: %s\n", ft.ErrorType, ft.Message)
	}
	if len(ft.Frames) == 0 {
		sb.WriteString("(no application frames)\n")
	}
	for _, frame := range ft.Frames {
		sb.WriteString(formatFrame(frame))
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")

	if ft.Source != nil {
		fmt.Fprintf(sb, "Source context (`%s:%d`):\n\n```\n", ft.Source.File, ft.Source.Line)
		first := ft.Source.Line - ft.Source.ErrorIndex
		for i, line := range ft.Source.Lines {
			marker := "  "
			if i == ft.Source.ErrorIndex {
				marker = "> "
			}
			fmt.Fprintf(sb, "%s%4d | %s\n", marker, first+i, line)
		}
		sb.WriteString("```\n\n")
	}
}

func formatFrame(frame stacktrace.Frame) string {
	loc := fmt.Sprintf("%s:%d", frame.File, frame.Line)
	if frame.Column > 0 {
		loc = fmt.Sprintf("%s:%d", loc, frame.Column)
	}
	if frame.Function != "" {
		return fmt.Sprintf("  at %s (%s)", frame.Function, loc)
	}
	return fmt.Sprintf("  at %s", loc)
}

func writeImpact(sb *strings.Builder, ti impact.TaskImpact) {
	fmt.Fprintf(sb, "**Impact:** %s %s — %d affected task(s), cascade depth %d, suggested action: %s\n",
		impact.Icon(ti.Level), impact.Label(ti.Level), len(ti.AffectedTasks), ti.CascadeDepth, ti.SuggestedAction)
	if len(ti.AffectedTasks) > 0 {
		fmt.Fprintf(sb, "Affected: %s\n", strings.Join(ti.AffectedTasks, ", "))
	}
	sb.WriteString("\n")
}

func (b *Builder) writeFixes(sb *strings.Builder, f backlog.TaskFailure, ctx backlog.ReportContext) {
	fixes := b.engine.GenerateFixes(f.Err, recommend.Context{
		TaskID:      f.SubtaskID,
		SessionPath: ctx.SessionPath,
	})
	if len(fixes) == 0 {
		return
	}

	sb.WriteString("**Suggested fixes:**\n\n")
	for _, fix := range fixes {
		fmt.Fprintf(sb, "%d. %s\n", fix.Priority, fix.Description)
		if fix.Command != "" {
			fmt.Fprintf(sb, "   Command: `%s`\n", fix.Command)
		}
		if fix.Explanation != "" {
			fmt.Fprintf(sb, "   %s\n", fix.Explanation)
		}
		if fix.DocsURL != "" {
			fmt.Fprintf(sb, "   Docs: %s\n", fix.DocsURL)
		}
	}
	sb.WriteString("\n")
}

func (b *Builder) writeResumeCommands(sb *strings.Builder, id, sessionPath string) {
	commands := resume.BuildAllCommandsWith(id, sessionPath, b.resumeOpts)
	sb.WriteString("**Resume commands:**\n\n")
	sb.WriteString(resume.FormatAsMarkdown(commands, nil))
	sb.WriteString("\n\n")
}

// -----------------------------------------------------------------------------
// Error Categories
// -----------------------------------------------------------------------------

// writeCategories counts failures per taxonomy kind, including zero-count
// rows, in the taxonomy's canonical order. Non-taxonomy errors count as
// task failures.
func writeCategories(sb *strings.Builder, ids []string, failures map[string]backlog.TaskFailure) {
	counts := make(map[pipelineerrors.Kind]int, len(pipelineerrors.Kinds))
	for _, id := range ids {
		counts[failureKind(failures[id])]++
	}

	sb.WriteString("## Error Categories\n\n")
	sb.WriteString("| Category | Count | Percentage |\n")
	sb.WriteString("|----------|-------|------------|\n")
	for _, kind := range pipelineerrors.Kinds {
		pct := 0.0
		if len(ids) > 0 {
			pct = float64(counts[kind]) / float64(len(ids)) * 100
		}
		fmt.Fprintf(sb, "| %s | %d | %.1f%% |\n", kind, counts[kind], pct)
	}
	sb.WriteString("\n")
}

// failureKind classifies a failure by its taxonomy kind, defaulting to
// task for raw errors and missing errors alike.
func failureKind(f backlog.TaskFailure) pipelineerrors.Kind {
	var perr *pipelineerrors.PipelineError
	if pipelineerrors.As(f.Err, &perr) {
		return perr.Kind()
	}
	return pipelineerrors.KindTask
}

// -----------------------------------------------------------------------------
// Aggregate Impact
// -----------------------------------------------------------------------------

// writeImpactAnalysis unions the per-failure impacts: distinct blocked
// phases, milestones, and affected tasks; the maximum cascade depth; and
// the maximum severity across all failures.
func writeImpactAnalysis(sb *strings.Builder, ids []string, impacts map[string]impact.TaskImpact) {
	phases := make(map[string]struct{})
	milestones := make(map[string]struct{})
	tasks := make(map[string]struct{})
	maxDepth := 0
	overall := impact.LevelNone

	for _, id := range ids {
		ti := impacts[id]
		for _, p := range ti.BlockedPhases {
			phases[p] = struct{}{}
		}
		for _, m := range ti.BlockedMilestones {
			milestones[m] = struct{}{}
		}
		for _, t := range ti.AffectedTasks {
			tasks[t] = struct{}{}
		}
		if ti.CascadeDepth > maxDepth {
			maxDepth = ti.CascadeDepth
		}
		overall = impact.MaxLevel(overall, ti.Level)
	}

	sb.WriteString("## Impact Analysis\n\n")
	fmt.Fprintf(sb, "**Overall severity:** %s %s\n\n", impact.Icon(overall), impact.Label(overall))
	sb.WriteString("| Scope | Blocked |\n")
	sb.WriteString("|-------|--------|\n")
	fmt.Fprintf(sb, "| Phases | %d |\n", len(phases))
	fmt.Fprintf(sb, "| Milestones | %d |\n", len(milestones))
	fmt.Fprintf(sb, "| Tasks | %d |\n", len(tasks))
	fmt.Fprintf(sb, "| Max cascade depth | %d |\n\n", maxDepth)
}

// -----------------------------------------------------------------------------
// Next Steps
// -----------------------------------------------------------------------------

func (b *Builder) writeNextSteps(sb *strings.Builder, ids []string, failures map[string]backlog.TaskFailure, ctx backlog.ReportContext) {
	sb.WriteString("## Next Steps\n\n")

	for i, id := range ids {
		f := failures[id]
		title := f.Title
		if title == "" {
			title = id
		}
		pointer := "review the failure details above"
		fixes := b.engine.GenerateFixes(f.Err, recommend.Context{TaskID: id, SessionPath: ctx.SessionPath})
		if len(fixes) > 0 {
			pointer = fixes[0].Description
		}
		fmt.Fprintf(sb, "%d. **%s** (`%s`): %s\n", i+1, title, id, pointer)
	}
	if len(ids) > 0 {
		sb.WriteString("\n")
	}

	command := resume.Build(resume.Request{Action: resume.ActionContinue, Flags: b.resumeOpts.ExtraFlags})
	if len(ids) > 0 {
		command = resume.Build(resume.Request{
			Action:  resume.ActionRetry,
			TaskID:  ids[0],
			Session: ctx.SessionPath,
			Flags:   b.resumeOpts.ExtraFlags,
		})
	}
	fmt.Fprintf(sb, "**Resume:**\n\n```\n$ %s\n```\n\n", command)

	location := FileName
	if ctx.SessionPath != "" {
		location = filepath.Join(ctx.SessionPath, FileName)
	}
	fmt.Fprintf(sb, "**Report location:** %s\n", location)
}
