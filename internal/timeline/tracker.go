// Package timeline provides an append-only, time-ordered event log for
// failure reporting: entries stay sorted by timestamp as they are added,
// and the log renders in three layouts plus grouping and aggregation
// queries.
package timeline

import (
	"time"

	"github.com/tidewell/autopsy/internal/backlog"
)

// Severity classifies a timeline entry for rendering.
type Severity string

const (
	// SeverityError marks a failure event.
	SeverityError Severity = "error"
	// SeverityWarning marks a degraded-but-continuing event.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks a neutral progress event.
	SeverityInfo Severity = "info"
	// SeveritySuccess marks a recovery or completion event.
	SeveritySuccess Severity = "success"
)

// Glyph returns the per-severity marker used in rendered timelines.
func (s Severity) Glyph() string {
	switch s {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️"
	case SeveritySuccess:
		return "✅"
	default:
		return "ℹ️"
	}
}

// Entry is one event in the timeline. Related events nest beneath their
// parent and are not independently sorted into the main log.
type Entry struct {
	Timestamp time.Time
	Severity  Severity
	SubtaskID string
	Event     string
	// Details is optional free text rendered beneath the entry in the
	// vertical layout.
	Details string
	// Duration optionally records how long the underlying operation ran.
	Duration time.Duration
	// Related holds nested events (retries, follow-ups) tied to this entry.
	Related []Entry
}

// Timeline is a point-in-time snapshot of the tracker: the end time is
// captured when the snapshot is taken, not when the tracker was built.
type Timeline struct {
	SessionID string
	StartTime time.Time
	EndTime   time.Time
	Entries   []Entry
}

// Summary aggregates the tracker's contents for the report's statistics
// block.
type Summary struct {
	// FirstErrorAt is the first entry's timestamp, or the tracker's start
	// time when the log is empty.
	FirstErrorAt time.Time
	// LastErrorAt is the last entry's timestamp; zero when the log is empty.
	LastErrorAt time.Time
	// ErrorCount is the number of top-level entries.
	ErrorCount int
	// ErrorSpan is the distance between the first and last entries.
	ErrorSpan time.Duration
	// TotalDuration is the time elapsed since the tracker's start, never
	// negative.
	TotalDuration time.Duration
}

// Tracker owns a private, always-sorted-by-timestamp entry list for one
// session.
type Tracker struct {
	sessionID string
	startTime time.Time
	entries   []Entry

	// now is the wall clock, replaceable in tests.
	now func() time.Time
}

// NewTracker creates a tracker for a session starting at the given time.
func NewTracker(sessionID string, start time.Time) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		startTime: start,
		now:       time.Now,
	}
}

// AddEntry inserts an entry keeping the list sorted by timestamp.
// Insertion is stable: among equal timestamps, earlier insertions stay
// first.
func (t *Tracker) AddEntry(e Entry) {
	// Find the first index whose timestamp is after the new entry; equal
	// timestamps sort before it, preserving insertion order among ties.
	idx := len(t.entries)
	for i, existing := range t.entries {
		if existing.Timestamp.After(e.Timestamp) {
			idx = i
			break
		}
	}
	t.entries = append(t.entries, Entry{})
	copy(t.entries[idx+1:], t.entries[idx:])
	t.entries[idx] = e
}

// Timeline returns a snapshot with the current wall-clock time as the end
// time and a copy of the sorted entry list.
func (t *Tracker) Timeline() Timeline {
	return Timeline{
		SessionID: t.sessionID,
		StartTime: t.startTime,
		EndTime:   t.now(),
		Entries:   append([]Entry(nil), t.entries...),
	}
}

// Duration returns the distance between the earliest and latest entry
// timestamps, regardless of insertion order. Zero or one entries yield 0.
func (t *Tracker) Duration() time.Duration {
	if len(t.entries) < 2 {
		return 0
	}
	return t.entries[len(t.entries)-1].Timestamp.Sub(t.entries[0].Timestamp)
}

// Summary aggregates the log for the report's statistics block.
func (t *Tracker) Summary() Summary {
	s := Summary{
		FirstErrorAt: t.startTime,
		ErrorCount:   len(t.entries),
		ErrorSpan:    t.Duration(),
	}
	if len(t.entries) > 0 {
		s.FirstErrorAt = t.entries[0].Timestamp
		s.LastErrorAt = t.entries[len(t.entries)-1].Timestamp
	}
	if total := t.now().Sub(t.startTime); total > 0 {
		s.TotalDuration = total
	}
	return s
}

// PhaseGroup is one phase's chronological slice of the timeline.
type PhaseGroup struct {
	// PhaseID is the first dot-segment of the member entries' subtask ids.
	PhaseID string
	// Title is the phase title from the backlog, when the phase exists
	// there. Empty otherwise.
	Title string
	// Entries preserves the group's chronological order.
	Entries []Entry
}

// GroupByPhase groups entries by the first dot-segment of their subtask
// id. Groups appear in order of first occurrence and each group preserves
// chronological order. No entries means no groups.
func (t *Tracker) GroupByPhase(b *backlog.Backlog) []PhaseGroup {
	var groups []PhaseGroup
	index := make(map[string]int)

	for _, e := range t.entries {
		phaseID := backlog.PhaseID(e.SubtaskID)
		i, ok := index[phaseID]
		if !ok {
			i = len(groups)
			index[phaseID] = i
			group := PhaseGroup{PhaseID: phaseID}
			if p, found := b.FindPhase(phaseID); found {
				group.Title = p.Title
			}
			groups = append(groups, group)
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// DefaultWindow is the grouping window used when GroupByTimeWindow is
// given a non-positive size.
const DefaultWindow = 5 * time.Minute

// GroupByTimeWindow splits the log into bursts of activity: walking in
// chronological order, a new window starts whenever the gap between an
// entry and the previous entry (not the window start) exceeds the window
// size. A gap exactly equal to the window size stays in the same window.
func (t *Tracker) GroupByTimeWindow(window time.Duration) [][]Entry {
	if window <= 0 {
		window = DefaultWindow
	}
	var windows [][]Entry
	for i, e := range t.entries {
		if i == 0 || e.Timestamp.Sub(t.entries[i-1].Timestamp) > window {
			windows = append(windows, nil)
		}
		windows[len(windows)-1] = append(windows[len(windows)-1], e)
	}
	return windows
}
