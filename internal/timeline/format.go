// This file contains the three timeline rendering layouts.
package timeline

import (
	"fmt"
	"strings"

	"github.com/tidewell/autopsy/internal/util"
)

// Mode selects a timeline rendering layout.
type Mode string

const (
	// ModeVertical renders one entry per line with details and related
	// events indented beneath. The default.
	ModeVertical Mode = "vertical"
	// ModeCompact renders a bordered block with truncated event text.
	ModeCompact Mode = "compact"
	// ModeHorizontal joins entries on one line with arrow separators,
	// omitting details and related events.
	ModeHorizontal Mode = "horizontal"
)

// emptyTimeline is rendered by every mode when the log has no entries.
const emptyTimeline = "No events recorded."

// compactEventWidth is the truncation limit for event text in the compact
// layout.
const compactEventWidth = 30

// compactRuleWidth is the width of the compact layout's top and bottom
// rules.
const compactRuleWidth = 46

// Format renders the timeline in the requested mode. Unrecognized modes
// fall back to the vertical layout.
func (t *Tracker) Format(mode Mode) string {
	if len(t.entries) == 0 {
		return emptyTimeline
	}
	switch mode {
	case ModeCompact:
		return t.formatCompact()
	case ModeHorizontal:
		return t.formatHorizontal()
	default:
		return t.formatVertical()
	}
}

// formatVertical renders one line per entry, with details and related
// events as indented lines beneath, each carrying its own time-of-day.
func (t *Tracker) formatVertical() string {
	var b strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s [%s] %s",
			e.Timestamp.Format("15:04:05"), e.Severity.Glyph(), e.SubtaskID, e.Event)
		if e.Details != "" {
			fmt.Fprintf(&b, "\n    %s └─ %s", e.Timestamp.Format("15:04:05"), e.Details)
		}
		for _, rel := range e.Related {
			fmt.Fprintf(&b, "\n    %s ↳ [%s] %s",
				rel.Timestamp.Format("15:04:05"), rel.SubtaskID, rel.Event)
		}
	}
	return b.String()
}

// formatCompact renders a bordered block titled with the session id.
// Event text is truncated to compactEventWidth; related events carry a
// distinct marker and are not truncated.
func (t *Tracker) formatCompact() string {
	var b strings.Builder
	title := fmt.Sprintf("┌─ Error Timeline (%s) ", t.sessionID)
	b.WriteString(title)
	if pad := compactRuleWidth - len([]rune(title)); pad > 0 {
		b.WriteString(strings.Repeat("─", pad))
	}
	b.WriteByte('\n')
	for _, e := range t.entries {
		fmt.Fprintf(&b, "│ %s %s\n",
			e.Timestamp.Format("15:04"), util.TruncateString(e.Event, compactEventWidth))
		for _, rel := range e.Related {
			fmt.Fprintf(&b, "│   ↳ %s\n", rel.Event)
		}
	}
	b.WriteString("└")
	b.WriteString(strings.Repeat("─", compactRuleWidth-1))
	return b.String()
}

// formatHorizontal joins entries on one line; details and related events
// are omitted entirely.
func (t *Tracker) formatHorizontal() string {
	parts := make([]string, len(t.entries))
	for i, e := range t.entries {
		parts[i] = fmt.Sprintf("%s [%s] %s",
			e.Timestamp.Format("15:04"), e.SubtaskID, e.Event)
	}
	return strings.Join(parts, " → ")
}
