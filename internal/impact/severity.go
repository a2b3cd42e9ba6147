// Package impact computes the blast radius of a failed subtask across the
// backlog's dependency graph: downstream dependents, blocked containers,
// cascade depth, a severity classification, and a continuation verdict.
//
// The analyzer is purely analytical. Unknown ids, empty backlogs, cycles,
// and self-dependencies all resolve to documented defaults; nothing in this
// package returns an error.
package impact

// Level is the severity classification of a failure's impact.
// Levels are totally ordered: none < low < medium < high < critical.
type Level string

const (
	// LevelNone indicates no downstream work is affected.
	LevelNone Level = "none"
	// LevelLow indicates a small number of subtasks is affected.
	LevelLow Level = "low"
	// LevelMedium indicates a milestone or a wide set of subtasks is affected.
	LevelMedium Level = "medium"
	// LevelHigh indicates at least one phase or several milestones are blocked.
	LevelHigh Level = "high"
	// LevelCritical indicates multiple phases are blocked.
	LevelCritical Level = "critical"
)

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}

// rank orders levels for comparisons. Unknown levels rank below none.
func (l Level) rank() int {
	switch l {
	case LevelNone:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return -1
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l Level) AtLeast(other Level) bool {
	return l.rank() >= other.rank()
}

// MaxLevel returns the more severe of two levels.
func MaxLevel(a, b Level) Level {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Action is the recommended operator response to a failure.
type Action string

const (
	// ActionPause recommends stopping the pipeline for operator review.
	ActionPause Action = "pause"
	// ActionRetry recommends re-running the failed subtask.
	ActionRetry Action = "retry"
	// ActionContinue recommends proceeding with unaffected work.
	ActionContinue Action = "continue"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Icon returns the single-glyph severity indicator used in rendered
// reports. The five-glyph mapping is part of the output contract.
func Icon(l Level) string {
	switch l {
	case LevelCritical:
		return "🔴"
	case LevelHigh:
		return "🟠"
	case LevelMedium:
		return "🟡"
	case LevelLow:
		return "🔵"
	default:
		return "⚪"
	}
}

// Label returns the capitalized severity label used in rendered reports.
func Label(l Level) string {
	switch l {
	case LevelCritical:
		return "Critical"
	case LevelHigh:
		return "High"
	case LevelMedium:
		return "Medium"
	case LevelLow:
		return "Low"
	default:
		return "None"
	}
}
