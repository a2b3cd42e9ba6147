package impact

import (
	"github.com/tidewell/autopsy/internal/backlog"
)

// TaskImpact is the derived blast radius of one failed subtask.
type TaskImpact struct {
	// Level is the severity classification.
	Level Level
	// AffectedTasks lists every transitively dependent subtask id, each
	// exactly once, in traversal order.
	AffectedTasks []string
	// BlockedPhases lists phases whose every milestone is blocked.
	BlockedPhases []string
	// BlockedMilestones lists milestones containing at least one affected
	// subtask.
	BlockedMilestones []string
	// BlockedTasks is the affected subtask id set itself, used at subtask
	// granularity for severity scoring.
	BlockedTasks []string
	// CanContinue reports whether independent work remains in the backlog.
	CanContinue bool
	// SuggestedAction is the recommended operator response.
	SuggestedAction Action
	// CascadeDepth is the length of the longest downstream chain.
	CascadeDepth int
}

// Analyzer computes impact over an immutable backlog snapshot. It builds a
// reverse-dependency index once at construction; the backlog must not be
// mutated while the analyzer holds it.
type Analyzer struct {
	backlog *backlog.Backlog

	// dependents maps a subtask id to the ids of subtasks that declare it
	// as a dependency, in backlog declaration order.
	dependents map[string][]string
	// known holds every subtask id present in the backlog.
	known map[string]struct{}
}

// NewAnalyzer creates an analyzer over the given backlog snapshot.
// A nil backlog behaves like an empty one.
func NewAnalyzer(b *backlog.Backlog) *Analyzer {
	a := &Analyzer{
		backlog:    b,
		dependents: make(map[string][]string),
		known:      make(map[string]struct{}),
	}
	for _, s := range b.Subtasks() {
		a.known[s.ID] = struct{}{}
	}
	for _, s := range b.Subtasks() {
		for _, dep := range s.Dependencies {
			a.dependents[dep] = append(a.dependents[dep], s.ID)
		}
	}
	return a
}

// Downstream returns every subtask id transitively dependent on id, each
// exactly once, in depth-first traversal order. Cycles and
// self-dependencies terminate via the visited set. An id absent from the
// backlog yields an empty result.
func (a *Analyzer) Downstream(id string) []string {
	if _, ok := a.known[id]; !ok {
		return nil
	}

	visited := map[string]struct{}{id: {}}
	var out []string
	var walk func(string)
	walk = func(current string) {
		for _, dep := range a.dependents[current] {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			walk(dep)
		}
	}
	walk(id)
	return out
}

// Upstream returns the subtask's own declared dependencies verbatim, in
// declaration order, without transitive expansion. Unknown ids yield an
// empty result.
func (a *Analyzer) Upstream(id string) []string {
	s, ok := a.backlog.FindSubtask(id)
	if !ok {
		return nil
	}
	return s.Dependencies
}

// CascadeDepth returns the length of the longest downstream chain
// reachable from id: 0 when nothing depends on it, and 0 for unknown ids.
// Cycles are cut at the point of re-entry, so the result is finite and the
// traversal linear.
func (a *Analyzer) CascadeDepth(id string) int {
	if _, ok := a.known[id]; !ok {
		return 0
	}

	memo := make(map[string]int)
	onPath := make(map[string]struct{})
	var depth func(string) int
	depth = func(current string) int {
		if d, ok := memo[current]; ok {
			return d
		}
		onPath[current] = struct{}{}
		longest := 0
		for _, dep := range a.dependents[current] {
			// An edge back into the current path is a cycle; it cannot
			// extend the chain.
			if _, ok := onPath[dep]; ok {
				continue
			}
			if d := 1 + depth(dep); d > longest {
				longest = d
			}
		}
		delete(onPath, current)
		memo[current] = longest
		return longest
	}
	return depth(id)
}

// CanContinueWithFailure reports whether at least one subtask in the
// backlog is neither the failed subtask nor downstream of it. An empty
// backlog returns false (there is no work to continue with); an unknown id
// on a non-empty backlog returns true (nothing is blocked).
func (a *Analyzer) CanContinueWithFailure(id string) bool {
	if len(a.known) == 0 {
		return false
	}

	blocked := map[string]struct{}{id: {}}
	for _, affected := range a.Downstream(id) {
		blocked[affected] = struct{}{}
	}
	for subtaskID := range a.known {
		if _, ok := blocked[subtaskID]; !ok {
			return true
		}
	}
	return false
}

// DetermineImpactLevel classifies severity from blocked-container counts.
// Tiers are evaluated in strict priority order; a higher tier always wins
// regardless of lower-tier counts.
func DetermineImpactLevel(phasesBlocked, milestonesBlocked, tasksBlocked int) Level {
	switch {
	case phasesBlocked >= 2:
		return LevelCritical
	case phasesBlocked >= 1:
		return LevelHigh
	case milestonesBlocked >= 3:
		return LevelHigh
	case milestonesBlocked >= 1:
		return LevelMedium
	case tasksBlocked >= 5:
		return LevelMedium
	case tasksBlocked >= 1:
		return LevelLow
	default:
		return LevelNone
	}
}

// SuggestAction maps a severity level and continuation verdict to the
// recommended operator response. Critical and high always pause.
func SuggestAction(level Level, canContinue bool) Action {
	if level == LevelCritical || level == LevelHigh {
		return ActionPause
	}
	if canContinue {
		return ActionContinue
	}
	return ActionRetry
}

// AnalyzeImpact composes the full blast radius for one failed subtask.
// Unknown ids yield the all-empty, none-level impact.
func (a *Analyzer) AnalyzeImpact(id string) TaskImpact {
	affected := a.Downstream(id)
	blockedPhases, blockedMilestones := a.blockedContainers(affected)

	level := DetermineImpactLevel(len(blockedPhases), len(blockedMilestones), len(affected))
	canContinue := a.CanContinueWithFailure(id)

	return TaskImpact{
		Level:             level,
		AffectedTasks:     affected,
		BlockedPhases:     blockedPhases,
		BlockedMilestones: blockedMilestones,
		BlockedTasks:      append([]string(nil), affected...),
		CanContinue:       canContinue,
		SuggestedAction:   SuggestAction(level, canContinue),
		CascadeDepth:      a.CascadeDepth(id),
	}
}

// blockedContainers walks the backlog once and derives the blocked
// milestone and phase id lists for a downstream set. A milestone is
// blocked when it contains at least one affected subtask; a phase is
// blocked only when every one of its milestones is blocked. A phase with
// no milestones is never blocked.
func (a *Analyzer) blockedContainers(affected []string) (phases, milestones []string) {
	if a.backlog == nil {
		return nil, nil
	}

	affectedSet := make(map[string]struct{}, len(affected))
	for _, id := range affected {
		affectedSet[id] = struct{}{}
	}

	for _, p := range a.backlog.Phases {
		allBlocked := len(p.Milestones) > 0
		for _, m := range p.Milestones {
			blocked := false
			for _, t := range m.Tasks {
				for _, s := range t.Subtasks {
					if _, ok := affectedSet[s.ID]; ok {
						blocked = true
						break
					}
				}
				if blocked {
					break
				}
			}
			if blocked {
				milestones = append(milestones, m.ID)
			} else {
				allBlocked = false
			}
		}
		if allBlocked {
			phases = append(phases, p.ID)
		}
	}
	return phases, milestones
}
