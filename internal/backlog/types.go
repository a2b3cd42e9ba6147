// Package backlog defines the hierarchical work breakdown consumed by the
// triage engine: Phases own Milestones, Milestones own Tasks, Tasks own
// Subtasks. Every node carries a dot-delimited id whose prefix path encodes
// its ancestors (P1.M1.T1.S1), so a subtask's phase and milestone can be
// recovered from the id alone without re-walking the tree.
//
// The backlog is owned by the pipeline and is read-only here. Subtask
// dependency lists are not guaranteed acyclic and may reference unknown or
// self ids; consumers must tolerate all three.
package backlog

import (
	"strings"
	"time"
)

// Backlog is the full work breakdown for one pipeline run.
type Backlog struct {
	Phases []Phase `yaml:"phases"`
}

// Phase is the top level of the hierarchy (id P<n>).
type Phase struct {
	ID         string      `yaml:"id"`
	Title      string      `yaml:"title"`
	Milestones []Milestone `yaml:"milestones"`
}

// Milestone groups related tasks within a phase (id P<n>.M<n>).
type Milestone struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Tasks []Task `yaml:"tasks"`
}

// Task groups subtasks within a milestone (id P<n>.M<n>.T<n>).
type Task struct {
	ID       string    `yaml:"id"`
	Title    string    `yaml:"title"`
	Subtasks []Subtask `yaml:"subtasks"`
}

// Subtask is the unit of execution (id P<n>.M<n>.T<n>.S<n>).
// Dependencies lists the ids of subtasks that must complete first, in
// declaration order.
type Subtask struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// Subtasks returns every subtask in backlog order (phase, milestone, task,
// subtask declaration order).
func (b *Backlog) Subtasks() []Subtask {
	var out []Subtask
	if b == nil {
		return out
	}
	for _, p := range b.Phases {
		for _, m := range p.Milestones {
			for _, t := range m.Tasks {
				out = append(out, t.Subtasks...)
			}
		}
	}
	return out
}

// FindSubtask returns the subtask with the given id, if present.
func (b *Backlog) FindSubtask(id string) (Subtask, bool) {
	if b == nil {
		return Subtask{}, false
	}
	for _, p := range b.Phases {
		for _, m := range p.Milestones {
			for _, t := range m.Tasks {
				for _, s := range t.Subtasks {
					if s.ID == id {
						return s, true
					}
				}
			}
		}
	}
	return Subtask{}, false
}

// FindPhase returns the phase with the given id, if present.
func (b *Backlog) FindPhase(id string) (Phase, bool) {
	if b == nil {
		return Phase{}, false
	}
	for _, p := range b.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

// PhaseID returns the phase prefix of a dot-delimited id ("P1.M1.T1.S1"
// -> "P1"). An id with no dots is its own phase id.
func PhaseID(id string) string {
	return prefixSegments(id, 1)
}

// MilestoneID returns the milestone prefix of a dot-delimited id
// ("P1.M1.T1.S1" -> "P1.M1"), or "" when the id has no milestone segment.
func MilestoneID(id string) string {
	if strings.Count(id, ".") < 1 {
		return ""
	}
	return prefixSegments(id, 2)
}

// TaskID returns the task prefix of a dot-delimited id
// ("P1.M1.T1.S1" -> "P1.M1.T1"), or "" when the id has no task segment.
func TaskID(id string) string {
	if strings.Count(id, ".") < 2 {
		return ""
	}
	return prefixSegments(id, 3)
}

func prefixSegments(id string, n int) string {
	parts := strings.Split(id, ".")
	if len(parts) < n {
		return id
	}
	return strings.Join(parts[:n], ".")
}

// TaskFailure is one failed-subtask record produced by the execution
// engine. It is consumed read-only by the triage engine.
type TaskFailure struct {
	SubtaskID string
	Title     string
	Err       error
	// Code is the pipeline error code, when the execution engine recorded
	// one. Empty otherwise.
	Code string
	// Trace is the captured stack/trace text at the point of failure.
	// Empty when nothing was captured.
	Trace     string
	Timestamp time.Time
	// Phase and Milestone are optional display labels; renderers fall back
	// to "Unknown" / "N/A" when empty.
	Phase     string
	Milestone string
}

// ReportContext carries the caller-owned inputs the report builder needs
// beyond the failure records themselves. It is never mutated by the engine.
type ReportContext struct {
	SessionPath     string
	SessionID       string
	Backlog         *Backlog
	TotalTasks      int
	CompletedTasks  int
	Mode            string
	ContinueOnError bool
	StartTime       time.Time
}
