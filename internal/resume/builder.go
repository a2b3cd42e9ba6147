// Package resume renders the recovery commands shown to an operator after
// a pipeline failure. The command grammar is fixed: a literal entry-point
// prefix followed by the documented flag set. The text is operator-facing
// only; nothing in this engine parses it back.
package resume

import (
	"fmt"
	"strings"
)

// CommandPrefix is the pipeline's own entry point, the literal prefix of
// every rendered resume command.
const CommandPrefix = "autopsy run"

// Action selects which recovery grammar a request renders.
type Action string

const (
	// ActionRetry renders --task <id> --retry.
	ActionRetry Action = "retry"
	// ActionSkip renders --skip <id> with an optional --skip-dependents.
	ActionSkip Action = "skip"
	// ActionContinue renders --continue, ignoring task and session.
	ActionContinue Action = "continue"
	// ActionInteractive renders --interactive, ignoring task and session.
	ActionInteractive Action = "interactive"
)

// Request describes one resume command to render.
type Request struct {
	Action Action
	// TaskID is the failed subtask; ignored by continue and interactive.
	TaskID string
	// Session is the session path; ignored by continue and interactive.
	Session string
	// SkipDependents adds --skip-dependents to a skip command.
	SkipDependents bool
	// Modifier flags.
	Verbose bool
	DryRun  bool
	Force   bool
	// Flags is appended verbatim, in order, after all recognized flags.
	Flags []string
}

// Build renders one resume command from a request.
func Build(req Request) string {
	parts := []string{CommandPrefix}

	switch req.Action {
	case ActionSkip:
		if req.Session != "" {
			parts = append(parts, "--session", req.Session)
		}
		parts = append(parts, "--skip", req.TaskID)
		if req.SkipDependents {
			parts = append(parts, "--skip-dependents")
		}
	case ActionContinue:
		parts = append(parts, "--continue")
	case ActionInteractive:
		parts = append(parts, "--interactive")
	default: // retry
		if req.Session != "" {
			parts = append(parts, "--session", req.Session)
		}
		parts = append(parts, "--task", req.TaskID, "--retry")
	}

	if req.Verbose {
		parts = append(parts, "--verbose")
	}
	if req.DryRun {
		parts = append(parts, "--dry-run")
	}
	if req.Force {
		parts = append(parts, "--force")
	}
	parts = append(parts, req.Flags...)

	return strings.Join(parts, " ")
}

// CommandDescription produces a one-line human label for a rendered
// command by inspecting its flags in fixed precedence: skip, retry,
// continue, interactive, dry-run, force, then a generic default.
func CommandDescription(command string) string {
	switch {
	case strings.Contains(command, "--skip"):
		return "Skip the failed task and continue with the rest of the pipeline"
	case strings.Contains(command, "--retry"):
		return "Retry the failed task from where it left off"
	case strings.Contains(command, "--continue"):
		return "Continue the pipeline from the last checkpoint"
	case strings.Contains(command, "--interactive"):
		return "Resume the pipeline in interactive mode"
	case strings.Contains(command, "--dry-run"):
		return "Preview the resume without executing any tasks"
	case strings.Contains(command, "--force"):
		return "Force the resume past validation warnings"
	default:
		return "Resume the pipeline"
	}
}

// Options adjusts every command in a generated set at once; operators set
// them through the resume section of the config file.
type Options struct {
	// SkipDependents adds --skip-dependents to generated skip commands.
	SkipDependents bool
	// ExtraFlags is appended verbatim to every generated command.
	ExtraFlags []string
}

// BuildAllCommands returns the four canonical recovery commands for a
// failed subtask: retry, skip, verbose retry, and dry run. Continue and
// interactive are deliberately excluded; they appear once per report, not
// per failure.
func BuildAllCommands(taskID, session string) []string {
	return BuildAllCommandsWith(taskID, session, Options{})
}

// BuildAllCommandsWith is BuildAllCommands with the operator's options
// applied to each command.
func BuildAllCommandsWith(taskID, session string, opts Options) []string {
	return []string{
		Build(Request{Action: ActionRetry, TaskID: taskID, Session: session, Flags: opts.ExtraFlags}),
		Build(Request{Action: ActionSkip, TaskID: taskID, Session: session, SkipDependents: opts.SkipDependents, Flags: opts.ExtraFlags}),
		Build(Request{Action: ActionRetry, TaskID: taskID, Session: session, Verbose: true, Flags: opts.ExtraFlags}),
		Build(Request{Action: ActionRetry, TaskID: taskID, Session: session, DryRun: true, Flags: opts.ExtraFlags}),
	}
}

// FormatAsMarkdown renders commands as "# description" headings followed
// by a fenced "$ command" block, blank-line separated, with no trailing
// blank line. Missing or empty per-command descriptions fall back to
// CommandDescription. No commands renders the empty string.
func FormatAsMarkdown(commands []string, descriptions []string) string {
	blocks := make([]string, 0, len(commands))
	for i, command := range commands {
		description := ""
		if i < len(descriptions) {
			description = descriptions[i]
		}
		if description == "" {
			description = CommandDescription(command)
		}
		blocks = append(blocks, fmt.Sprintf("# %s\n```\n$ %s\n```", description, command))
	}
	return strings.Join(blocks, "\n\n")
}
