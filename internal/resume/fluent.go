// This file contains the fluent builder variant of the resume command
// grammar: the same flag vocabulary as chainable calls, accumulating
// flags strictly in call order.
package resume

import "strings"

// Builder assembles a resume command one flag at a time. Calls append in
// order; repeated calls append duplicates rather than being deduplicated.
type Builder struct {
	flags []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Session appends --session <path>.
func (b *Builder) Session(path string) *Builder {
	b.flags = append(b.flags, "--session", path)
	return b
}

// Task appends --task <id>.
func (b *Builder) Task(id string) *Builder {
	b.flags = append(b.flags, "--task", id)
	return b
}

// Retry appends --retry.
func (b *Builder) Retry() *Builder {
	b.flags = append(b.flags, "--retry")
	return b
}

// Skip appends --skip <id>.
func (b *Builder) Skip(id string) *Builder {
	b.flags = append(b.flags, "--skip", id)
	return b
}

// SkipDependents appends --skip-dependents.
func (b *Builder) SkipDependents() *Builder {
	b.flags = append(b.flags, "--skip-dependents")
	return b
}

// Continue appends --continue.
func (b *Builder) Continue() *Builder {
	b.flags = append(b.flags, "--continue")
	return b
}

// Interactive appends --interactive.
func (b *Builder) Interactive() *Builder {
	b.flags = append(b.flags, "--interactive")
	return b
}

// Verbose appends --verbose.
func (b *Builder) Verbose() *Builder {
	b.flags = append(b.flags, "--verbose")
	return b
}

// DryRun appends --dry-run.
func (b *Builder) DryRun() *Builder {
	b.flags = append(b.flags, "--dry-run")
	return b
}

// Force appends --force.
func (b *Builder) Force() *Builder {
	b.flags = append(b.flags, "--force")
	return b
}

// Flag appends an arbitrary flag verbatim.
func (b *Builder) Flag(flag string) *Builder {
	b.flags = append(b.flags, flag)
	return b
}

// Get renders the accumulated command.
func (b *Builder) Get() string {
	if len(b.flags) == 0 {
		return CommandPrefix
	}
	return CommandPrefix + " " + strings.Join(b.flags, " ")
}

// Reset clears the accumulated flags and returns the builder for reuse.
func (b *Builder) Reset() *Builder {
	b.flags = b.flags[:0]
	return b
}
