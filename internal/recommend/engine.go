// Package recommend maps a failure's error to an ordered list of
// suggested fixes. Selection runs a fixed priority chain: an exact match
// on the error's pipeline code against the catalog, then a type-name
// fallback for a small set of well-known error kinds, then message-pattern
// matching, then a generic default. The catalog itself is data, embedded
// as YAML and overridable from configuration.
package recommend

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	pipelineerrors "github.com/tidewell/autopsy/internal/errors"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Fix is one suggested remediation, densely numbered from 1 within its
// list.
type Fix struct {
	Priority    int
	Description string
	// Command is an optional shell command; placeholders have already been
	// substituted from the generation context.
	Command     string
	Explanation string
	DocsURL     string
}

// Context supplies the placeholder values available to catalog commands.
type Context struct {
	TaskID      string
	SessionPath string
}

// catalogFix is the on-disk shape of one catalog entry.
type catalogFix struct {
	Description string `yaml:"description"`
	Command     string `yaml:"command,omitempty"`
	Explanation string `yaml:"explanation,omitempty"`
}

// Catalog holds the per-code fix lists and documentation links.
type Catalog struct {
	Codes map[string][]catalogFix `yaml:"codes"`
	Docs  map[string]string       `yaml:"docs"`
}

// Engine generates fixes from a catalog.
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine backed by the embedded default catalog.
func NewEngine() *Engine {
	var c Catalog
	// The embedded catalog ships with the binary; a parse failure here is
	// a build defect, not a runtime condition.
	if err := yaml.Unmarshal(defaultCatalogYAML, &c); err != nil {
		panic(fmt.Sprintf("recommend: embedded catalog is invalid: %v", err))
	}
	return &Engine{catalog: c}
}

// NewEngineFromFile creates an engine backed by an operator-supplied
// catalog file, for deployments that customize the fix text.
func NewEngineFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &Engine{catalog: c}, nil
}

// Message-pattern categories recognized by the fallback chain.
const (
	PatternModuleNotFound   = "module_not_found"
	PatternPermissionDenied = "permission_denied"
	PatternDiskSpace        = "disk_space"
)

var (
	moduleNotFoundPattern   = regexp.MustCompile(`(?i)cannot find (?:module|package)|module not found|no required module provides`)
	permissionDeniedPattern = regexp.MustCompile(`(?i)permission denied|EACCES|operation not permitted`)
	diskSpacePattern        = regexp.MustCompile(`(?i)no space left on device|ENOSPC|disk full`)
)

// placeholderPattern matches {{name}} tokens; other brace text is left
// untouched.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// GenerateFixes returns the ordered fix list for an error. The first
// matching rule wins: catalog code, then type-name fallback, then message
// patterns, then the generic default. Priorities are renumbered densely
// from 1 and commands have their placeholders substituted from ctx.
func (e *Engine) GenerateFixes(err error, ctx Context) []Fix {
	fixes := e.selectFixes(err)

	params := map[string]string{
		"taskId":      ctx.TaskID,
		"sessionPath": ctx.SessionPath,
	}
	for i := range fixes {
		fixes[i].Priority = i + 1
		if fixes[i].Command != "" {
			fixes[i].Command = BuildCommand(fixes[i].Command, params)
		}
	}
	return fixes
}

func (e *Engine) selectFixes(err error) []Fix {
	// 1. Exact catalog match on the declared pipeline code.
	var perr *pipelineerrors.PipelineError
	if pipelineerrors.As(err, &perr) {
		if entries, ok := e.catalog.Codes[perr.Code().String()]; ok {
			docs := e.catalog.Docs[perr.Code().String()]
			fixes := make([]Fix, 0, len(entries))
			for _, entry := range entries {
				fixes = append(fixes, Fix{
					Description: entry.Description,
					Command:     entry.Command,
					Explanation: entry.Explanation,
					DocsURL:     docs,
				})
			}
			return fixes
		}
	}

	// 2. Type-name fallback for well-known error kinds.
	if fix, ok := typeNameFix(err); ok {
		return []Fix{fix}
	}

	// 3. Message-pattern fallback.
	if fixes := messagePatternFixes(err); fixes != nil {
		return fixes
	}

	// 4. Generic default.
	return []Fix{
		{Description: "Review the error message and stack trace above"},
		{Description: "Consult the pipeline documentation for this failure mode"},
		{Description: "Review the failed subtask's definition and dependencies"},
	}
}

// typeNameFix recognizes a small set of well-known error types, each with
// one targeted fix.
func typeNameFix(err error) (Fix, bool) {
	var pathErr *fs.PathError
	if pipelineerrors.As(err, &pathErr) {
		return Fix{
			Description: "Verify the file path exists and is accessible",
			Command:     fmt.Sprintf("ls -la %s", pathErr.Path),
			Explanation: "A filesystem operation failed before the subtask could run.",
		}, true
	}

	var syntaxErr *json.SyntaxError
	if pipelineerrors.As(err, &syntaxErr) {
		return Fix{
			Description: "Inspect the malformed JSON near the reported offset",
			Explanation: fmt.Sprintf("The parser stopped at byte offset %d.", syntaxErr.Offset),
		}, true
	}

	var typeErr *yaml.TypeError
	if pipelineerrors.As(err, &typeErr) {
		return Fix{
			Description: "Fix the YAML fields that do not match the expected types",
			Explanation: "One or more session files failed schema decoding.",
		}, true
	}

	return Fix{}, false
}

// messagePatternFixes matches the error message against the recognized
// pattern categories, each with its own fix set.
func messagePatternFixes(err error) []Fix {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case moduleNotFoundPattern.MatchString(msg):
		return []Fix{
			{
				Description: "Install the missing dependency",
				Command:     "go mod tidy",
				Explanation: "A module referenced by the subtask is not available locally.",
			},
			{Description: "Check the import path for typos"},
		}
	case permissionDeniedPattern.MatchString(msg):
		return []Fix{
			{
				Description: "Check ownership and permissions on the session directory",
				Command:     "ls -la {{sessionPath}}",
			},
			{Description: "Re-run the pipeline as a user with access to the workspace"},
		}
	case diskSpacePattern.MatchString(msg):
		return []Fix{
			{
				Description: "Free disk space on the volume holding the session",
				Command:     "df -h {{sessionPath}}",
			},
			{Description: "Prune old session directories"},
		}
	}
	return nil
}

// MatchErrorPattern exposes the selection chain as a standalone query: an
// explicit pipeline code wins, then a message-pattern category name, then
// the empty string when nothing matches.
func (e *Engine) MatchErrorPattern(err error) string {
	var perr *pipelineerrors.PipelineError
	if pipelineerrors.As(err, &perr) && perr.Code().Valid() {
		return perr.Code().String()
	}
	if err != nil {
		msg := err.Error()
		switch {
		case moduleNotFoundPattern.MatchString(msg):
			return PatternModuleNotFound
		case permissionDeniedPattern.MatchString(msg):
			return PatternPermissionDenied
		case diskSpacePattern.MatchString(msg):
			return PatternDiskSpace
		}
	}
	return ""
}

// BuildCommand substitutes every {{name}} placeholder in the template
// with its parameter value, or the empty string when the parameter is
// absent. Braces that do not form a placeholder are left untouched.
func BuildCommand(template string, params map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		return params[name]
	})
}

// DocsLink returns the documentation URL for a known code, and ok=false
// otherwise.
func (e *Engine) DocsLink(code pipelineerrors.Code) (string, bool) {
	url, ok := e.catalog.Docs[code.String()]
	return url, ok
}
