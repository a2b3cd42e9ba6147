// Package errors provides the pipeline error taxonomy used throughout the
// Autopsy codebase. It defines the closed set of pipeline error kinds, the
// pattern-checked error-code enumeration, error constructors with context
// and cause wrapping, and a redacting serialization model for logging.
//
// # Error Kinds
//
// Every pipeline error belongs to exactly one of four kinds:
//   - KindSession: errors from session loading, saving, and discovery
//   - KindTask: errors from task execution
//   - KindAgent: errors from the AI-agent invocation layer
//   - KindValidation: errors from input and schema validation
//
// All four kinds share one record shape (PipelineError) discriminated by
// Kind, rather than a class hierarchy.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewTaskError("subtask exited non-zero", cause).
//		WithCode(errors.CodeTaskExecutionFailed).
//		WithContext(map[string]any{"taskId": "P1.M1.T1.S1"})
//
// Checking errors:
//
//	var perr *errors.PipelineError
//	if errors.As(err, &perr) { ... }
//
// Serializing for logs (context keys with credential-like names are
// redacted; the raw context is never modified):
//
//	payload := perr.Serialize()
package errors

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Kinds
// -----------------------------------------------------------------------------

// Kind identifies which pipeline subsystem produced an error.
type Kind string

const (
	// KindSession marks errors from session management.
	KindSession Kind = "session"
	// KindTask marks errors from task execution.
	KindTask Kind = "task"
	// KindAgent marks errors from the AI-agent invocation layer.
	KindAgent Kind = "agent"
	// KindValidation marks errors from input or schema validation.
	KindValidation Kind = "validation"
)

// Kinds lists all error kinds in their canonical reporting order.
// Aggregations over kinds (category tables, counters) must iterate this
// slice rather than a map so ordering is deterministic.
var Kinds = []Kind{KindSession, KindTask, KindAgent, KindValidation}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the four taxonomy kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSession, KindTask, KindAgent, KindValidation:
		return true
	}
	return false
}

// DefaultCode returns the category-appropriate default code for the kind.
func (k Kind) DefaultCode() Code {
	switch k {
	case KindSession:
		return CodeSessionLoadFailed
	case KindTask:
		return CodeTaskExecutionFailed
	case KindAgent:
		return CodeAgentLLMFailed
	case KindValidation:
		return CodeValidationInvalidInput
	default:
		return CodeTaskExecutionFailed
	}
}

// -----------------------------------------------------------------------------
// Codes
// -----------------------------------------------------------------------------

// Code is a pipeline error code of the form PIPELINE_<CATEGORY>_<REASON>.
type Code string

// Session error codes.
const (
	CodeSessionLoadFailed = Code("PIPELINE_SESSION_LOAD_FAILED")
	CodeSessionSaveFailed = Code("PIPELINE_SESSION_SAVE_FAILED")
	CodeSessionNotFound   = Code("PIPELINE_SESSION_NOT_FOUND")
)

// Task error codes.
const (
	CodeTaskExecutionFailed  = Code("PIPELINE_TASK_EXECUTION_FAILED")
	CodeTaskValidationFailed = Code("PIPELINE_TASK_VALIDATION_FAILED")
	CodeTaskNotFound         = Code("PIPELINE_TASK_NOT_FOUND")
)

// Agent error codes.
const (
	CodeAgentLLMFailed   = Code("PIPELINE_AGENT_LLM_FAILED")
	CodeAgentTimeout     = Code("PIPELINE_AGENT_TIMEOUT")
	CodeAgentParseFailed = Code("PIPELINE_AGENT_PARSE_FAILED")
)

// Validation error codes.
const (
	CodeValidationInvalidInput       = Code("PIPELINE_VALIDATION_INVALID_INPUT")
	CodeValidationMissingField       = Code("PIPELINE_VALIDATION_MISSING_FIELD")
	CodeValidationSchemaFailed       = Code("PIPELINE_VALIDATION_SCHEMA_FAILED")
	CodeValidationCircularDependency = Code("PIPELINE_VALIDATION_CIRCULAR_DEPENDENCY")
)

// codePattern constrains codes to PIPELINE_<CATEGORY>_<REASON>.
var codePattern = regexp.MustCompile(`^PIPELINE_[A-Z0-9]+_[A-Z0-9]+(_[A-Z0-9]+)*$`)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// Valid reports whether the code matches the PIPELINE_<CATEGORY>_<REASON>
// pattern.
func (c Code) Valid() bool {
	return codePattern.MatchString(string(c))
}

// Category returns the <CATEGORY> segment of the code, or "" for codes
// that do not match the pattern.
func (c Code) Category() string {
	if !c.Valid() {
		return ""
	}
	m := regexp.MustCompile(`^PIPELINE_([A-Z0-9]+)_`).FindStringSubmatch(string(c))
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// -----------------------------------------------------------------------------
// PipelineError
// -----------------------------------------------------------------------------

// PipelineError is the shared record for all pipeline error kinds.
// The zero value is not useful; use the New*Error constructors.
//
// The context map is stored as provided by the caller and is never mutated
// or redacted in place. Redaction happens only in Serialize.
type PipelineError struct {
	kind      Kind
	code      Code
	message   string
	timestamp time.Time
	context   map[string]any
	cause     error
}

// NewSessionError creates a session-kind error with the session default code.
func NewSessionError(message string, cause error) *PipelineError {
	return newPipelineError(KindSession, message, cause)
}

// NewTaskError creates a task-kind error with the task default code.
func NewTaskError(message string, cause error) *PipelineError {
	return newPipelineError(KindTask, message, cause)
}

// NewAgentError creates an agent-kind error with the agent default code.
func NewAgentError(message string, cause error) *PipelineError {
	return newPipelineError(KindAgent, message, cause)
}

// NewValidationError creates a validation-kind error with the validation
// default code.
func NewValidationError(message string, cause error) *PipelineError {
	return newPipelineError(KindValidation, message, cause)
}

func newPipelineError(kind Kind, message string, cause error) *PipelineError {
	return &PipelineError{
		kind:      kind,
		code:      kind.DefaultCode(),
		message:   message,
		timestamp: time.Now(),
		cause:     cause,
	}
}

// WithCode overrides the default code. Codes that do not match the
// PIPELINE_<CATEGORY>_<REASON> pattern are ignored and the current code is
// kept, so a malformed code can never escape into reports.
func (e *PipelineError) WithCode(code Code) *PipelineError {
	if code.Valid() {
		e.code = code
	}
	return e
}

// WithContext attaches a free-form context map. The map is held by
// reference and never written to.
func (e *PipelineError) WithContext(context map[string]any) *PipelineError {
	e.context = context
	return e
}

// Kind returns the error's kind discriminant.
func (e *PipelineError) Kind() Kind {
	return e.kind
}

// Code returns the error's code.
func (e *PipelineError) Code() Code {
	return e.code
}

// Message returns the error's message without the cause chain.
func (e *PipelineError) Message() string {
	return e.message
}

// Timestamp returns the time the error was constructed.
func (e *PipelineError) Timestamp() time.Time {
	return e.timestamp
}

// Context returns the raw, unredacted context map. Callers must treat the
// returned map as read-only.
func (e *PipelineError) Context() map[string]any {
	return e.context
}

// Error returns the error message, including the cause when present.
func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s [%s]: %v", e.message, e.code, e.cause)
	}
	return fmt.Sprintf("%s [%s]", e.message, e.code)
}

// Unwrap returns the wrapped cause, if any.
func (e *PipelineError) Unwrap() error {
	return e.cause
}
