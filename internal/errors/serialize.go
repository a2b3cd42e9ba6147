// This file contains the redacting serialization model for pipeline
// errors. Serialization produces a JSON-safe snapshot for logs and
// reports; the raw error and its context are never modified.
package errors

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Markers emitted by Serialize in place of values that cannot or must not
// be represented verbatim.
const (
	// RedactedMarker replaces context values whose key looks credential-like.
	RedactedMarker = "[REDACTED]"
	// NonSerializableMarker replaces values with no JSON representation
	// (functions, channels, unsafe pointers, complex numbers, NaN and
	// infinities).
	NonSerializableMarker = "[non-serializable]"
	// CircularMarker replaces values already on the current serialization
	// path, breaking reference cycles.
	CircularMarker = "[circular]"
)

// sensitiveKeySubstrings lists the credential-like substrings that trigger
// redaction. Matching is case-insensitive on the key name. The set is data,
// not algorithm; keep it in sync with the operator documentation.
var sensitiveKeySubstrings = []string{
	"apikey",
	"api_key",
	"api-key",
	"token",
	"password",
	"secret",
	"authorization",
	"email",
}

// isSensitiveKey reports whether a context key must be redacted.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// SerializedCause is the safe form of a wrapped cause: name and message
// only, never the cause's own context or stack.
type SerializedCause struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Serialized is the JSON-safe form of a PipelineError. Every value it
// contains survives encoding/json marshaling.
type Serialized struct {
	Kind      string           `json:"kind"`
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Context   map[string]any   `json:"context,omitempty"`
	Cause     *SerializedCause `json:"cause,omitempty"`
}

// Serialize produces the redacted, cycle-safe form of the error.
// Context keys containing a credential-like substring become
// RedactedMarker; nested error values reduce to name and message;
// unrepresentable values become NonSerializableMarker; reference cycles
// become CircularMarker. The raw context map is left untouched.
func (e *PipelineError) Serialize() Serialized {
	s := Serialized{
		Kind:      string(e.kind),
		Code:      string(e.code),
		Message:   e.message,
		Timestamp: e.timestamp,
	}
	if e.context != nil {
		seen := map[uintptr]struct{}{
			reflect.ValueOf(e.context).Pointer(): {},
		}
		s.Context = sanitizeMap(e.context, seen)
	}
	if e.cause != nil {
		s.Cause = &SerializedCause{
			Name:    typeName(e.cause),
			Message: e.cause.Error(),
		}
	}
	return s
}

// typeName returns a short type name for an arbitrary value, with pointer
// indirection stripped (e.g. *errors.PipelineError -> PipelineError).
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// sanitizeMap copies a context map, redacting sensitive keys and
// sanitizing values. seen carries the identities of containers on the
// current path so cycles terminate.
func sanitizeMap(m map[string]any, seen map[uintptr]struct{}) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if isSensitiveKey(key) {
			out[key] = RedactedMarker
			continue
		}
		out[key] = sanitizeValue(value, seen)
	}
	return out
}

// sanitizeValue returns a JSON-safe copy of an arbitrary context value.
func sanitizeValue(v any, seen map[uintptr]struct{}) any {
	if v == nil {
		return nil
	}

	// Errors reduce to name and message regardless of their concrete shape.
	if err, ok := v.(error); ok {
		return map[string]any{
			"name":    typeName(err),
			"message": err.Error(),
		}
	}

	// time.Time is already JSON-safe.
	if t, ok := v.(time.Time); ok {
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer,
		reflect.Complex64, reflect.Complex128:
		return NonSerializableMarker

	case reflect.Float32, reflect.Float64:
		// encoding/json rejects NaN and infinities.
		if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return NonSerializableMarker
		}
		return v

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if _, ok := seen[ptr]; ok {
			return CircularMarker
		}
		seen[ptr] = struct{}{}
		out := sanitizeValue(rv.Elem().Interface(), seen)
		delete(seen, ptr)
		return out

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if _, ok := seen[ptr]; ok {
			return CircularMarker
		}
		seen[ptr] = struct{}{}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := stringifyKey(iter.Key())
			if isSensitiveKey(key) {
				out[key] = RedactedMarker
				continue
			}
			out[key] = sanitizeValue(iter.Value().Interface(), seen)
		}
		delete(seen, ptr)
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if _, ok := seen[ptr]; ok {
			return CircularMarker
		}
		seen[ptr] = struct{}{}
		out := sanitizeSequence(rv, seen)
		delete(seen, ptr)
		return out

	case reflect.Array:
		return sanitizeSequence(rv, seen)

	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			if isSensitiveKey(field.Name) {
				out[field.Name] = RedactedMarker
				continue
			}
			out[field.Name] = sanitizeValue(rv.Field(i).Interface(), seen)
		}
		return out

	default:
		// Basic kinds (bool, numbers, strings) are JSON-safe as-is.
		return v
	}
}

// sanitizeSequence sanitizes each element of a slice or array value.
func sanitizeSequence(rv reflect.Value, seen map[uintptr]struct{}) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = sanitizeValue(rv.Index(i).Interface(), seen)
	}
	return out
}

// stringifyKey renders a map key as a string for the serialized form.
func stringifyKey(key reflect.Value) string {
	if key.Kind() == reflect.String {
		return key.String()
	}
	return fmt.Sprint(key.Interface())
}
