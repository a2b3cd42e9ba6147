// Package stacktrace parses a captured error trace into ranked frames and
// an optional source-code excerpt. Only frames classified as application
// code above a relevance threshold survive; everything else (vendored
// dependencies, runtime internals, package caches) is filtered out so the
// report points an operator at their own code first.
package stacktrace

import (
	"os"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Frame is one parsed stack frame with its classification.
type Frame struct {
	// Function is the frame's function name; empty for bare file frames.
	Function string
	File     string
	Line     int
	// Column is 0 when the trace did not record one.
	Column int
	// IsUserCode reports whether the frame points at application code.
	IsUserCode bool
	// Relevance is the frame's ranking score in [0, 1].
	Relevance float64
}

// SourceContext is a short window of source lines around the error line
// of the most relevant frame.
type SourceContext struct {
	File   string
	Line   int
	Column int
	// Lines holds up to four lines before the error line, the error line
	// itself, and one line after, clipped at file boundaries.
	Lines []string
	// ErrorIndex is the index of the error line within Lines.
	ErrorIndex int
}

// FormattedTrace is the parsed, filtered, and ranked form of a captured
// error trace.
type FormattedTrace struct {
	// Message is the original error message.
	Message string
	// ErrorType names the error's concrete type.
	ErrorType string
	// Frames holds the surviving frames sorted by descending relevance.
	Frames []Frame
	// Source is the excerpt around the top frame, when its file could be
	// read. Nil otherwise.
	Source *SourceContext
}

// Lines before and after the error line in the source excerpt.
const (
	contextLinesBefore = 4
	contextLinesAfter  = 1
)

// relevanceThreshold is the strict lower bound for keeping a frame; a
// frame at exactly the threshold is dropped.
const relevanceThreshold = 0.3

// Frame grammars: "at name (file:line:column)" and bare "file:line[:column]"
// (with or without a leading "at"). Anything else is skipped.
var (
	namedFramePattern = regexp.MustCompile(`^\s*at\s+(\S+)\s+\(([^()\s]+):(\d+)(?::(\d+))?\)\s*$`)
	bareFramePattern  = regexp.MustCompile(`^\s*(?:at\s+)?([^()\s]+):(\d+)(?::(\d+))?\s*$`)
)

// Formatter parses and ranks stack traces. The zero value is not usable;
// call NewFormatter.
type Formatter struct {
	// readFile is the source reader, replaceable in tests.
	readFile func(string) ([]byte, error)
}

// NewFormatter creates a formatter that reads source excerpts from the
// local filesystem.
func NewFormatter() *Formatter {
	return &Formatter{readFile: os.ReadFile}
}

// Format parses the captured trace text for err, keeps only user-code
// frames above the relevance threshold sorted by descending relevance,
// and attaches a source excerpt for the top frame when its file is
// readable. An empty trace yields zero frames; a read failure yields a
// nil source context. Format never returns an error.
func (f *Formatter) Format(err error, trace string) FormattedTrace {
	out := FormattedTrace{}
	if err != nil {
		out.Message = err.Error()
		out.ErrorType = errorTypeName(err)
	}

	frames := parseFrames(trace)
	frames = filterFrames(frames)
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Relevance > frames[j].Relevance
	})
	out.Frames = frames

	if len(frames) > 0 {
		out.Source = f.sourceContext(frames[0])
	}
	return out
}

// parseFrames extracts frames from trace text, skipping unparsable lines.
func parseFrames(trace string) []Frame {
	if strings.TrimSpace(trace) == "" {
		return nil
	}
	var frames []Frame
	for _, line := range strings.Split(trace, "\n") {
		frame, ok := parseFrame(line)
		if !ok {
			continue
		}
		frame.IsUserCode = IsUserCode(frame.File)
		frame.Relevance = Relevance(frame.File)
		frames = append(frames, frame)
	}
	return frames
}

func parseFrame(line string) (Frame, bool) {
	if m := namedFramePattern.FindStringSubmatch(line); m != nil {
		return Frame{
			Function: m[1],
			File:     m[2],
			Line:     mustInt(m[3]),
			Column:   mustInt(m[4]),
		}, true
	}
	if m := bareFramePattern.FindStringSubmatch(line); m != nil {
		return Frame{
			File:   m[1],
			Line:   mustInt(m[2]),
			Column: mustInt(m[3]),
		}, true
	}
	return Frame{}, false
}

func mustInt(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// filterFrames keeps only user-code frames strictly above the relevance
// threshold.
func filterFrames(frames []Frame) []Frame {
	var kept []Frame
	for _, frame := range frames {
		if frame.IsUserCode && frame.Relevance > relevanceThreshold {
			kept = append(kept, frame)
		}
	}
	return kept
}

// sourceContext reads the frame's file and builds the excerpt window.
// Every failure (missing file, short file, permission error) results in a
// nil context, never a propagated error.
func (f *Formatter) sourceContext(frame Frame) *SourceContext {
	data, err := f.readFile(frame.File)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	errorIdx := frame.Line - 1
	if errorIdx < 0 || errorIdx >= len(lines) {
		return nil
	}

	start := errorIdx - contextLinesBefore
	if start < 0 {
		start = 0
	}
	end := errorIdx + contextLinesAfter
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	return &SourceContext{
		File:       frame.File,
		Line:       frame.Line,
		Column:     frame.Column,
		Lines:      lines[start : end+1],
		ErrorIndex: errorIdx - start,
	}
}

// errorTypeName names an error's concrete type without pointer or
// package noise (*errors.PipelineError -> PipelineError).
func errorTypeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
