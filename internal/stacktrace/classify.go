// This file contains path classification: deciding whether a stack frame
// points at application code or at third-party/runtime code, and scoring
// its relevance for ranking.
package stacktrace

import (
	"strings"

	"github.com/gobwas/glob"
)

// noSourceMarker is the literal some runtimes emit when a frame has no
// backing file. It is never user code.
const noSourceMarker = "<no source available>"

// libraryGlobs match third-party and runtime-internal paths. Library
// classification always wins over user classification.
var libraryGlobs = compileGlobs([]string{
	"**/vendor/**",
	"**/node_modules/**",
	"**/go/pkg/mod/**",
	"**/.cache/**",
})

// libraryPrefixes match runtime-internal module references that carry no
// directory structure.
var libraryPrefixes = []string{
	"node:",
	"runtime/",
	"runtime.",
}

// userGlobs match application source and library layout segments.
var userGlobs = compileGlobs([]string{
	"**/src/**",
	"src/**",
	"**/lib/**",
	"lib/**",
	"**/internal/**",
	"internal/**",
})

func compileGlobs(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		globs = append(globs, glob.MustCompile(p, '/'))
	}
	return globs
}

// isLibraryPath reports whether the path belongs to vendored, runtime, or
// package-cache code.
func isLibraryPath(path string) bool {
	for _, prefix := range libraryPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, g := range libraryGlobs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// IsUserCode reports whether a frame path is application code. Empty
// paths, the no-source marker, and anything matching a library pattern are
// not user code, even when a user pattern also matches.
func IsUserCode(path string) bool {
	if path == "" || path == noSourceMarker {
		return false
	}
	if isLibraryPath(path) {
		return false
	}
	if strings.HasPrefix(path, "./") {
		return true
	}
	for _, g := range userGlobs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Relevance scores a frame path in [0, 1]: base 0.5, +0.3 for user code,
// +0.2 for a /src/ segment, -0.4 for library code.
func Relevance(path string) float64 {
	score := 0.5
	if IsUserCode(path) {
		score += 0.3
	}
	if strings.Contains(path, "/src/") {
		score += 0.2
	}
	if isLibraryPath(path) {
		score -= 0.4
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
