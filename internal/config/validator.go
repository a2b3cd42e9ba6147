package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "report.timeline_mode")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidTimelineModes returns the list of valid timeline layouts
func ValidTimelineModes() []string {
	return []string{"vertical", "compact", "horizontal"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the list of valid viewer themes
func ValidThemes() []string {
	return []string{"default", "monokai", "dracula", "nord"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validateResume()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateReport validates the ReportConfig
func (c *Config) validateReport() []ValidationError {
	var errors []ValidationError

	if c.Report.TimelineMode != "" && !slices.Contains(ValidTimelineModes(), c.Report.TimelineMode) {
		errors = append(errors, ValidationError{
			Field:   "report.timeline_mode",
			Value:   c.Report.TimelineMode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTimelineModes(), ", ")),
		})
	}

	if c.Report.TimeWindowMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "report.time_window_minutes",
			Value:   c.Report.TimeWindowMinutes,
			Message: "must be non-negative",
		})
	}

	// A day-long window stops grouping anything; treat it as a typo.
	const maxWindowMinutes = 1440
	if c.Report.TimeWindowMinutes > maxWindowMinutes {
		errors = append(errors, ValidationError{
			Field:   "report.time_window_minutes",
			Value:   c.Report.TimeWindowMinutes,
			Message: fmt.Sprintf("exceeds maximum of %d", maxWindowMinutes),
		})
	}

	return errors
}

// validateResume validates the ResumeConfig
func (c *Config) validateResume() []ValidationError {
	var errors []ValidationError

	for _, flag := range c.Resume.ExtraFlags {
		if !strings.HasPrefix(flag, "-") {
			errors = append(errors, ValidationError{
				Field:   "resume.extra_flags",
				Value:   flag,
				Message: "must be a flag (starting with -)",
			})
		}
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.Theme != "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
