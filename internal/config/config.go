// Package config defines the autopsy configuration, loaded through viper
// from a config file and AUTOPSY_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete autopsy configuration
type Config struct {
	Report  ReportConfig  `mapstructure:"report"`
	Resume  ResumeConfig  `mapstructure:"resume"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Logging LoggingConfig `mapstructure:"logging"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// ReportConfig controls report generation
type ReportConfig struct {
	// TimelineMode is the timeline layout: "vertical", "compact", or
	// "horizontal" (default: "vertical")
	TimelineMode string `mapstructure:"timeline_mode"`
	// TimeWindowMinutes is the burst-grouping window for timeline
	// statistics (default: 5)
	TimeWindowMinutes int `mapstructure:"time_window_minutes"`
	// CatalogPath points at a custom fix catalog YAML file.
	// Empty means the built-in catalog.
	CatalogPath string `mapstructure:"catalog_path"`
}

// TimeWindow returns the burst-grouping window as a time.Duration
func (r *ReportConfig) TimeWindow() time.Duration {
	return time.Duration(r.TimeWindowMinutes) * time.Minute
}

// ResumeConfig controls the rendered resume commands
type ResumeConfig struct {
	// SkipDependents adds --skip-dependents to generated skip commands
	SkipDependents bool `mapstructure:"skip_dependents"`
	// ExtraFlags are appended verbatim to every generated command
	ExtraFlags []string `mapstructure:"extra_flags"`
}

// TUIConfig controls the report viewer
type TUIConfig struct {
	// Theme is the color theme for the viewer (default: "default")
	// Options: "default", "monokai", "dracula", "nord"
	Theme string `mapstructure:"theme"`
}

// WatchConfig controls the session watcher
type WatchConfig struct {
	// DebounceMs is how long to wait after a file change before
	// regenerating the report, in milliseconds (default: 500)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// Debounce returns the debounce interval as a time.Duration
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// PathsConfig controls where autopsy reads and writes data
type PathsConfig struct {
	// SessionsDir is the directory holding pipeline session directories.
	// If empty, defaults to ".autopsy/sessions" relative to the working
	// directory. Supports ~ for home directory expansion.
	SessionsDir string `mapstructure:"sessions_dir"`
}

// ResolveSessionsDir returns the resolved sessions directory.
// If SessionsDir is empty, it returns the default path relative to baseDir.
// If SessionsDir starts with ~, it expands to the user's home directory.
// If SessionsDir is a relative path, it's resolved relative to baseDir.
func (p *PathsConfig) ResolveSessionsDir(baseDir string) string {
	if p.SessionsDir == "" {
		return filepath.Join(baseDir, ".autopsy", "sessions")
	}

	path := p.SessionsDir

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			TimelineMode:      "vertical",
			TimeWindowMinutes: 5,
			CatalogPath:       "",
		},
		Resume: ResumeConfig{
			SkipDependents: false,
			ExtraFlags:     []string{},
		},
		TUI: TUIConfig{
			Theme: "default",
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Paths: PathsConfig{
			SessionsDir: "", // Empty means use default: .autopsy/sessions
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Report defaults
	viper.SetDefault("report.timeline_mode", defaults.Report.TimelineMode)
	viper.SetDefault("report.time_window_minutes", defaults.Report.TimeWindowMinutes)
	viper.SetDefault("report.catalog_path", defaults.Report.CatalogPath)

	// Resume defaults
	viper.SetDefault("resume.skip_dependents", defaults.Resume.SkipDependents)
	viper.SetDefault("resume.extra_flags", defaults.Resume.ExtraFlags)

	// TUI defaults
	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	// Paths defaults
	viper.SetDefault("paths.sessions_dir", defaults.Paths.SessionsDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autopsy")
	}
	// Fall back to ~/.config/autopsy
	home, err := os.UserHomeDir()
	if err != nil {
		return ".autopsy"
	}
	return filepath.Join(home, ".config", "autopsy")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
