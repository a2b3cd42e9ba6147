package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidewell/autopsy/internal/config"
	"github.com/tidewell/autopsy/internal/logging"
	"github.com/tidewell/autopsy/internal/report"
	"github.com/tidewell/autopsy/internal/resume"
	"github.com/tidewell/autopsy/internal/session"
	"github.com/tidewell/autopsy/internal/timeline"
)

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Generate a failure report for a session",
	Long: `Generate the markdown failure report for a pipeline session.

With no session id the most recently started session is used. The
report prints to stdout; with --write it is also saved as
ERROR_REPORT.md inside the session directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var reportWrite bool

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVarP(&reportWrite, "write", "w", false, "also write ERROR_REPORT.md into the session directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	info, err := resolveSession(cfg, args)
	if err != nil {
		return err
	}

	markdown, err := generateReport(cfg, info.SessionDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), markdown)

	if reportWrite {
		path := filepath.Join(info.SessionDir, report.FileName)
		if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	}
	return nil
}

// resolveSession picks the session to report on: an explicit id (exact or
// prefix match), or the most recently started session when none is given.
func resolveSession(cfg *config.Config, args []string) (*session.Info, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	sessionsDir := cfg.Paths.ResolveSessionsDir(cwd)

	if len(args) == 0 {
		latest, err := session.FindLatest(sessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if latest == nil {
			return nil, fmt.Errorf("no sessions found in %s", sessionsDir)
		}
		return latest, nil
	}

	sessions, err := session.ListSessions(sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.ID == args[0] || strings.HasPrefix(s.ID, args[0]) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", args[0])
}

// generateReport loads a session directory and renders its report using
// the configured timeline mode and fix catalog.
func generateReport(cfg *config.Config, dir string) (string, error) {
	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		if l, err := logging.NewLogger(dir, cfg.Logging.Level); err == nil {
			logger = l
			defer logger.Close()
		}
	}

	failures, ctx, err := session.Load(dir)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	logger = logger.WithSession(ctx.SessionID)
	logger.Info("generating report", "failures", len(failures))

	builder := report.NewBuilder()
	builder.SetTimelineMode(timeline.Mode(cfg.Report.TimelineMode))
	builder.SetTimeWindow(cfg.Report.TimeWindow())
	builder.SetResumeOptions(resume.Options{
		SkipDependents: cfg.Resume.SkipDependents,
		ExtraFlags:     cfg.Resume.ExtraFlags,
	})
	if cfg.Report.CatalogPath != "" {
		if err := builder.SetCatalogFile(cfg.Report.CatalogPath); err != nil {
			return "", fmt.Errorf("failed to load fix catalog: %w", err)
		}
	}

	markdown := builder.Generate(failures, ctx)
	logger.Info("report generated", "bytes", len(markdown))
	return markdown, nil
}
