package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidewell/autopsy/internal/config"
	"github.com/tidewell/autopsy/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List pipeline sessions",
	Long: `List the pipeline sessions autopsy can report on, with their task
counters and recorded failure counts.`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	sessionsDir := cfg.Paths.ResolveSessionsDir(cwd)

	sessions, err := session.ListSessions(sessionsDir)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("─", 70))
	fmt.Fprintln(out, "Pipeline Sessions")
	fmt.Fprintln(out, strings.Repeat("─", 70))

	if len(sessions) == 0 {
		fmt.Fprintf(out, "\nNo sessions found in %s.\n", sessionsDir)
		return nil
	}

	fmt.Fprintf(out, "\nFound %d session(s):\n\n", len(sessions))
	for _, s := range sessions {
		mode := s.Mode
		if mode == "" {
			mode = "(unknown)"
		}
		fmt.Fprintf(out, "  Session: %s\n", s.ID)
		if !s.StartTime.IsZero() {
			fmt.Fprintf(out, "    Started:  %s\n", s.StartTime.Format(time.RFC822))
		}
		fmt.Fprintf(out, "    Mode:     %s\n", mode)
		fmt.Fprintf(out, "    Tasks:    %d/%d completed\n", s.CompletedTasks, s.TotalTasks)
		fmt.Fprintf(out, "    Failures: %d\n", s.FailureCount)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "To generate a report: autopsy report <session-id>")
	return nil
}
