package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidewell/autopsy/internal/config"
	"github.com/tidewell/autopsy/internal/tui"
	"github.com/tidewell/autopsy/internal/tui/styles"
)

var viewCmd = &cobra.Command{
	Use:   "view [session-id]",
	Short: "Browse a session's failure report interactively",
	Long: `Generate the failure report for a session and open it in a scrollable
terminal viewer. With no session id the most recently started session
is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	info, err := resolveSession(cfg, args)
	if err != nil {
		return err
	}

	markdown, err := generateReport(cfg, info.SessionDir)
	if err != nil {
		return err
	}

	styles.SetTheme(cfg.TUI.Theme)

	title := fmt.Sprintf("Error Report — %s", info.ID)
	return tui.Run(title, markdown)
}
