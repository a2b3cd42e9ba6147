package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tidewell/autopsy/internal/backlog"
	"github.com/tidewell/autopsy/internal/config"
	"github.com/tidewell/autopsy/internal/report"
	"github.com/tidewell/autopsy/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch [session-id]",
	Short: "Regenerate the report as a session changes",
	Long: `Watch a session directory and regenerate ERROR_REPORT.md whenever the
pipeline updates its failure records, backlog snapshot, or metadata.

Changes are debounced (watch.debounce_ms) so a burst of writes produces
one regeneration. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchedFiles are the session inputs whose changes trigger a rebuild.
var watchedFiles = map[string]struct{}{
	session.SessionFileName:  {},
	backlog.BacklogFileName:  {},
	backlog.FailuresFileName: {},
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	info, err := resolveSession(cfg, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(info.SessionDir); err != nil {
		return fmt.Errorf("failed to watch session directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching session %s (%s)\n", info.ID, info.SessionDir)
	if err := rebuildReport(cmd, cfg, info.SessionDir); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	return watchLoop(ctx, cmd, cfg, info.SessionDir, watcher)
}

// watchLoop debounces watcher events and rebuilds the report after each
// quiet period. It returns when the context is canceled.
func watchLoop(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dir string, watcher *fsnotify.Watcher) error {
	debounce := cfg.Watch.Debounce()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := watchedFiles[filepath.Base(event.Name)]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watch error: %v\n", err)

		case <-timer.C:
			pending = false
			if err := rebuildReport(cmd, cfg, dir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
		}
	}
}

func rebuildReport(cmd *cobra.Command, cfg *config.Config, dir string) error {
	markdown, err := generateReport(cfg, dir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, report.FileName)
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] report updated: %s\n", time.Now().Format("15:04:05"), path)
	return nil
}
