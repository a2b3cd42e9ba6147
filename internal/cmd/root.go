// Package cmd wires the autopsy CLI: report generation, session
// discovery, an interactive viewer, and a live session watcher.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tidewell/autopsy/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "autopsy",
	Short: "Failure analysis for pipeline runs",
	Long: `Autopsy turns the session directories a task pipeline leaves behind
into actionable failure reports: what failed, what it blocks, how to
fix it, and the exact commands to resume the run.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/autopsy/config.yaml)")
	rootCmd.PersistentFlags().String("sessions-dir", "", "directory holding pipeline sessions (default is .autopsy/sessions)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("paths.sessions_dir", rootCmd.PersistentFlags().Lookup("sessions-dir"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/autopsy")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AUTOPSY")
	// Replace dots with underscores for nested keys in env vars
	// e.g., AUTOPSY_REPORT_TIMELINE_MODE for report.timeline_mode
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
