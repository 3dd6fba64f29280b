// Command wuxing evaluates Four-Pillars charts from the command line or over HTTP.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/wuxing/internal/config"
	"github.com/talgya/wuxing/internal/persistence"
)

const version = "0.1.0"

var (
	configPath string        // --config
	cfg        config.Config // loaded before any subcommand runs
)

var rootCmd = &cobra.Command{
	Use:   "wuxing",
	Short: "Deterministic five-element balance engine for Four-Pillars charts",
	Long: `wuxing scores the five elements of a Four-Pillars chart, judges the day
master's strength and picks the useful element.

Examples:
  wuxing eval --year 丙寅 --month 己亥 --day 丁丑 --hour 丁未 --age 30
  wuxing eval --file chart.yaml --format json
  wuxing serve --config wuxing.yaml
  wuxing history --limit 10`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(slog.New(cfg.Logging.Handler(os.Stderr)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "wuxing.yaml", "path to the YAML config file")
	rootCmd.AddCommand(evalCmd, serveCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// openArchive opens the evaluation database, creating its directory.
func openArchive() (*persistence.DB, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	slog.Debug("database opened", "path", cfg.Storage.Path)
	return db, nil
}
