package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"viralstudio/pkg/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "viralstudio",
	Short: "Human-in-the-loop short video studio",
	Long: `Viralstudio turns a topic into a short video with a review step in between.
A remote backend writes the script and assembles the video; you pick the topic,
edit the script and approve production.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config.yaml")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger(os.Stdout, slog.LevelInfo)
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger(w io.Writer, level slog.Level) {
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// streamLogger keeps the activity log out of slog unless --verbose is set,
// for commands that already print it.
func streamLogger() *slog.Logger {
	if verbose {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadConfig reads the config and reapplies the configured log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	setupLogger(os.Stdout, level)
	return cfg, nil
}
