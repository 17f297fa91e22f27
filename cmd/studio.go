package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"viralstudio/internal/app"
	"viralstudio/internal/studio"
	"viralstudio/pkg/config"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Open the interactive studio",
	Long: `Pick a topic (or a trending one), choose a content mode, review and edit the
generated script, then approve video production.`,
	RunE: runStudio,
}

func init() {
	rootCmd.AddCommand(studioCmd)
}

func runStudio(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The forms own the terminal, so operator logs go to a file.
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logPath := filepath.Join(cfg.Output.Dir, cfg.Log.File)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	level, _ := config.ParseLevel(cfg.Log.Level)
	setupLogger(logFile, level)
	slog.Info("Studio starting", "backend", cfg.Backend.BaseURL)

	service, err := app.BuildService(ctx, cfg, app.BuildOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	return studio.New(service, cmd.OutOrStdout()).Run(ctx)
}
