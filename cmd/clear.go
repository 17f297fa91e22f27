package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"viralstudio/internal/storage"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove downloaded videos and the job history",
	Long:  `Delete downloaded videos from the output directory and empty the job history. Mirrored objects are left alone.`,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !clearYes {
		confirmed := false
		if err := huh.NewConfirm().
			Title("Clear " + cfg.Output.Dir + "?").
			Description("Downloaded videos and the job history will be deleted.").
			Value(&confirmed).
			Run(); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	local := storage.NewLocalStorage(cfg.Output.Dir)
	count, err := local.Clear(cmd.Context())
	if err != nil {
		return err
	}

	history := storage.NewHistory(cfg.Output.Dir)
	jobs := history.Len()
	if err := history.Clear(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d video(s) and %d history record(s)\n", count, jobs)
	return nil
}
