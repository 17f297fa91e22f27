package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"viralstudio/internal/app"
	"viralstudio/internal/logstream"
	"viralstudio/internal/studio"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show trending topic suggestions",
	RunE:  runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	service, err := app.BuildService(ctx, cfg, app.BuildOptions{
		StreamLogger: streamLogger(),
		Subscriber: func(e logstream.Entry) {
			_, _ = fmt.Fprintln(out, studio.RenderEntry(e))
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	suggestions := service.Trends().Load(ctx)
	_, _ = fmt.Fprintln(out, studio.Suggestions(suggestions))
	return nil
}
