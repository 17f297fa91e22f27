package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"viralstudio/internal/app"
	"viralstudio/internal/app/model"
	"viralstudio/internal/logstream"
	"viralstudio/internal/studio"
)

var (
	onceTopic    string
	onceMode     string
	onceTier     string
	onceDownload bool
	onceOpen     bool
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Produce a single video without review",
	Long: `Generate a script for a topic, approve it unedited and produce the video.
Useful for scripted runs; the interactive review happens in "studio".`,
	RunE: runOnce,
}

func init() {
	onceCmd.Flags().StringVarP(&onceTopic, "topic", "t", "", "Topic for the video")
	onceCmd.Flags().StringVarP(&onceMode, "mode", "m", "", "Content mode (MEME, INFORMAL, EDUCATIONAL, NEWS)")
	onceCmd.Flags().StringVar(&onceTier, "tier", "", "Model tier (budget, pro, sora-2, veo)")
	onceCmd.Flags().BoolVarP(&onceDownload, "download", "d", false, "Download the finished video")
	onceCmd.Flags().BoolVar(&onceOpen, "open", false, "Open the finished video in the system player")
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	if onceTopic == "" {
		return errors.New("please provide --topic")
	}

	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mode := cfg.Workflow.Mode()
	if onceMode != "" {
		if mode, err = model.ParseContentMode(onceMode); err != nil {
			return err
		}
	}
	tier := cfg.Workflow.Tier()
	if onceTier != "" {
		if tier, err = model.ParseModelTier(onceTier); err != nil {
			return err
		}
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

	slog.Debug("Running once", "topic", onceTopic, "mode", mode, "tier", tier)

	result, err := app.NewPipeline(service).RunOnce(ctx, app.OnceRequest{
		Topic:    onceTopic,
		Mode:     mode,
		Tier:     tier,
		Download: onceDownload,
		Open:     onceOpen || cfg.Output.OpenPlayer,
	})
	if err != nil {
		return err
	}

	slog.Info("Video produced",
		"url", result.Delivery.PlayerURL,
		"local", result.Delivery.LocalPath,
		"mirror", result.Delivery.MirrorURI,
	)
	return nil
}
