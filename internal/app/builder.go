package app

import (
	"context"
	"log/slog"

	"viralstudio/internal/backend"
	"viralstudio/internal/logstream"
	"viralstudio/internal/storage"
	"viralstudio/internal/workflow"
	"viralstudio/pkg/config"
	"viralstudio/pkg/httputil"
)

type BuildOptions struct {
	// OnChange receives every workflow state snapshot.
	OnChange func(workflow.State)
	// Subscriber receives every log stream entry as it is appended.
	Subscriber logstream.Subscriber
	// StreamLogger receives the slog mirror of the log stream. Defaults to slog.Default().
	StreamLogger *slog.Logger
}

func BuildService(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Service, error) {
	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.Download.RetryCount()
	retry.InitialDelay = cfg.Download.RetryDelay

	client := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		TrendsPath: cfg.Backend.TrendsPath,
		ScriptPath: cfg.Backend.ScriptPath,
		VideoPath:  cfg.Backend.VideoPath,
		UserAgent:  cfg.Backend.UserAgent,
		Retry:      retry,
	})

	log := logstream.New(opts.StreamLogger)
	if opts.Subscriber != nil {
		log.Subscribe(opts.Subscriber)
	}

	localStorage := storage.NewLocalStorage(cfg.Output.Dir)
	if err := localStorage.EnsureDirectories(); err != nil {
		return nil, err
	}

	var mirror Mirror
	if cfg.GCS.Enabled {
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCS.Prefix, cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		mirror = gcs
	}

	return NewService(ServiceOptions{
		Config:   cfg,
		Backend:  client,
		Log:      log,
		OnChange: opts.OnChange,
		Storage:  localStorage,
		History:  storage.NewHistory(cfg.Output.Dir),
		Mirror:   mirror,
	}), nil
}
