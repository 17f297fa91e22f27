package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/pkg/browser"

	"viralstudio/internal/app/model"
	"viralstudio/internal/storage"
	"viralstudio/internal/workflow"
)

var openURL = browser.OpenURL

var ErrNothingProduced = errors.New("no artifact was produced")

type Pipeline struct {
	service *Service
}

// DeliverRequest describes a finished production and what to do with it.
type DeliverRequest struct {
	Artifact *model.Artifact
	Topic    string
	Mode     model.ContentMode
	Tier     model.ModelTier
	Download bool
	Open     bool
}

type Delivery struct {
	PlayerURL string
	LocalPath string
	MirrorURI string
}

type OnceRequest struct {
	Topic    string
	Mode     model.ContentMode
	Tier     model.ModelTier
	Download bool
	Open     bool
}

type OnceResult struct {
	Script   string
	Artifact *model.Artifact
	Delivery *Delivery
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// RunOnce drives one job end to end and approves the generated script as is.
func (p *Pipeline) RunOnce(ctx context.Context, req OnceRequest) (*OnceResult, error) {
	machine := p.service.Machine()
	req.Topic = strings.TrimSpace(req.Topic)

	if machine.State().Mode != req.Mode {
		if _, err := machine.SelectMode(req.Mode); err != nil {
			return nil, err
		}
	}

	st, err := machine.RequestScript(ctx, req.Topic, req.Mode)
	if err != nil {
		return nil, err
	}
	script := st.Draft.Script

	st, err = machine.Approve(ctx, workflow.ApproveRequest{
		Script: script,
		Tier:   req.Tier,
		Topic:  req.Topic,
		Mode:   req.Mode,
	})
	if err != nil {
		return nil, err
	}
	if st.Artifact == nil {
		_, _ = machine.Back()
		return nil, ErrNothingProduced
	}

	delivery, err := p.Deliver(ctx, DeliverRequest{
		Artifact: st.Artifact,
		Topic:    req.Topic,
		Mode:     req.Mode,
		Tier:     req.Tier,
		Download: req.Download,
		Open:     req.Open,
	})

	return &OnceResult{
		Script:   script,
		Artifact: st.Artifact,
		Delivery: delivery,
	}, err
}

// Deliver records a finished artifact and optionally downloads, mirrors and
// opens it. The workflow has already completed, so failures here are
// reported on the log stream and returned, never fed back into the machine.
func (p *Pipeline) Deliver(ctx context.Context, req DeliverRequest) (*Delivery, error) {
	if req.Artifact == nil {
		return nil, ErrNothingProduced
	}

	backend := p.service.Backend()
	log := p.service.Log()
	history := p.service.History()

	delivery := &Delivery{PlayerURL: backend.ResolveURL(req.Artifact.URL)}

	if history != nil {
		if err := history.Add(storage.Record{
			Topic:     req.Topic,
			Mode:      string(req.Mode),
			Tier:      string(req.Tier),
			URL:       req.Artifact.URL,
			VideoPath: req.Artifact.VideoPath,
		}); err != nil {
			slog.Warn("Failed to record history", "error", err)
		}
	}

	if req.Download {
		if err := p.download(ctx, req.Artifact, delivery); err != nil {
			log.Error("> Download failed: " + err.Error())
			return delivery, err
		}
	}

	if req.Open {
		if err := openURL(delivery.PlayerURL); err != nil {
			log.Error("> Could not open player: " + err.Error())
			return delivery, fmt.Errorf("open player: %w", err)
		}
		log.Info("> Opened " + delivery.PlayerURL)
	}

	return delivery, nil
}

func (p *Pipeline) download(ctx context.Context, artifact *model.Artifact, delivery *Delivery) error {
	local := p.service.Storage()
	if local == nil {
		return errors.New("no local storage configured")
	}

	log := p.service.Log()
	log.System("> Downloading " + artifact.URL + "...")

	body, err := p.service.Backend().Download(ctx, artifact.URL)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	localPath, err := local.SaveArtifact(ctx, path.Base(artifact.URL), body)
	if err != nil {
		return err
	}
	delivery.LocalPath = localPath
	log.Success("> Saved to " + localPath)
	defer p.recordDelivery(artifact.URL, delivery)

	if mirror := p.service.Mirror(); mirror != nil {
		uri, err := mirror.Upload(ctx, localPath)
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		delivery.MirrorURI = uri
		log.Success("> Mirrored to " + uri)
	}
	return nil
}

func (p *Pipeline) recordDelivery(url string, delivery *Delivery) {
	history := p.service.History()
	if history == nil {
		return
	}
	if err := history.Update(url, func(r *storage.Record) {
		r.LocalPath = delivery.LocalPath
		r.MirrorURI = delivery.MirrorURI
	}); err != nil {
		slog.Warn("Failed to update history", "error", err)
	}
}
