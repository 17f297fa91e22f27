package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"viralstudio/internal/app/model"
)

type VideoSubmission struct {
	Script        string
	VisualPrompts []model.VisualPrompt
	Topic         string
	Tier          model.ModelTier
	Mode          model.ContentMode
}

// The backend pipeline is synchronous, so these report a finished run rather
// than live progress.
var productionMilestones = []string{
	"> Video assets generated (vision engine).",
	"> Audio synthesized.",
	"> Final cut assembled.",
	"> PRODUCTION COMPLETE.",
}

// RequestVideo asks the backend to assemble the approved script.
//
// Reviewing -> Producing -> Idle with an artifact on success, back to
// Reviewing with the draft intact on failure.
func (m *Machine) RequestVideo(ctx context.Context, sub VideoSubmission) (st State, err error) {
	if strings.TrimSpace(sub.Script) == "" {
		return m.reject(&ValidationError{Field: "script", Message: "No script to produce."})
	}
	sub.Topic = strings.TrimSpace(sub.Topic)
	if !sub.Tier.Valid() {
		return m.reject(&ValidationError{Field: "model_tier", Message: fmt.Sprintf("Unknown model tier %q.", sub.Tier)})
	}
	if !sub.Mode.Valid() {
		return m.reject(&ValidationError{Field: "content_mode", Message: fmt.Sprintf("Unknown content mode %q.", sub.Mode)})
	}

	var saved Control
	var resultWasVisible bool
	st, err = m.transition(StageReviewing, StageProducing, func(s *State) {
		saved = s.Approve
		resultWasVisible = s.ResultVisible
		s.Approve = Control{Enabled: false, Label: ApproveBusyLabel}
		s.ResultVisible = false
		if s.Draft != nil {
			s.Draft.Script = sub.Script
		}
	})
	if err != nil {
		return st, err
	}

	var artifact *model.Artifact
	defer func() {
		st = m.update(func(s *State) {
			s.Approve = saved
			if artifact != nil {
				s.Stage = StageIdle
				s.Draft = nil
				s.Artifact = artifact
				s.ResultVisible = true
				return
			}
			s.Stage = StageReviewing
			s.ResultVisible = resultWasVisible
		})
	}()

	m.log.System("> Starting video production...")
	m.log.Info(fmt.Sprintf("> Model tier: %s", sub.Tier))
	m.logger.Debug("Requesting video", "topic", sub.Topic, "tier", sub.Tier, "prompts", len(sub.VisualPrompts))

	prompts := sub.VisualPrompts
	if prompts == nil {
		prompts = []model.VisualPrompt{}
	}

	videoPath, callErr := m.videos.AssembleVideo(context.WithoutCancel(ctx), model.VideoRequest{
		Script:        sub.Script,
		VisualPrompts: prompts,
		Topic:         sub.Topic,
		ModelTier:     sub.Tier,
		ContentMode:   sub.Mode,
	})
	if callErr == nil && videoPath == "" {
		callErr = errors.New("missing video_path")
	}
	if callErr != nil {
		err = classify(callErr)
		m.logger.Warn("Video assembly failed", "error", callErr)
		m.log.Error("> FATAL ERROR: " + err.Error())
		return st, err
	}

	for _, milestone := range productionMilestones {
		m.log.Success(milestone)
	}

	artifact = model.NewArtifact(m.prefix, videoPath)
	m.logger.Info("Artifact ready", "url", artifact.URL, "video_path", videoPath)
	return st, nil
}
