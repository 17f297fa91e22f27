package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"viralstudio/internal/app/model"
)

// RequestScript asks the backend for a script draft.
//
// Idle -> Submitting -> Reviewing on success, back to Idle on any failure.
// The generate control is restored on every path, panics included.
func (m *Machine) RequestScript(ctx context.Context, topic string, mode model.ContentMode) (st State, err error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return m.reject(&ValidationError{Field: "topic", Message: "No topic provided."})
	}
	if !mode.Valid() {
		return m.reject(&ValidationError{Field: "content_mode", Message: fmt.Sprintf("Unknown content mode %q.", mode)})
	}

	var saved Control
	st, err = m.transition(StageIdle, StageSubmitting, func(s *State) {
		saved = s.Generate
		s.Generate = Control{Enabled: false, Label: GenerateBusyLabel}
	})
	if err != nil {
		return st, err
	}

	var draft *model.ScriptDraft
	defer func() {
		st = m.update(func(s *State) {
			s.Generate = saved
			if draft != nil {
				s.Stage = StageReviewing
				s.Draft = draft
				return
			}
			s.Stage = StageIdle
		})
	}()

	m.log.System("> Initializing script generation job...")
	m.log.Info(fmt.Sprintf("> Topic: %q | Mode: %s", topic, mode))
	m.logger.Debug("Requesting script", "topic", topic, "mode", mode)

	result, callErr := m.scripts.GenerateScript(context.WithoutCancel(ctx), model.ScriptRequest{
		Topic:       topic,
		ContentMode: mode,
	})
	if callErr == nil && result == nil {
		callErr = errors.New("empty script response")
	}
	if callErr != nil {
		err = classify(callErr)
		m.logger.Warn("Script generation failed", "error", callErr)
		m.log.Error("> Error: " + err.Error())
		return st, err
	}

	draft = result.Clone()
	if draft.VisualPrompts == nil {
		draft.VisualPrompts = []model.VisualPrompt{}
	}
	m.log.Success(fmt.Sprintf("> Script generated (%d visual prompts). Awaiting review.", len(draft.VisualPrompts)))
	return st, nil
}
