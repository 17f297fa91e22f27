package workflow

import (
	"context"
	"strings"

	"viralstudio/internal/app/model"
)

type ApproveRequest struct {
	Script string
	Tier   model.ModelTier
	Topic  string
	Mode   model.ContentMode
}

// EditScript replaces the draft text under review. Visual prompts are untouched.
func (m *Machine) EditScript(text string) (State, error) {
	m.mu.Lock()
	if m.state.Stage != StageReviewing || m.state.Draft == nil {
		snapshot := m.state.clone()
		m.mu.Unlock()
		return snapshot, ErrNoDraft
	}
	m.mu.Unlock()

	return m.update(func(s *State) {
		if s.Draft != nil {
			s.Draft.Script = text
		}
	}), nil
}

// Back discards the draft and returns to the controls panel. Calling it when
// nothing is under review does nothing.
func (m *Machine) Back() (State, error) {
	current := m.State()
	switch current.Stage {
	case StageIdle:
		return current, nil
	case StageReviewing:
	default:
		return current, &TransitionError{From: current.Stage, To: StageIdle}
	}

	st, err := m.transition(StageReviewing, StageIdle, func(s *State) {
		s.Draft = nil
	})
	if err != nil {
		return st, err
	}
	m.log.Info("> Draft discarded. Back to topic selection.")
	return st, nil
}

// Approve hands the reviewed text and the stored visual prompts to video
// assembly. Empty text is ignored without logging.
func (m *Machine) Approve(ctx context.Context, req ApproveRequest) (State, error) {
	if strings.TrimSpace(req.Script) == "" {
		return m.State(), nil
	}

	current := m.State()
	if current.Stage != StageReviewing || current.Draft == nil {
		return current, &TransitionError{From: current.Stage, To: StageProducing}
	}

	return m.RequestVideo(ctx, VideoSubmission{
		Script:        req.Script,
		VisualPrompts: current.Draft.VisualPrompts,
		Topic:         req.Topic,
		Tier:          req.Tier,
		Mode:          req.Mode,
	})
}
