package workflow

import (
	"viralstudio/internal/app/model"
	"viralstudio/internal/trends"
)

const (
	StageIdle       Stage = "idle"
	StageSubmitting Stage = "submitting"
	StageReviewing  Stage = "reviewing"
	StageProducing  Stage = "producing"
)

const (
	PanelControls Panel = "controls"
	PanelReview   Panel = "review"
)

const (
	GenerateLabel     = "GENERATE SCRIPT"
	GenerateBusyLabel = "GENERATING..."
	ApproveLabel      = "APPROVE & PRODUCE"
	ApproveBusyLabel  = "PRODUCING..."
)

type Stage string

type Panel string

// Control is the enabled flag and visible label of a trigger.
type Control struct {
	Enabled bool
	Label   string
}

// State is the single source of truth for a studio session. Draft is set
// exactly while Stage is reviewing or producing.
type State struct {
	Stage         Stage
	Topic         string
	Mode          model.ContentMode
	Suggestions   []trends.Suggestion
	Draft         *model.ScriptDraft
	Artifact      *model.Artifact
	ResultVisible bool
	Generate      Control
	Approve       Control
}

func initialState(mode model.ContentMode) State {
	return State{
		Stage:    StageIdle,
		Mode:     mode,
		Generate: Control{Enabled: true, Label: GenerateLabel},
		Approve:  Control{Enabled: true, Label: ApproveLabel},
	}
}

func (s State) Panel() Panel {
	if s.Stage == StageReviewing || s.Stage == StageProducing {
		return PanelReview
	}
	return PanelControls
}

func (s State) Busy() bool {
	return s.Stage == StageSubmitting || s.Stage == StageProducing
}

func (s State) clone() State {
	out := s
	out.Draft = s.Draft.Clone()
	if s.Suggestions != nil {
		out.Suggestions = append([]trends.Suggestion(nil), s.Suggestions...)
	}
	if s.Artifact != nil {
		artifact := *s.Artifact
		out.Artifact = &artifact
	}
	return out
}
