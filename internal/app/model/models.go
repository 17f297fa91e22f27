package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ModeMeme        ContentMode = "MEME"
	ModeInformal    ContentMode = "INFORMAL"
	ModeEducational ContentMode = "EDUCATIONAL"
	ModeNews        ContentMode = "NEWS"
)

const (
	TierBudget ModelTier = "budget"
	TierPro    ModelTier = "pro"
	TierSora2  ModelTier = "sora-2"
	TierVeo    ModelTier = "veo"
)

const DefaultArtifactPrefix = "/output"

type ContentMode string

type ModelTier string

var contentModes = []ContentMode{ModeMeme, ModeInformal, ModeEducational, ModeNews}

var modelTiers = []ModelTier{TierBudget, TierPro, TierSora2, TierVeo}

func ContentModes() []ContentMode {
	return append([]ContentMode(nil), contentModes...)
}

func ModelTiers() []ModelTier {
	return append([]ModelTier(nil), modelTiers...)
}

func (m ContentMode) Valid() bool {
	for _, mode := range contentModes {
		if m == mode {
			return true
		}
	}
	return false
}

func (t ModelTier) Valid() bool {
	for _, tier := range modelTiers {
		if t == tier {
			return true
		}
	}
	return false
}

func ParseContentMode(s string) (ContentMode, error) {
	mode := ContentMode(strings.ToUpper(strings.TrimSpace(s)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown content mode %q", s)
	}
	return mode, nil
}

func ParseModelTier(s string) (ModelTier, error) {
	tier := ModelTier(strings.ToLower(strings.TrimSpace(s)))
	if !tier.Valid() {
		return "", fmt.Errorf("unknown model tier %q", s)
	}
	return tier, nil
}

// VisualPrompt is kept as raw JSON so prompts reach video assembly exactly as
// script generation produced them.
type VisualPrompt = json.RawMessage

type ScriptDraft struct {
	Script        string         `json:"script"`
	VisualPrompts []VisualPrompt `json:"visual_prompts"`
}

// Clone returns a deep copy so the review gate never shares prompt bytes with callers.
func (d *ScriptDraft) Clone() *ScriptDraft {
	if d == nil {
		return nil
	}
	prompts := make([]VisualPrompt, len(d.VisualPrompts))
	for i, p := range d.VisualPrompts {
		prompts[i] = append(VisualPrompt(nil), p...)
	}
	return &ScriptDraft{Script: d.Script, VisualPrompts: prompts}
}

type Artifact struct {
	VideoPath string
	URL       string
}

// ArtifactURL re-roots the last "/" separated segment of the server path under
// the artifact serving prefix. The backend serves generated files from that prefix.
func ArtifactURL(prefix, videoPath string) string {
	segments := strings.Split(videoPath, "/")
	name := segments[len(segments)-1]
	return strings.TrimRight(prefix, "/") + "/" + name
}

func NewArtifact(prefix, videoPath string) *Artifact {
	return &Artifact{
		VideoPath: videoPath,
		URL:       ArtifactURL(prefix, videoPath),
	}
}

// TrendEntry accepts either a bare JSON string or a {topic, category} object.
type TrendEntry struct {
	Topic    string `json:"topic"`
	Category string `json:"category,omitempty"`
}

func (e *TrendEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var topic string
		if err := json.Unmarshal(data, &topic); err != nil {
			return err
		}
		*e = TrendEntry{Topic: topic}
		return nil
	}

	var raw struct {
		Topic    *string `json:"topic"`
		Category *string `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("trend entry: %w", err)
	}
	if raw.Topic == nil {
		return fmt.Errorf("trend entry: missing topic")
	}

	*e = TrendEntry{Topic: *raw.Topic}
	if raw.Category != nil {
		e.Category = *raw.Category
	}
	return nil
}

type ScriptRequest struct {
	Topic       string      `json:"topic"`
	ContentMode ContentMode `json:"content_mode"`
}

type VideoRequest struct {
	Script        string         `json:"script"`
	VisualPrompts []VisualPrompt `json:"visual_prompts"`
	Topic         string         `json:"topic"`
	ModelTier     ModelTier      `json:"model_tier"`
	ContentMode   ContentMode    `json:"content_mode"`
}
