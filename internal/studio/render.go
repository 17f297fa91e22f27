package studio

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"viralstudio/internal/app/model"
	"viralstudio/internal/logstream"
	"viralstudio/internal/trends"
	"viralstudio/internal/workflow"
)

const timeFormat = "15:04:05"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func severityStyle(sev logstream.Severity) lipgloss.Style {
	switch sev {
	case logstream.SeveritySystem:
		return systemStyle
	case logstream.SeveritySuccess:
		return successStyle
	case logstream.SeverityError:
		return errorStyle
	default:
		return infoStyle
	}
}

func RenderEntry(e logstream.Entry) string {
	return severityStyle(e.Severity).Render(e.Time.Format(timeFormat) + " " + e.Message)
}

func RenderLog(entries []logstream.Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = RenderEntry(e)
	}
	return strings.Join(lines, "\n")
}

// SuggestionLabel tags a suggestion with its group, or marks the feed as offline.
func SuggestionLabel(s trends.Suggestion) string {
	if s.Offline {
		return warnStyle.Render(s.Label())
	}
	if s.Group == trends.GroupNone {
		return s.Topic
	}
	return warnStyle.Render("["+s.Group+"]") + " " + s.Topic
}

// RenderStatus summarises the session for the panel header.
func RenderStatus(st workflow.State) string {
	var b strings.Builder

	panel := "TOPIC & MODE"
	if st.Panel() == workflow.PanelReview {
		panel = "SCRIPT REVIEW"
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Panel:"), panel)

	topic := st.Topic
	if topic == "" {
		topic = "-"
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Topic:"), topic)
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Mode: "), st.Mode)

	if st.Busy() {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Status:"), warnStyle.Render("working ("+string(st.Stage)+")"))
	}

	if st.Draft != nil {
		fmt.Fprintf(&b, "\n%s %d visual prompts", labelStyle.Render("Draft:"), len(st.Draft.VisualPrompts))
	}
	if st.ResultVisible && st.Artifact != nil {
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Result:"), successStyle.Render(st.Artifact.URL))
	}

	return panelStyle.Render(b.String())
}

func suggestionOptions(suggestions []trends.Suggestion) []huh.Option[int] {
	options := make([]huh.Option[int], len(suggestions))
	for i, s := range suggestions {
		options[i] = huh.NewOption(SuggestionLabel(s), i)
	}
	return options
}

func modeOptions() []huh.Option[model.ContentMode] {
	modes := model.ContentModes()
	options := make([]huh.Option[model.ContentMode], len(modes))
	for i, m := range modes {
		options[i] = huh.NewOption(string(m), m)
	}
	return options
}

func tierOptions() []huh.Option[model.ModelTier] {
	tiers := model.ModelTiers()
	options := make([]huh.Option[model.ModelTier], len(tiers))
	for i, t := range tiers {
		options[i] = huh.NewOption(string(t), t)
	}
	return options
}
