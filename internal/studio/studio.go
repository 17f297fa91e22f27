// Package studio is the interactive terminal front end. It renders the
// workflow state as two panels, controls and review, and prints the log
// stream between steps.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"viralstudio/internal/app"
	"viralstudio/internal/app/model"
	"viralstudio/internal/logstream"
	"viralstudio/internal/trends"
	"viralstudio/internal/workflow"
)

const (
	actionGenerate = "generate"
	actionTrending = "trending"
	actionMode     = "mode"
	actionQuit     = "quit"
	actionApprove  = "approve"
	actionBack     = "back"
)

var errQuit = errors.New("quit")

type Studio struct {
	svc      *app.Service
	pipeline *app.Pipeline
	out      io.Writer
	tier     model.ModelTier

	mu      sync.Mutex
	pending []logstream.Entry
}

func New(svc *app.Service, out io.Writer) *Studio {
	s := &Studio{
		svc:      svc,
		pipeline: app.NewPipeline(svc),
		out:      out,
		tier:     svc.Config().Workflow.Tier(),
	}
	svc.Log().Subscribe(s.collect)
	return s
}

// collect buffers entries while a form or spinner owns the terminal.
func (s *Studio) collect(e logstream.Entry) {
	s.mu.Lock()
	s.pending = append(s.pending, e)
	s.mu.Unlock()
}

func (s *Studio) flush() {
	s.mu.Lock()
	entries := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(entries) > 0 {
		_, _ = fmt.Fprintln(s.out, RenderLog(entries))
	}
}

func (s *Studio) machine() *workflow.Machine {
	return s.svc.Machine()
}

func (s *Studio) Run(ctx context.Context) error {
	_, _ = fmt.Fprintln(s.out, titleStyle.Render("VIRAL STUDIO"))

	s.withSpinner("Loading trends...", func() {
		s.machine().LoadSuggestions(ctx)
	})
	s.flush()

	for {
		if ctx.Err() != nil {
			return nil
		}

		st := s.machine().State()
		_, _ = fmt.Fprintln(s.out, RenderStatus(st))

		var err error
		if st.Panel() == workflow.PanelReview {
			err = s.review(ctx, st)
		} else {
			err = s.controls(ctx, st)
		}
		s.flush()

		if errors.Is(err, errQuit) || errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Studio) controls(ctx context.Context, st workflow.State) error {
	var action string
	if err := huh.NewSelect[string]().
		Title("What next?").
		Options(
			huh.NewOption(st.Generate.Label, actionGenerate),
			huh.NewOption(fmt.Sprintf("Trending topics (%d)", len(st.Suggestions)), actionTrending),
			huh.NewOption("Content mode: "+string(st.Mode), actionMode),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&action).
		Run(); err != nil {
		return err
	}

	switch action {
	case actionGenerate:
		return s.generate(ctx, st)
	case actionTrending:
		return s.pickSuggestion(st)
	case actionMode:
		return s.pickMode(st)
	default:
		return errQuit
	}
}

func (s *Studio) pickSuggestion(st workflow.State) error {
	if len(st.Suggestions) == 0 {
		_, _ = fmt.Fprintln(s.out, warnStyle.Render("No trending topics loaded."))
		return nil
	}

	var idx int
	if err := huh.NewSelect[int]().
		Title("Trending").
		Options(suggestionOptions(st.Suggestions)...).
		Value(&idx).
		Run(); err != nil {
		return err
	}

	s.machine().SelectSuggestion(st.Suggestions[idx])
	return nil
}

func (s *Studio) pickMode(st workflow.State) error {
	mode := st.Mode
	if err := huh.NewSelect[model.ContentMode]().
		Title("Content mode").
		Options(modeOptions()...).
		Value(&mode).
		Run(); err != nil {
		return err
	}

	if mode != st.Mode {
		_, _ = s.machine().SelectMode(mode)
	}
	return nil
}

func (s *Studio) generate(ctx context.Context, st workflow.State) error {
	topic := st.Topic
	if err := huh.NewInput().
		Title("Topic").
		Placeholder("e.g. cats").
		Value(&topic).
		Run(); err != nil {
		return err
	}

	m := s.machine()
	m.SetTopic(topic)
	mode := m.State().Mode

	s.withSpinner(workflow.GenerateBusyLabel, func() {
		if _, err := m.RequestScript(ctx, topic, mode); err != nil {
			slog.Debug("Script request ended with error", "error", err)
		}
	})
	return nil
}

func (s *Studio) review(ctx context.Context, st workflow.State) error {
	script := st.Draft.Script
	tier := s.tier
	var action string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Script").
				Description(fmt.Sprintf("%d visual prompts attached", len(st.Draft.VisualPrompts))).
				Value(&script),
			huh.NewSelect[model.ModelTier]().
				Title("Model tier").
				Options(tierOptions()...).
				Value(&tier),
			huh.NewSelect[string]().
				Title("Action").
				Options(
					huh.NewOption(st.Approve.Label, actionApprove),
					huh.NewOption("Back", actionBack),
				).
				Value(&action),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	s.tier = tier

	m := s.machine()
	if action == actionBack {
		_, err := m.Back()
		return err
	}

	if _, err := m.EditScript(script); err != nil {
		return err
	}

	if strings.TrimSpace(script) == "" {
		_, _ = fmt.Fprintln(s.out, warnStyle.Render("Script is empty, nothing to produce."))
		return nil
	}

	var result workflow.State
	s.withSpinner(workflow.ApproveBusyLabel, func() {
		var err error
		result, err = m.Approve(ctx, workflow.ApproveRequest{
			Script: script,
			Tier:   tier,
			Topic:  st.Topic,
			Mode:   st.Mode,
		})
		if err != nil {
			slog.Debug("Video request ended with error", "error", err)
		}
	})

	if result.Stage == workflow.StageIdle && result.Artifact != nil {
		s.flush()
		return s.deliver(ctx, result, tier)
	}
	return nil
}

func (s *Studio) deliver(ctx context.Context, st workflow.State, tier model.ModelTier) error {
	open := s.svc.Config().Output.OpenPlayer
	var download bool

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Open in player?").
				Value(&open),
			huh.NewConfirm().
				Title("Download a copy?").
				Value(&download),
		),
	).Run(); err != nil {
		return err
	}

	s.withSpinner("Delivering "+st.Artifact.URL, func() {
		if _, err := s.pipeline.Deliver(ctx, app.DeliverRequest{
			Artifact: st.Artifact,
			Topic:    st.Topic,
			Mode:     st.Mode,
			Tier:     tier,
			Download: download,
			Open:     open,
		}); err != nil {
			slog.Warn("Delivery failed", "error", err)
		}
	})
	return nil
}

// withSpinner runs fn behind a spinner and returns only after fn has
// finished, even when the spinner exits early on an interrupt.
func (s *Studio) withSpinner(title string, fn func()) {
	err := runAction(func(action func()) error {
		return spinner.New().
			Title(title).
			Action(action).
			Run()
	}, fn)
	if err != nil {
		slog.Debug("Spinner unavailable", "error", err)
	}
}

// runAction hands fn to run as its action. fn runs exactly once: inside run
// when the action starts, otherwise directly after run returns. Either way
// runAction waits for it to complete.
func runAction(run func(action func()) error, fn func()) error {
	var claimed atomic.Bool
	done := make(chan struct{})

	err := run(func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		defer close(done)
		fn()
	})

	if claimed.CompareAndSwap(false, true) {
		fn()
		return err
	}
	<-done
	return err
}

// Suggestions renders the normalized trend list grouped by category, in the
// order each group first appears.
func Suggestions(suggestions []trends.Suggestion) string {
	var order []string
	groups := make(map[string][]trends.Suggestion)
	for _, sg := range suggestions {
		key := sg.Group
		if key == trends.GroupNone {
			key = "other"
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sg)
	}

	var b strings.Builder
	for i, key := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(strings.ToUpper(key)))
		for _, sg := range groups[key] {
			b.WriteString("\n  " + sg.Label())
		}
	}
	return b.String()
}
