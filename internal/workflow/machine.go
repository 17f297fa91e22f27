// Package workflow coordinates one topic -> script -> review -> video job.
//
// A Machine owns the session State. Every operation returns a snapshot of the
// state it left behind, and every user-visible outcome goes to the log stream.
// Only one remote call can be in flight: the stage gates each coordinator and
// a second submission is rejected with a TransitionError.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"viralstudio/internal/app/model"
	"viralstudio/internal/logstream"
	"viralstudio/internal/trends"

	"github.com/google/uuid"
)

type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req model.ScriptRequest) (*model.ScriptDraft, error)
}

type VideoAssembler interface {
	AssembleVideo(ctx context.Context, req model.VideoRequest) (string, error)
}

type SuggestionLoader interface {
	Load(ctx context.Context) []trends.Suggestion
}

type Options struct {
	Scripts        ScriptGenerator
	Videos         VideoAssembler
	Trends         SuggestionLoader
	Log            *logstream.Stream
	DefaultMode    model.ContentMode
	ArtifactPrefix string
	// OnChange receives a snapshot after every state change.
	OnChange func(State)
}

type Machine struct {
	mu       sync.Mutex
	state    State
	scripts  ScriptGenerator
	videos   VideoAssembler
	trends   SuggestionLoader
	log      *logstream.Stream
	prefix   string
	onChange func(State)
	logger   *slog.Logger
}

func New(opts Options) *Machine {
	mode := opts.DefaultMode
	if !mode.Valid() {
		mode = model.ModeMeme
	}
	prefix := opts.ArtifactPrefix
	if prefix == "" {
		prefix = model.DefaultArtifactPrefix
	}
	log := opts.Log
	if log == nil {
		log = logstream.New(nil)
	}

	return &Machine{
		state:    initialState(mode),
		scripts:  opts.Scripts,
		videos:   opts.Videos,
		trends:   opts.Trends,
		log:      log,
		prefix:   prefix,
		onChange: opts.OnChange,
		logger:   slog.With("session", uuid.NewString()),
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Machine) Log() *logstream.Stream {
	return m.log
}

// LoadSuggestions runs the trend feed once. It never fails; a broken feed
// yields the offline placeholder.
func (m *Machine) LoadSuggestions(ctx context.Context) State {
	if m.trends == nil {
		return m.State()
	}
	suggestions := m.trends.Load(ctx)
	return m.update(func(s *State) {
		s.Suggestions = suggestions
	})
}

// SelectSuggestion copies a suggestion into the topic. It does not start generation.
func (m *Machine) SelectSuggestion(suggestion trends.Suggestion) State {
	if suggestion.Offline || strings.TrimSpace(suggestion.Topic) == "" {
		return m.State()
	}

	st := m.update(func(s *State) {
		s.Topic = strings.TrimSpace(suggestion.Topic)
	})
	m.log.Info(fmt.Sprintf("> Topic set to trending: %s", suggestion.Topic))
	return st
}

func (m *Machine) SetTopic(topic string) State {
	topic = strings.TrimSpace(topic)
	return m.update(func(s *State) {
		s.Topic = topic
	})
}

// SelectMode switches the active content mode. A request already in flight
// keeps the mode it was submitted with.
func (m *Machine) SelectMode(mode model.ContentMode) (State, error) {
	if !mode.Valid() {
		return m.reject(&ValidationError{Field: "content_mode", Message: fmt.Sprintf("Unknown content mode %q.", mode)})
	}

	st := m.update(func(s *State) {
		s.Mode = mode
	})
	m.log.Info(fmt.Sprintf("> Mode switched to: %s", mode))
	return st, nil
}

func (m *Machine) update(fn func(*State)) State {
	m.mu.Lock()
	fn(&m.state)
	snapshot := m.state.clone()
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(snapshot)
	}
	return snapshot
}

// transition moves from one stage to another under the lock, applying fn on success.
func (m *Machine) transition(from, to Stage, fn func(*State)) (State, error) {
	m.mu.Lock()
	if m.state.Stage != from {
		err := &TransitionError{From: m.state.Stage, To: to}
		snapshot := m.state.clone()
		m.mu.Unlock()
		return snapshot, err
	}
	m.state.Stage = to
	if fn != nil {
		fn(&m.state)
	}
	snapshot := m.state.clone()
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(snapshot)
	}
	return snapshot, nil
}

func (m *Machine) reject(err *ValidationError) (State, error) {
	m.log.Error("> Error: " + err.Message)
	return m.State(), err
}
