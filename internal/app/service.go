package app

import (
	"context"
	"io"

	"viralstudio/internal/logstream"
	"viralstudio/internal/storage"
	"viralstudio/internal/trends"
	"viralstudio/internal/workflow"
	"viralstudio/pkg/config"
)

// Backend is the part of the backend client the delivery steps need.
type Backend interface {
	trends.Source
	workflow.ScriptGenerator
	workflow.VideoAssembler
	Download(ctx context.Context, artifactURL string) (io.ReadCloser, error)
	ResolveURL(artifactURL string) string
}

// Mirror copies a saved artifact somewhere durable and returns where it went.
type Mirror interface {
	storage.ArtifactStore
	Upload(ctx context.Context, localPath string) (string, error)
	Close() error
}

type Service struct {
	cfg     *config.Config
	backend Backend
	log     *logstream.Stream
	trends  *trends.Adapter
	machine *workflow.Machine
	storage *storage.LocalStorage
	history *storage.History
	mirror  Mirror
}

type ServiceOptions struct {
	Config   *config.Config
	Backend  Backend
	Log      *logstream.Stream
	OnChange func(workflow.State)
	Storage  *storage.LocalStorage
	History  *storage.History
	Mirror   Mirror
}

func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = logstream.New(nil)
	}

	s := &Service{
		cfg:     cfg,
		backend: opts.Backend,
		log:     log,
		storage: opts.Storage,
		history: opts.History,
		mirror:  opts.Mirror,
	}

	var loader workflow.SuggestionLoader
	if opts.Backend != nil {
		s.trends = trends.NewAdapter(opts.Backend, log, cfg.Trends.MaxSuggestions)
		loader = s.trends
	}

	var scripts workflow.ScriptGenerator
	var videos workflow.VideoAssembler
	if opts.Backend != nil {
		scripts = opts.Backend
		videos = opts.Backend
	}

	s.machine = workflow.New(workflow.Options{
		Scripts:        scripts,
		Videos:         videos,
		Trends:         loader,
		Log:            log,
		DefaultMode:    cfg.Workflow.Mode(),
		ArtifactPrefix: cfg.Backend.ArtifactPrefix,
		OnChange:       opts.OnChange,
	})
	return s
}

func (s *Service) Config() *config.Config         { return s.cfg }
func (s *Service) Backend() Backend               { return s.backend }
func (s *Service) Log() *logstream.Stream         { return s.log }
func (s *Service) Trends() *trends.Adapter        { return s.trends }
func (s *Service) Machine() *workflow.Machine     { return s.machine }
func (s *Service) Storage() *storage.LocalStorage { return s.storage }
func (s *Service) History() *storage.History      { return s.history }
func (s *Service) Mirror() Mirror                 { return s.mirror }

func (s *Service) Close() error {
	if s.mirror != nil {
		return s.mirror.Close()
	}
	return nil
}
