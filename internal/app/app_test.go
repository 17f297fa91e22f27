package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"viralstudio/internal/app/model"
	"viralstudio/internal/backend"
	"viralstudio/internal/logstream"
	"viralstudio/internal/storage"
	"viralstudio/internal/workflow"
	"viralstudio/pkg/config"
)

type mockMirror struct {
	uploaded []string
	err      error
	closed   bool
}

func (m *mockMirror) Upload(_ context.Context, localPath string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploaded = append(m.uploaded, localPath)
	return "gs://bucket/renders/" + filepath.Base(localPath), nil
}

func (m *mockMirror) SaveArtifact(_ context.Context, name string, _ io.Reader) (string, error) {
	return "gs://bucket/renders/" + name, m.err
}

func (m *mockMirror) ListArtifacts(_ context.Context) ([]storage.ArtifactInfo, error) {
	return nil, nil
}

func (m *mockMirror) Close() error {
	m.closed = true
	return nil
}

func newBackendServer(t *testing.T, scriptStatus int) (*httptest.Server, *[]model.VideoRequest) {
	t.Helper()
	var videos []model.VideoRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/generate_script", func(w http.ResponseWriter, r *http.Request) {
		if scriptStatus != http.StatusOK {
			w.WriteHeader(scriptStatus)
			_, _ = w.Write([]byte(`{"detail":"Failed to generate script"}`))
			return
		}
		_, _ = w.Write([]byte(`{"script":"Cats are liquid.","visual_prompts":[{"id":1}]}`))
	})
	mux.HandleFunc("/generate_video", func(w http.ResponseWriter, r *http.Request) {
		var req model.VideoRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		videos = append(videos, req)
		_, _ = w.Write([]byte(`{"video_path":"/data/out/final_42.mp4"}`))
	})
	mux.HandleFunc("/output/final_42.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp4 bytes"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &videos
}

func newTestService(t *testing.T, serverURL string, mirror Mirror) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Backend.BaseURL = serverURL
	cfg.Output.Dir = dir

	opts := ServiceOptions{
		Config:  cfg,
		Backend: backend.NewClient(backend.Config{BaseURL: serverURL}),
		Log:     logstream.New(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Storage: storage.NewLocalStorage(dir),
		History: storage.NewHistory(dir),
	}
	if mirror != nil {
		opts.Mirror = mirror
	}
	return NewService(opts)
}

func TestNewServiceDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.DefaultMode = "news"

	svc := NewService(ServiceOptions{Config: cfg})

	if svc.Config() != cfg {
		t.Error("Config() returned wrong config")
	}
	if svc.Machine() == nil || svc.Log() == nil {
		t.Fatal("machine and log should always be built")
	}
	if svc.Machine().State().Mode != model.ModeNews {
		t.Errorf("Mode = %s, want NEWS", svc.Machine().State().Mode)
	}
	if svc.Trends() != nil {
		t.Error("Trends() should be nil without a backend")
	}
	if svc.Mirror() != nil {
		t.Error("Mirror() should be nil when not configured")
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestRunOnce(t *testing.T) {
	server, videos := newBackendServer(t, http.StatusOK)
	mirror := &mockMirror{}
	svc := newTestService(t, server.URL, mirror)

	var opened string
	orig := openURL
	openURL = func(u string) error { opened = u; return nil }
	t.Cleanup(func() { openURL = orig })

	result, err := NewPipeline(svc).RunOnce(context.Background(), OnceRequest{
		Topic:    "cats",
		Mode:     model.ModeMeme,
		Tier:     model.TierPro,
		Download: true,
		Open:     true,
	})
	if err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	if result.Script != "Cats are liquid." {
		t.Errorf("Script = %q", result.Script)
	}
	if result.Artifact.URL != "/output/final_42.mp4" {
		t.Errorf("Artifact.URL = %q", result.Artifact.URL)
	}
	if len(*videos) != 1 || (*videos)[0].ModelTier != model.TierPro || (*videos)[0].Script != "Cats are liquid." {
		t.Errorf("video requests = %+v", *videos)
	}

	wantLocal := filepath.Join(svc.Config().Output.Dir, "final_42.mp4")
	if result.Delivery.LocalPath != wantLocal {
		t.Errorf("LocalPath = %q, want %q", result.Delivery.LocalPath, wantLocal)
	}
	data, _ := os.ReadFile(wantLocal)
	if string(data) != "mp4 bytes" {
		t.Errorf("downloaded content = %q", data)
	}
	if result.Delivery.MirrorURI != "gs://bucket/renders/final_42.mp4" {
		t.Errorf("MirrorURI = %q", result.Delivery.MirrorURI)
	}
	if opened != server.URL+"/output/final_42.mp4" {
		t.Errorf("opened %q", opened)
	}

	records := svc.History().List()
	if len(records) != 1 {
		t.Fatalf("history = %+v", records)
	}
	if records[0].Topic != "cats" || records[0].Tier != "pro" || records[0].LocalPath != wantLocal || records[0].MirrorURI == "" {
		t.Errorf("record = %+v", records[0])
	}

	st := svc.Machine().State()
	if st.Stage != workflow.StageIdle || st.Draft != nil || !st.ResultVisible {
		t.Errorf("final state = %+v", st)
	}
}

func TestRunOnceSwitchesMode(t *testing.T) {
	server, videos := newBackendServer(t, http.StatusOK)
	svc := newTestService(t, server.URL, nil)

	if _, err := NewPipeline(svc).RunOnce(context.Background(), OnceRequest{
		Topic: "rates",
		Mode:  model.ModeNews,
		Tier:  model.TierBudget,
	}); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	if svc.Machine().State().Mode != model.ModeNews {
		t.Errorf("Mode = %s, want NEWS", svc.Machine().State().Mode)
	}
	if (*videos)[0].ContentMode != model.ModeNews {
		t.Errorf("ContentMode = %s", (*videos)[0].ContentMode)
	}
}

func TestRunOnceTrimsTopic(t *testing.T) {
	server, videos := newBackendServer(t, http.StatusOK)
	svc := newTestService(t, server.URL, nil)

	if _, err := NewPipeline(svc).RunOnce(context.Background(), OnceRequest{
		Topic: "  cats ",
		Mode:  model.ModeMeme,
		Tier:  model.TierBudget,
	}); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	if got := (*videos)[0].Topic; got != "cats" {
		t.Errorf("video request topic = %q, want cats", got)
	}
	if got := svc.History().List()[0].Topic; got != "cats" {
		t.Errorf("history topic = %q, want cats", got)
	}
}

func TestRunOnceScriptFailure(t *testing.T) {
	server, videos := newBackendServer(t, http.StatusInternalServerError)
	svc := newTestService(t, server.URL, nil)

	_, err := NewPipeline(svc).RunOnce(context.Background(), OnceRequest{
		Topic: "cats",
		Mode:  model.ModeMeme,
		Tier:  model.TierPro,
	})

	var sErr *workflow.ServiceError
	if !errors.As(err, &sErr) || sErr.Detail != "Failed to generate script" {
		t.Fatalf("RunOnce() error = %v, want ServiceError", err)
	}
	if len(*videos) != 0 {
		t.Error("video assembly should not run after script failure")
	}
	if svc.History().Len() != 0 {
		t.Error("failed job should not be recorded")
	}
}

func TestDeliverDownloadFailure(t *testing.T) {
	server, _ := newBackendServer(t, http.StatusOK)
	svc := newTestService(t, server.URL, nil)

	delivery, err := NewPipeline(svc).Deliver(context.Background(), DeliverRequest{
		Artifact: model.NewArtifact(model.DefaultArtifactPrefix, "/data/out/missing.mp4"),
		Topic:    "cats",
		Mode:     model.ModeMeme,
		Tier:     model.TierVeo,
		Download: true,
	})

	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Deliver() error = %v, want 404 APIError", err)
	}
	if delivery == nil || delivery.LocalPath != "" {
		t.Errorf("delivery = %+v", delivery)
	}

	records := svc.History().List()
	if len(records) != 1 || records[0].LocalPath != "" {
		t.Errorf("history = %+v, want record without local path", records)
	}

	entries := svc.Log().Entries()
	last := entries[len(entries)-1]
	if last.Severity != logstream.SeverityError {
		t.Errorf("last log = %+v, want error", last)
	}
}

func TestDeliverMirrorFailureKeepsLocalCopy(t *testing.T) {
	server, _ := newBackendServer(t, http.StatusOK)
	svc := newTestService(t, server.URL, &mockMirror{err: errors.New("bucket not found")})

	delivery, err := NewPipeline(svc).Deliver(context.Background(), DeliverRequest{
		Artifact: model.NewArtifact(model.DefaultArtifactPrefix, "final_42.mp4"),
		Download: true,
	})
	if err == nil {
		t.Fatal("Deliver() error = nil, want mirror error")
	}
	if delivery.LocalPath == "" {
		t.Error("local copy should be kept when mirroring fails")
	}
	if got := svc.History().List()[0].LocalPath; got != delivery.LocalPath {
		t.Errorf("history LocalPath = %q, want %q", got, delivery.LocalPath)
	}
}

func TestDeliverWithoutArtifact(t *testing.T) {
	svc := NewService(ServiceOptions{})
	if _, err := NewPipeline(svc).Deliver(context.Background(), DeliverRequest{}); !errors.Is(err, ErrNothingProduced) {
		t.Errorf("Deliver() error = %v, want ErrNothingProduced", err)
	}
}

func TestServiceCloseClosesMirror(t *testing.T) {
	mirror := &mockMirror{}
	svc := NewService(ServiceOptions{Mirror: mirror})

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !mirror.closed {
		t.Error("Close() did not close the mirror")
	}
}
