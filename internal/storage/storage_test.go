package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalStorageSaveArtifact(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantBase string
		wantErr  bool
	}{
		{name: "plainName", filename: "final_42.mp4", wantBase: "final_42.mp4"},
		{name: "pathIsFlattened", filename: "../../etc/final_42.mp4", wantBase: "final_42.mp4"},
		{name: "emptyName", filename: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			s := NewLocalStorage(dir)

			path, err := s.SaveArtifact(context.Background(), tt.filename, strings.NewReader("fake video"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveArtifact() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if path != filepath.Join(dir, tt.wantBase) {
				t.Errorf("SaveArtifact() = %q, want %q", path, filepath.Join(dir, tt.wantBase))
			}
			data, _ := os.ReadFile(path)
			if string(data) != "fake video" {
				t.Errorf("file content = %q", data)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 1 {
				t.Errorf("output dir has %d entries, want only the artifact", len(entries))
			}
		})
	}
}

func TestLocalStorageSaveArtifactCancelled(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveArtifact(ctx, "final.mp4", strings.NewReader("data"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SaveArtifact() error = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "final.mp4")); !os.IsNotExist(statErr) {
		t.Error("cancelled save left a file behind")
	}
}

func TestLocalStorageListAndClear(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	old := filepath.Join(dir, "a.mp4")
	_ = os.WriteFile(old, []byte("a"), 0644)
	_ = os.Chtimes(old, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour))
	_ = os.WriteFile(filepath.Join(dir, "b.MOV"), []byte("bb"), 0644)
	_ = os.WriteFile(filepath.Join(dir, historyFile), []byte("[]"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "viralstudio.log"), []byte("log"), 0644)

	artifacts, err := s.ListArtifacts(context.Background())
	if err != nil {
		t.Fatalf("ListArtifacts() error: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("ListArtifacts() = %+v, want 2 videos", artifacts)
	}
	if artifacts[0].Name != "b.MOV" || artifacts[1].Name != "a.mp4" {
		t.Errorf("order = %s, %s, want newest first", artifacts[0].Name, artifacts[1].Name)
	}
	if artifacts[0].Size != 2 {
		t.Errorf("Size = %d, want 2", artifacts[0].Size)
	}

	removed, err := s.Clear(context.Background())
	if err != nil || removed != 2 {
		t.Fatalf("Clear() = %d, %v", removed, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "viralstudio.log")); err != nil {
		t.Error("Clear() removed a non-video file")
	}
}

func TestLocalStorageListMissingDir(t *testing.T) {
	s := NewLocalStorage(filepath.Join(t.TempDir(), "missing"))

	artifacts, err := s.ListArtifacts(context.Background())
	if err != nil || len(artifacts) != 0 {
		t.Errorf("ListArtifacts() = %v, %v, want empty", artifacts, err)
	}
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	h := NewHistory(dir)

	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}

	rec := Record{Topic: "cats", Mode: "MEME", Tier: "pro", URL: "/output/final_42.mp4", VideoPath: "/data/out/final_42.mp4"}
	if err := h.Add(rec); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := h.Update("/output/final_42.mp4", func(r *Record) { r.LocalPath = "out/final_42.mp4" }); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if err := h.Update("/output/missing.mp4", func(*Record) {}); err == nil {
		t.Error("Update() of unknown URL should fail")
	}

	reloaded := NewHistory(dir)
	list := reloaded.List()
	if len(list) != 1 {
		t.Fatalf("reloaded List() = %+v", list)
	}
	if list[0].LocalPath != "out/final_42.mp4" || list[0].CreatedAt.IsZero() {
		t.Errorf("record = %+v", list[0])
	}

	list[0].Topic = "mutated"
	if reloaded.List()[0].Topic != "cats" {
		t.Error("List() should return a copy")
	}

	if err := reloaded.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if NewHistory(dir).Len() != 0 {
		t.Error("history survived Clear()")
	}
}

func TestIsVideo(t *testing.T) {
	tests := map[string]bool{
		"final.mp4":    true,
		"FINAL.MKV":    true,
		"clip.webm":    true,
		"history.json": false,
		"noext":        false,
	}
	for name, want := range tests {
		if got := isVideo(name); got != want {
			t.Errorf("isVideo(%q) = %v, want %v", name, got, want)
		}
	}
}
