package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactStore keeps a copy of a finished render.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, name string, r io.Reader) (string, error)
	ListArtifacts(ctx context.Context) ([]ArtifactInfo, error)
}

var (
	_ ArtifactStore = (*LocalStorage)(nil)
	_ ArtifactStore = (*GCSStorage)(nil)
)

type ArtifactInfo struct {
	Name     string
	Location string
	Size     int64
	Modified time.Time
}

func isVideo(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".mkv", ".webm":
		return true
	}
	return false
}
