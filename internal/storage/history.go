package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const historyFile = "history.json"

// Record describes one finished production.
type Record struct {
	Topic     string    `json:"topic"`
	Mode      string    `json:"content_mode"`
	Tier      string    `json:"model_tier"`
	URL       string    `json:"url"`
	VideoPath string    `json:"video_path"`
	LocalPath string    `json:"local_path,omitempty"`
	MirrorURI string    `json:"mirror_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// History is an append-only list of finished jobs kept next to the downloads.
type History struct {
	records  []Record
	mu       sync.RWMutex
	dataFile string
}

func NewHistory(dataDir string) *History {
	h := &History{dataFile: filepath.Join(dataDir, historyFile)}
	h.load()
	return h
}

func (h *History) Add(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	h.records = append(h.records, rec)
	return h.save()
}

// Update replaces the newest record with the same URL.
func (h *History) Update(url string, fn func(*Record)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].URL == url {
			fn(&h.records[i])
			return h.save()
		}
	}
	return fmt.Errorf("no history record for %s", url)
}

func (h *History) List() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Record, len(h.records))
	copy(result, h.records)
	return result
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
	if err := os.Remove(h.dataFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history: %w", err)
	}
	return nil
}

func (h *History) load() {
	data, err := os.ReadFile(h.dataFile)
	if err != nil {
		return
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	h.records = records
}

func (h *History) save() error {
	data, err := json.MarshalIndent(h.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.dataFile), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(h.dataFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
