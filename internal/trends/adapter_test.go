package trends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"viralstudio/internal/app/model"
	"viralstudio/internal/backend"
	"viralstudio/internal/logstream"
)

type fakeSource struct {
	entries []model.TrendEntry
	err     error
	panics  bool
	calls   int
}

func (f *fakeSource) Trends(_ context.Context) ([]model.TrendEntry, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	return f.entries, f.err
}

func quietStream() *logstream.Stream {
	return logstream.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadSuccess(t *testing.T) {
	src := &fakeSource{entries: []model.TrendEntry{
		{Topic: "Bitcoin Crash", Category: "crypto"},
		{Topic: "Nvidia Earnings", Category: "Stocks"},
		{Topic: "Elon Musk Tweet", Category: "celebrity"},
		{Topic: "Fed Rate Cut"},
	}}
	log := quietStream()

	got := NewAdapter(src, log, 0).Load(context.Background())

	want := []Suggestion{
		{Topic: "Bitcoin Crash", Category: "crypto", Group: GroupCrypto},
		{Topic: "Nvidia Earnings", Category: "Stocks", Group: GroupStocks},
		{Topic: "Elon Musk Tweet", Category: "celebrity", Group: GroupNone},
		{Topic: "Fed Rate Cut", Group: GroupNone},
	}

	if len(got) != len(want) {
		t.Fatalf("Load() returned %d suggestions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
	if log.Len() != 0 {
		t.Errorf("successful load should not log, got %d entries", log.Len())
	}
}

func TestLoadTruncates(t *testing.T) {
	entries := make([]model.TrendEntry, 40)
	for i := range entries {
		entries[i] = model.TrendEntry{Topic: fmt.Sprintf("topic %d", i)}
	}

	got := NewAdapter(&fakeSource{entries: entries}, quietStream(), 0).Load(context.Background())

	if len(got) != DefaultMaxSuggestions {
		t.Fatalf("Load() returned %d suggestions, want %d", len(got), DefaultMaxSuggestions)
	}
	if got[14].Topic != "topic 14" {
		t.Errorf("last suggestion = %q, want topic 14", got[14].Topic)
	}
}

func TestLoadFailureDegradesToOffline(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{name: "transportError", src: &fakeSource{err: errors.New("connection refused")}},
		{name: "sourcePanics", src: &fakeSource{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := quietStream()

			got := NewAdapter(tt.src, log, 0).Load(context.Background())

			if len(got) != 1 {
				t.Fatalf("Load() returned %d suggestions, want exactly 1 placeholder", len(got))
			}
			if !got[0].Offline || got[0].Label() != OfflineLabel {
				t.Errorf("placeholder = %+v, label %q", got[0], got[0].Label())
			}

			entries := log.Entries()
			if len(entries) != 1 || entries[0].Severity != logstream.SeverityError {
				t.Errorf("expected one error entry, got %+v", entries)
			}
		})
	}
}

func TestLoadFailingBackendMakesOneRequest(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL})
	got := NewAdapter(client, quietStream(), 0).Load(context.Background())

	if len(got) != 1 || !got[0].Offline {
		t.Fatalf("Load() = %+v, want offline placeholder", got)
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("GET requests = %d, want 1", n)
	}
}

func TestNormalizeBareAndObjectEntriesMatch(t *testing.T) {
	bare := Normalize([]model.TrendEntry{{Topic: "Solana Breakout"}}, 15)
	object := Normalize([]model.TrendEntry{{Topic: "Solana Breakout", Category: ""}}, 15)

	if len(bare) != 1 || len(object) != 1 || bare[0] != object[0] {
		t.Errorf("bare %+v and object %+v should be identical", bare, object)
	}
}

func TestNormalizeSkipsBlankTopics(t *testing.T) {
	got := Normalize([]model.TrendEntry{{Topic: "  "}, {Topic: " Housing Market Bubble "}}, 15)

	if len(got) != 1 || got[0].Topic != "Housing Market Bubble" {
		t.Errorf("Normalize() = %+v", got)
	}
}

func TestSuggestionLabel(t *testing.T) {
	if got := (Suggestion{Topic: "Crypto Regulation"}).Label(); got != "Crypto Regulation" {
		t.Errorf("Label() = %q", got)
	}
	if got := OfflinePlaceholder().Label(); got != OfflineLabel {
		t.Errorf("placeholder Label() = %q", got)
	}
}
