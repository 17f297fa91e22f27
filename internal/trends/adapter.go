package trends

import (
	"context"
	"log/slog"
	"strings"

	"viralstudio/internal/app/model"
	"viralstudio/internal/logstream"
)

const (
	DefaultMaxSuggestions = 15
	OfflineLabel          = "Offline Mode"
)

// Groups that get their own styling. Anything else is shown ungrouped.
const (
	GroupCrypto  = "crypto"
	GroupStocks  = "stocks"
	GroupMacro   = "macro"
	GroupTech    = "tech"
	GroupGoogle  = "google"
	GroupSocial  = "x"
	GroupNone    = ""
	GroupOffline = "offline"
)

var knownGroups = map[string]bool{
	GroupCrypto: true,
	GroupStocks: true,
	GroupMacro:  true,
	GroupTech:   true,
	GroupGoogle: true,
	GroupSocial: true,
}

type Source interface {
	Trends(ctx context.Context) ([]model.TrendEntry, error)
}

type Suggestion struct {
	Topic    string
	Category string
	Group    string
	Offline  bool
}

func (s Suggestion) Label() string {
	if s.Offline {
		return OfflineLabel
	}
	return s.Topic
}

type Adapter struct {
	source Source
	log    *logstream.Stream
	max    int
}

func NewAdapter(source Source, log *logstream.Stream, maxSuggestions int) *Adapter {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return &Adapter{
		source: source,
		log:    log,
		max:    maxSuggestions,
	}
}

// Load issues one trends read. Any failure degrades to the offline placeholder
// and a single error entry on the log stream.
func (a *Adapter) Load(ctx context.Context) []Suggestion {
	entries, err := a.fetch(ctx)
	if err != nil {
		slog.Warn("Trend fetch failed", "error", err)
		a.log.Error("> Failed to fetch trends.")
		return []Suggestion{OfflinePlaceholder()}
	}

	suggestions := Normalize(entries, a.max)
	slog.Debug("Trends loaded", "count", len(suggestions), "received", len(entries))
	return suggestions
}

func (a *Adapter) fetch(ctx context.Context) (entries []model.TrendEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = &panicError{value: r}
		}
	}()
	return a.source.Trends(ctx)
}

// Normalize maps raw entries to suggestions, dropping blank topics and
// truncating to maxCount.
func Normalize(entries []model.TrendEntry, maxCount int) []Suggestion {
	suggestions := make([]Suggestion, 0, min(len(entries), maxCount))
	for _, entry := range entries {
		if len(suggestions) >= maxCount {
			break
		}

		topic := strings.TrimSpace(entry.Topic)
		if topic == "" {
			continue
		}

		category := strings.TrimSpace(entry.Category)
		suggestions = append(suggestions, Suggestion{
			Topic:    topic,
			Category: category,
			Group:    groupFor(category),
		})
	}
	return suggestions
}

func OfflinePlaceholder() Suggestion {
	return Suggestion{Offline: true, Group: GroupOffline}
}

func groupFor(category string) string {
	key := strings.ToLower(category)
	if knownGroups[key] {
		return key
	}
	return GroupNone
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "trend source panicked"
}
