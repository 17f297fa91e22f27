// Package logstream holds the user-facing activity log of a studio session.
//
// The stream is append-only and ordered by submission. Severity only drives
// presentation; nothing branches on it.
package logstream

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	SeveritySystem  Severity = "system"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Severity string

type Entry struct {
	Seq      int
	Message  string
	Severity Severity
	Time     time.Time
}

type Subscriber func(Entry)

type Stream struct {
	mu          sync.Mutex
	entries     []Entry
	subscribers []Subscriber
	logger      *slog.Logger
	now         func() time.Time
}

func New(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		logger: logger,
		now:    time.Now,
	}
}

func (s *Stream) System(msg string)  { s.Append(msg, SeveritySystem) }
func (s *Stream) Info(msg string)    { s.Append(msg, SeverityInfo) }
func (s *Stream) Success(msg string) { s.Append(msg, SeveritySuccess) }
func (s *Stream) Error(msg string)   { s.Append(msg, SeverityError) }

// Append records msg and notifies subscribers in order. Subscribers run while
// the stream lock is held so two appends can never be observed out of order.
func (s *Stream) Append(msg string, severity Severity) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Seq:      len(s.entries) + 1,
		Message:  msg,
		Severity: severity,
		Time:     s.now(),
	}
	s.entries = append(s.entries, entry)

	s.logger.Log(context.Background(), severity.level(), msg, "severity", string(severity), "seq", entry.Seq)

	for _, sub := range s.subscribers {
		sub(entry)
	}
	return entry
}

func (s *Stream) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

func (s *Stream) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Entry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Tail returns the newest n entries, oldest first.
func (s *Stream) Tail(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return nil
	}
	start := max(len(s.entries)-n, 0)
	result := make([]Entry, len(s.entries)-start)
	copy(result, s.entries[start:])
	return result
}

func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (sev Severity) level() slog.Level {
	switch sev {
	case SeverityError:
		return slog.LevelError
	case SeveritySystem:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
