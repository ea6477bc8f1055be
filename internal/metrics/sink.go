package metrics

import (
	"sync"
	"time"
)

// Sink receives one record per handled command, for analytics kept outside
// this module.
type Sink interface {
	Record(userID int64, command string, success bool, latency time.Duration)
}

// Entry is a single recorded command outcome.
type Entry struct {
	UserID  int64
	Command string
	Success bool
	Latency time.Duration
}

// MemorySink is an in-process Sink used as the default and in tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(userID int64, command string, success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{
		UserID:  userID,
		Command: command,
		Success: success,
		Latency: latency,
	})
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
