package ptt

import (
	"sync"

	"github.com/vokitoky/vokitoky/internal/domain"
)

// LogBook is the append-only, insertion-ordered trail of session activity.
type LogBook struct {
	mu       sync.Mutex
	entries  []domain.LogEntry
	onAppend func(domain.LogEntry)
}

func NewLogBook() *LogBook {
	return &LogBook{}
}

// OnAppend registers a single observer, invoked synchronously for every
// entry. Set it before the session starts producing.
func (b *LogBook) OnAppend(fn func(domain.LogEntry)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onAppend = fn
}

func (b *LogBook) System(msg string) {
	b.append(domain.NewLogEntry(domain.LogSystem, msg))
}

func (b *LogBook) Error(msg string) {
	b.append(domain.NewLogEntry(domain.LogError, msg))
}

func (b *LogBook) Voice(msg, sender, transcription string) {
	e := domain.NewLogEntry(domain.LogVoice, msg)
	e.Sender = sender
	e.Transcription = transcription
	b.append(e)
}

// Entries returns a copy of the trail in insertion order.
func (b *LogBook) Entries() []domain.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *LogBook) append(e domain.LogEntry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	fn := b.onAppend
	b.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}
