package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
)

// SignalConn abstracts the per-connection messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConn interface {
	TrySend([]byte) error
	Close()
}

type sessionEntry struct {
	Conn   SignalConn
	Cancel context.CancelFunc
}

// SessionTable maps live connections to their transport endpoints.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[domain.ConnID]*sessionEntry)}
}

func (t *SessionTable) Bind(id domain.ConnID, conn SignalConn, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "relay.sessions").Str("conn", string(id)).Msg("bound session")
}

func (t *SessionTable) Get(id domain.ConnID) (SignalConn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.sessions[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (t *SessionTable) Unbind(id domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
	log.Info().Str("module", "relay.sessions").Str("conn", string(id)).Msg("unbind session")
}

// Cancel tears down a session by cancelling its pump context; the transport
// adapter owns the actual close.
func (t *SessionTable) Cancel(id domain.ConnID) bool {
	t.mu.RLock()
	e, ok := t.sessions[id]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "relay.sessions").Str("conn", string(id)).Msg("canceled session")
	return true
}
