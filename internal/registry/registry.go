// Package registry owns the channel → member mapping for the relay.
// All shared state lives behind one mutex; mutations return the snapshot
// taken under the same lock so broadcasts can never observe a stale list.
package registry

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
)

// ChannelInfo is a read-only view for the lobby API.
type ChannelInfo struct {
	Name        domain.ChannelName `json:"name"`
	MemberCount int                `json:"member_count"`
}

// Registry is a threadsafe in-memory channel membership table.
// Channels are created on first join and reclaimed on last leave.
type Registry struct {
	mu      sync.RWMutex
	order   map[domain.ChannelName][]domain.ConnID
	members map[domain.ConnID]*domain.Member
}

func New() *Registry {
	return &Registry{
		order:   make(map[domain.ChannelName][]domain.ConnID),
		members: make(map[domain.ConnID]*domain.Member),
	}
}

// JoinResult is the outcome of one Join: the post-join snapshot of the
// target channel, and, when the member moved, the channel it left with its
// post-removal snapshot. All snapshots are taken under the mutation lock.
type JoinResult struct {
	Members []domain.Member

	Moved     bool
	Left      domain.ChannelName
	Remaining []domain.Member
}

// Join registers the member in its channel, preserving join order.
// Idempotent: re-joining the same channel is a no-op; joining another
// channel moves the member there, which is a leave of the old channel
// and must be broadcast to it like any other leave.
func (r *Registry) Join(m *domain.Member) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := JoinResult{}
	if prev, ok := r.members[m.ID]; ok {
		if prev.Channel == m.Channel {
			prev.Name = m.Name
			res.Members = r.snapshotLocked(m.Channel)
			return res
		}
		r.removeFromOrderLocked(prev.Channel, m.ID)
		res.Moved = true
		res.Left = prev.Channel
		res.Remaining = r.snapshotLocked(prev.Channel)
	}
	r.members[m.ID] = m
	r.order[m.Channel] = append(r.order[m.Channel], m.ID)
	log.Info().Str("module", "registry").Str("conn", string(m.ID)).Str("channel", string(m.Channel)).Msg("member joined")
	res.Members = r.snapshotLocked(m.Channel)
	return res
}

// Leave removes the member from whichever channel it was in. Returns the
// channel it left and the post-leave snapshot; ok is false when the
// connection was never registered.
func (r *Registry) Leave(id domain.ConnID) (domain.ChannelName, []domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return "", nil, false
	}
	delete(r.members, id)
	r.removeFromOrderLocked(m.Channel, id)
	log.Info().Str("module", "registry").Str("conn", string(id)).Str("channel", string(m.Channel)).Msg("member left")
	return m.Channel, r.snapshotLocked(m.Channel), true
}

// MembersOf returns the channel membership in join order.
func (r *Registry) MembersOf(name domain.ChannelName) []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(name)
}

// ChannelOf reports which channel a connection is registered in.
func (r *Registry) ChannelOf(id domain.ConnID) (domain.ChannelName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return "", false
	}
	return m.Channel, true
}

// Member returns the registration for a connection, if any.
func (r *Registry) Member(id domain.ConnID) (*domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

// Channels lists every live channel with its member count.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChannelInfo, 0, len(r.order))
	for name, ids := range r.order {
		out = append(out, ChannelInfo{Name: name, MemberCount: len(ids)})
	}
	return out
}

func (r *Registry) snapshotLocked(name domain.ChannelName) []domain.Member {
	ids := r.order[name]
	out := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.members[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

func (r *Registry) removeFromOrderLocked(name domain.ChannelName, id domain.ConnID) {
	ids := r.order[name]
	for i, v := range ids {
		if v == id {
			r.order[name] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	// Empty channels are reclaimed so the map does not grow unbounded.
	if len(r.order[name]) == 0 {
		delete(r.order, name)
	}
}
