// Package relay is the server-side core: it applies join, voice and
// disconnect events to the channel registry and fans the results out to
// every affected session. Events of one connection are handled in arrival
// order by the transport adapter; membership changes and their snapshot
// broadcasts are serialized here so no recipient ever sees a stale list.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/protocol"
	"github.com/vokitoky/vokitoky/internal/registry"
)

// PublishResult reports delivery stats/backpressure for one broadcast.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

type Relay struct {
	Registry *registry.Registry
	Sessions *SessionTable
	Policy   Policy

	// Serializes membership mutation + snapshot fan-out. Voice broadcasts
	// take membership reads only and do not need it.
	mu sync.Mutex
}

func New(reg *registry.Registry, sessions *SessionTable, policy Policy) *Relay {
	return &Relay{Registry: reg, Sessions: sessions, Policy: policy}
}

// HandleJoin registers the connection as a channel member and broadcasts,
// to the whole channel including the joiner, first a user_joined
// notification and then the full active_users snapshot. A member moving
// from another channel leaves it: that channel gets its reduced snapshot
// under the same lock hold, before the new channel hears anything.
func (r *Relay) HandleJoin(id domain.ConnID, name, channel string) error {
	ch, err := domain.ParseChannelName(channel)
	if err != nil {
		return err
	}
	member, err := domain.NewMember(id, name, ch)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.Registry.Join(member)
	if res.Moved {
		r.fanout(res.Remaining, "", activeUsers(res.Remaining), res.Left)
	}
	r.fanout(res.Members, "", protocol.UserJoined{Type: protocol.TypeUserJoined, ID: member.ID, Name: member.Name}, ch)
	r.fanout(res.Members, "", activeUsers(res.Members), ch)
	return nil
}

// HandleVoice relays a transmission to every other member of the sender's
// channel. A voice event from an unregistered connection is dropped
// silently; that is untrusted input, not a reportable error.
func (r *Relay) HandleVoice(id domain.ConnID, audio []byte, transcription string, durationMs int64) {
	sender, ok := r.Registry.Member(id)
	if !ok {
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("voice from unregistered connection dropped")
		return
	}
	msg := domain.NewVoiceMessage(sender, audio, transcription, durationMs)

	members := r.Registry.MembersOf(sender.Channel)
	res := r.fanout(members, sender.ID, protocol.VoiceBroadcast{
		Type:          protocol.TypeVoiceMessage,
		ID:            msg.ID,
		SenderID:      msg.SenderID,
		SenderName:    msg.SenderName,
		Audio:         msg.Audio,
		Transcription: msg.Transcription,
		DurationMs:    msg.DurationMs,
		Timestamp:     msg.SentAt.UnixMilli(),
	}, sender.Channel)
	log.Info().Str("module", "relay").Str("sender", msg.SenderName).Int("sent_to", res.SentTo).Int64("duration_ms", msg.DurationMs).Msg("relayed voice")
}

// HandleDisconnect removes the member and rebroadcasts the reduced
// snapshot. A connection that never joined is a no-op.
func (r *Relay) HandleDisconnect(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions.Unbind(id)
	ch, snapshot, ok := r.Registry.Leave(id)
	if !ok {
		return
	}
	r.fanout(snapshot, "", activeUsers(snapshot), ch)
}

// fanout marshals once and enqueues the frame on every member's session,
// skipping exclude. Recipients without a bound session are skipped too;
// per-recipient order is kept by the session's single writer.
func (r *Relay) fanout(members []domain.Member, exclude domain.ConnID, v any, channel domain.ChannelName) PublishResult {
	res := PublishResult{}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("fanout marshal")
		return res
	}
	for _, m := range members {
		if m.ID == exclude {
			continue
		}
		conn, ok := r.Sessions.Get(m.ID)
		if !ok {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m.ID)
			continue
		}
		res.SentTo++
	}
	if r.Policy != nil {
		for _, slow := range res.Dropped {
			switch r.Policy.OnBackPressure(channel, slow) {
			case KickMember:
				log.Warn().Str("module", "relay").Str("conn", string(slow)).Msg("kicking slow member")
				r.Sessions.Cancel(slow)
			case MarkSlow, DropFrame, NoAction:
			}
		}
	}
	return res
}

func activeUsers(members []domain.Member) protocol.ActiveUsers {
	users := make([]protocol.ActiveUser, 0, len(members))
	for _, m := range members {
		users = append(users, protocol.ActiveUser{ID: m.ID, Name: m.Name, Channel: m.Channel})
	}
	return protocol.ActiveUsers{Type: protocol.TypeActiveUsers, Users: users}
}
