package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/protocol"
)

func (ctl *Controller) handleJoin(id domain.ConnID, c *WsSignalConn, data []byte) {
	var p protocol.Join
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(c, protocol.Error{Type: protocol.TypeError, Error: "bad_payload"})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("channel", p.Channel).Str("name", p.Name).Msg("join")
	if err := ctl.Relay.HandleJoin(id, p.Name, p.Channel); err != nil {
		ctl.sendJSON(c, protocol.Error{Type: protocol.TypeError, Error: err.Error()})
	}
}

func (ctl *Controller) handleVoice(id domain.ConnID, data []byte) {
	if !ctl.Limiter.Allow(id) {
		// Over-chatty connections are throttled silently, same as
		// transmissions from unregistered ones.
		log.Warn().Str("module", "signal").Str("conn", string(id)).Msg("voice rate limit hit")
		return
	}
	var p protocol.Voice
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad voice payload")
		return
	}
	ctl.Relay.HandleVoice(id, p.Audio, p.Transcription, p.DurationMs)
}

func (ctl *Controller) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, protocol.Envelope{Type: protocol.TypePong})
}
