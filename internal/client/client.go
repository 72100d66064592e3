// Package client binds a push-to-talk session to a running relay over the
// signal websocket. It mirrors the server adapter: one writer goroutine per
// connection, JSON envelopes, periodic pings.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/protocol"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Events are the inbound callbacks; all are optional. They run on the read
// loop goroutine, one at a time.
type Events struct {
	OnUserJoined  func(id domain.ConnID, name string)
	OnActiveUsers func(users []protocol.ActiveUser)
	OnVoice       func(msg protocol.VoiceBroadcast)
	OnStatus      func(s Status)
}

type Client struct {
	url        string
	events     Events
	pingPeriod time.Duration

	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	status Status
	closed bool
}

func New(url string, pingPeriod time.Duration, events Events) *Client {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Client{
		url:        url,
		events:     events,
		pingPeriod: pingPeriod,
		send:       make(chan []byte, 32),
		status:     StatusDisconnected,
	}
}

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.events.OnStatus != nil {
		c.events.OnStatus(s)
	}
}

// Dial connects to the relay. Run must be called afterwards to start the
// pumps.
func (c *Client) Dial(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setStatus(StatusError)
		return err
	}
	c.conn = conn
	c.setStatus(StatusConnected)
	return nil
}

// Run drives the read loop until the connection drops or ctx is done.
// The write pump runs alongside it.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.writePump(ctx)
	c.readLoop(ctx)
	c.Close()
	c.setStatus(StatusDisconnected)
}

// Join registers this connection in a channel.
func (c *Client) Join(name, channel string) error {
	return c.enqueueJSON(protocol.Join{Type: protocol.TypeJoin, Name: name, Channel: channel})
}

// EmitVoice sends a finished transmission. Implements ptt.Emitter.
func (c *Client) EmitVoice(audio []byte, transcription string, durationMs int64) error {
	return c.enqueueJSON(protocol.Voice{
		Type:          protocol.TypeVoiceMessage,
		Audio:         audio,
		Transcription: transcription,
		DurationMs:    durationMs,
	})
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

func (c *Client) enqueueJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	ping, _ := json.Marshal(protocol.Envelope{Type: protocol.TypePing})

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			if !c.closed {
				select {
				case c.send <- ping:
				default:
				}
			}
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "client").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "client").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "client").Msg("read error")
				}
				return
			}
			c.dispatch(data)
		}
	}
}

func (c *Client) dispatch(data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad json")
		return
	}

	switch env.Type {
	case protocol.TypeUserJoined:
		var p protocol.UserJoined
		if err := json.Unmarshal(data, &p); err == nil && c.events.OnUserJoined != nil {
			c.events.OnUserJoined(p.ID, p.Name)
		}
	case protocol.TypeActiveUsers:
		var p protocol.ActiveUsers
		if err := json.Unmarshal(data, &p); err == nil && c.events.OnActiveUsers != nil {
			c.events.OnActiveUsers(p.Users)
		}
	case protocol.TypeVoiceMessage:
		var p protocol.VoiceBroadcast
		if err := json.Unmarshal(data, &p); err == nil && c.events.OnVoice != nil {
			c.events.OnVoice(p)
		}
	case protocol.TypePong:
		// keep-alive only
	case protocol.TypeError:
		var p protocol.Error
		if err := json.Unmarshal(data, &p); err == nil {
			log.Warn().Str("module", "client").Str("error", p.Error).Msg("relay error")
		}
	default:
		log.Warn().Str("module", "client").Str("type", env.Type).Msg("unknown signal")
	}
}
