// Package signal carries the relay protocol over websocket connections.
// One read pump and one write pump per connection; the write pump is the
// single writer, so every recipient sees frames in enqueue order.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/relay"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Relay     *relay.Relay
	ReadLimit int64
	Limiter   *VoiceRateLimiter
}

func NewController(r *relay.Relay, readLimit int64) *Controller {
	return &Controller{
		Relay:     r,
		ReadLimit: readLimit,
		Limiter:   NewVoiceRateLimiter(defaultVoiceBurst, defaultVoiceWindow),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Sessions.Bind(id, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn)
}
