package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"poker-platform/internal/metrics"
)

// Client wraps one player's WebSocket connection. Reads are decoded and
// dispatched to the hub's InboundHandler; writes are serialized through a
// single writer goroutine draining outbound.
type Client struct {
	PlayerID string

	conn *websocket.Conn
	hub  *Hub
	log  zerolog.Logger

	outbound chan []byte
}

// NewClient wraps conn for playerID and registers it with h.
func NewClient(h *Hub, conn *websocket.Conn, playerID string, log zerolog.Logger) *Client {
	c := &Client{
		PlayerID: playerID,
		conn:     conn,
		hub:      h,
		log:      log.With().Str("component", "hub_client").Str("player_id", playerID).Logger(),
		outbound: make(chan []byte, outboundQueueSize),
	}
	h.Register(c)
	return c
}

// enqueue attempts a non-blocking send to the client's outbound queue.
// A slow or stalled client is dropped rather than letting one laggard
// backpressure the whole broadcast.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.outbound <- msg:
	default:
		metrics.OutboundDropped.WithLabelValues("queue_full").Inc()
		c.log.Warn().Msg("outbound queue full: dropping message and closing slow client")
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Send marshals env and enqueues it for this client only.
func (c *Client) Send(env Envelope) {
	env.Timestamp = time.Now().UnixMilli()
	payload, err := json.Marshal(env)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal envelope")
		return
	}
	c.enqueue(payload)
}

// SendError is a convenience wrapper for protocol-level error replies.
func (c *Client) SendError(code, message string) {
	data, _ := json.Marshal(map[string]string{"code": code, "message": message})
	c.Send(Envelope{Type: "error", Data: data})
}

// Run starts the client's read and write pumps and blocks until the
// connection closes. Call it in its own goroutine per accepted connection.
func (c *Client) Run() {
	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()
	c.readPump()
	<-done
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close reading from client")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.SendError("bad_envelope", "malformed message")
			continue
		}
		env.PlayerID = c.PlayerID
		if c.hub.onInbound != nil {
			c.hub.onInbound(c, env)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
