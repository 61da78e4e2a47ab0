// Package hub implements the connection hub: one WebSocket client per
// connected player, a bounded outbound queue per client with backpressure
// drop, heartbeats, and room-based fan-out (per-table rooms plus a global
// lobby room). A single coordinator goroutine serializes every
// register/unregister/broadcast so room membership is never read or
// written concurrently.
package hub

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"poker-platform/internal/engine"
	"poker-platform/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be less than pongWait
	maxMessageSize = 8192
	outboundQueueSize = 256
)

// Envelope is the wire format for every frame exchanged over the socket.
type Envelope struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// InboundHandler processes one decoded client envelope. Supplied to New by
// the server wiring (cmd/gameserver) so this package stays ignorant of
// request/response shapes.
type InboundHandler func(client *Client, env Envelope)

// Hub coordinates every connected client. Room membership and the client
// registry are owned exclusively by its run goroutine.
type Hub struct {
	log zerolog.Logger

	onInbound InboundHandler

	register   chan *Client
	unregister chan *Client
	joinRoom   chan roomOp
	leaveRoom  chan roomOp
	broadcast  chan roomBroadcast

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	stopCh chan struct{}
}

type roomOp struct {
	room   string
	client *Client
}

type roomBroadcast struct {
	room string
	msg  []byte
}

// New constructs a Hub. onInbound is invoked on each client's own read
// goroutine (see Client.readPump) for every decoded inbound frame.
func New(onInbound InboundHandler, log zerolog.Logger) *Hub {
	return &Hub{
		log:        log.With().Str("component", "hub").Logger(),
		onInbound:  onInbound,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joinRoom:   make(chan roomOp),
		leaveRoom:  make(chan roomOp),
		broadcast:  make(chan roomBroadcast, 64),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		stopCh:     make(chan struct{}),
	}
}

// Run is the hub's single coordinator loop. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopCh:
			return
		case c := <-h.register:
			h.clients[c] = true
			metrics.ConnectedClients.Set(float64(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				for room, members := range h.rooms {
					delete(members, c)
					if len(members) == 0 {
						delete(h.rooms, room)
					}
				}
				close(c.outbound)
				metrics.ConnectedClients.Set(float64(len(h.clients)))
			}
		case op := <-h.joinRoom:
			if h.rooms[op.room] == nil {
				h.rooms[op.room] = make(map[*Client]bool)
			}
			h.rooms[op.room][op.client] = true
		case op := <-h.leaveRoom:
			if members := h.rooms[op.room]; members != nil {
				delete(members, op.client)
				if len(members) == 0 {
					delete(h.rooms, op.room)
				}
			}
		case b := <-h.broadcast:
			for c := range h.rooms[b.room] {
				c.enqueue(b.msg)
			}
		}
	}
}

// Stop halts the coordinator loop. It does not close client connections;
// each one stays open until its own pumps fail.
func (h *Hub) Stop() {
	close(h.stopCh)
}

// Register admits a new client into the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopCh:
	}
}

// Unregister removes a client and drops its outbound queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopCh:
	}
}

// JoinRoom subscribes c to room (a table ID, or the global lobby room).
func (h *Hub) JoinRoom(room string, c *Client) {
	select {
	case h.joinRoom <- roomOp{room: room, client: c}:
	case <-h.stopCh:
	}
}

// LeaveRoom unsubscribes c from room.
func (h *Hub) LeaveRoom(room string, c *Client) {
	select {
	case h.leaveRoom <- roomOp{room: room, client: c}:
	case <-h.stopCh:
	}
}

// BroadcastToRoom fans env out to every client currently subscribed to
// room. Slow clients are dropped at their own queue, never here.
func (h *Hub) BroadcastToRoom(room string, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal broadcast envelope")
		return
	}
	select {
	case h.broadcast <- roomBroadcast{room: room, msg: payload}:
	case <-h.stopCh:
	}
}

// Publish implements table.EventSink, translating an engine event into a
// table-room broadcast envelope.
func (h *Hub) Publish(tableID string, ev engine.Event) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(ev.Type)).Msg("failed to marshal event payload")
		return
	}
	h.BroadcastToRoom(tableID, Envelope{
		Type:      string(ev.Type),
		RoomID:    tableID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}
