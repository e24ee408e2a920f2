// Package notify pushes server-side events to connected admin panels over
// WebSocket. The front-end subscribes once after login and refreshes its audit
// trail view whenever an "audit.recorded" event arrives, instead of polling.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/safego"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/telemetry"
)

const (
	// writeWait is the deadline for a single write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings arrive in time.
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the per-client outbound queue. A client that cannot
	// drain its queue is disconnected rather than blocking the hub.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The admin panel is served from a separate origin in development.
	// Authentication happens via the JWT middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the wire format for every message pushed to clients.
type Event struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast events out to every connected WebSocket client.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a hub and starts its dispatch loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
	safego.Go(h.run)
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			telemetry.WSClientsConnected.Set(float64(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				telemetry.WSClientsConnected.Set(float64(len(h.clients)))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			telemetry.WSClientsConnected.Set(float64(len(h.clients)))
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			telemetry.WSClientsConnected.Set(0)
			return
		}
	}
}

// Broadcast sends an event to all connected clients. It never blocks: if the
// hub's queue is full the event is dropped with a warning, because audit
// notifications are a refresh hint and the data itself is already persisted.
func (h *Hub) Broadcast(event string, payload any) {
	msg, err := json.Marshal(Event{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("notify: failed to marshal event", "event", event, "error", err)
		return
	}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		slog.Warn("notify: broadcast queue full, dropping event", "event", event)
	}
}

// Close disconnects all clients and stops the dispatch loop.
func (h *Hub) Close() {
	close(h.done)
}

// ServeWS upgrades the request to a WebSocket connection and registers the
// client with the hub. Mount it behind the auth middleware.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("notify: websocket upgrade failed", "error", err, "remote", c.ClientIP())
		return
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- cl

	safego.Go(cl.writePump)
	safego.Go(cl.readPump)
}

// readPump discards inbound messages and watches for pongs. The protocol is
// server-to-client only, but a read loop is still required to process control
// frames and detect closed connections.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
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
