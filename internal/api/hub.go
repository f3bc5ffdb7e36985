package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signalscan/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// progressEvent is the wire format pushed to subscribers.
type progressEvent struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	TS        string  `json:"ts"`
}

// Hub fans scan progress out to WebSocket subscribers. It implements
// scanner.ProgressSink, so it can be handed straight to the scanner.
type Hub struct {
	m   *metrics.Metrics
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*client]bool
	last    []byte // latest event, replayed to new subscribers
}

// NewHub creates an empty hub; m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		m:       m,
		clients: make(map[*client]bool),
		log:     slog.Default().With(slog.String("component", "ws_hub")),
	}
}

// Report implements scanner.ProgressSink.
func (h *Hub) Report(processed, total int) {
	pct := 0.0
	if total > 0 {
		pct = float64(processed) / float64(total) * 100
	}
	msg, err := json.Marshal(progressEvent{
		Processed: processed,
		Total:     total,
		Percent:   pct,
		TS:        time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow subscriber: drop this update, the next one supersedes it.
		}
	}
	h.mu.Unlock()
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", slog.String("err", err.Error()))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16), hub: h}

	h.mu.Lock()
	h.clients[c] = true
	if h.last != nil {
		c.send <- h.last
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.m != nil {
		h.m.WSProgressClients.Set(float64(n))
	}
	h.log.Info("ws client connected", slog.Int("clients", n))

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.m != nil {
		h.m.WSProgressClients.Set(float64(n))
	}
}

// client is a single WebSocket peer.
type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; its job is pong handling and
// detecting the close.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
