package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 8
	writeTimeout = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to websocket subscribers. Slow subscribers miss
// messages rather than stalling the broadcaster.
type Hub struct {
	// Welcome, when set, produces the first message for a new subscriber.
	Welcome func() any
	// OnControl receives every control message read from a subscriber.
	OnControl func(Control)

	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	dropped  atomic.Uint64
	log      *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.WithField("component", "hub")
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.Welcome != nil {
		if data, err := json.Marshal(h.Welcome()); err == nil {
			c.send <- data
		}
	}
	h.register(c)
	go c.writeLoop()
	defer h.unregister(c)

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Debug("websocket read failed")
			}
			return
		}
		if h.OnControl != nil {
			h.OnControl(msg)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.WithField("clients", n).Info("subscriber connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	c.conn.Close()
	h.log.WithField("clients", n).Info("subscriber disconnected")
}

func (c *client) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Broadcast encodes v once and queues it for every subscriber.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped counts messages skipped because a subscriber fell behind.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
