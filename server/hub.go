package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = time.Second
	// sendBuffer is how many updates a client may lag behind before it is dropped.
	sendBuffer = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans state updates out to every connected websocket client.
// Each client has its own queue and writer goroutine, so Broadcast never waits on the network.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]bool
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Broadcast queues data for all clients, dropping any whose queue is full.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueLocked(c, data)
	}
}

func (h *Hub) enqueueLocked(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Debug("drop slow client")
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

// Serve upgrades the request and registers the client, then queues the
// snapshot returned by initial. Registering first means no update published
// after the snapshot can be missed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial func() ([]byte, error)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	go h.writePump(c)
	defer func() {
		h.remove(c)
		conn.Close()
	}()

	data, err := initial()
	if err != nil {
		h.log.Error("encode initial state", zap.Error(err))
		return
	}
	h.mu.Lock()
	if h.clients[c] {
		h.enqueueLocked(c, data)
	}
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump delivers queued updates until the queue is closed or a write fails.
func (h *Hub) writePump(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("drop client", zap.Error(err))
			h.remove(c)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
		c.conn.Close()
	}
}
