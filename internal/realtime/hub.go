// Package realtime pushes committed store state to WebSocket subscribers.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/observ"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames and the occasional keepalive.
	maxMessageSize = 512

	defaultSendBuffer = 32
)

// Event is the frame sent to clients: once on connect and after every
// committed mutation.
type Event struct {
	Type    string       `json:"type"`
	Version uint64       `json:"version"`
	State   models.State `json:"state"`
}

// Source is the store as seen by the hub.
type Source interface {
	Snapshot() (models.State, uint64)
	Subscribe(l store.Listener) func()
}

type frame struct {
	version uint64
	data    []byte
}

type client struct {
	conn *websocket.Conn
	send chan frame
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans state events out to every connected client. A client whose send
// queue is full is disconnected rather than allowed to slow the store down.
type Hub struct {
	source     Source
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	sendBuffer int

	mu          sync.Mutex
	clients     map[*client]struct{}
	unsubscribe func()
}

func NewHub(source Source, logger *zap.Logger) *Hub {
	return &Hub{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// No auth in this service; any origin may watch the state.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuffer: defaultSendBuffer,
		clients:    make(map[*client]struct{}),
	}
}

// Start subscribes the hub to the store. Events are encoded once per commit
// and queued to every client without blocking.
//
// Why is the lock order store, then h.mu, and never the reverse?
//   - Listeners run under the store's write lock and then take h.mu.
//   - If any hub path held h.mu while reading the store, a commit on another
//     goroutine would wait on h.mu while that path waited on the store lock.
//   - So h.mu only guards the client set. Code that needs a snapshot takes
//     it before locking h.mu.
func (h *Hub) Start() {
	unsubscribe := h.source.Subscribe(func(version uint64, state models.State) {
		data, err := encode(version, state)
		if err != nil {
			h.logger.Error("failed to encode state event", zap.Error(err))
			return
		}
		h.broadcast(frame{version: version, data: data})
	})

	h.mu.Lock()
	started := h.unsubscribe != nil
	if !started {
		h.unsubscribe = unsubscribe
	}
	h.mu.Unlock()

	if started {
		unsubscribe()
	}
}

// Close stops listening to the store and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams state events until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan frame, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.register(c)

	// The initial snapshot may be queued behind a newer event; the write
	// pump skips anything older than what it already sent.
	state, version := h.source.Snapshot()
	if data, err := encode(version, state); err == nil {
		h.enqueue(c, frame{version: version, data: data})
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observ.RealtimeClients.Inc()
	h.logger.Debug("state subscriber connected", zap.String("remote", c.remoteAddr()))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.stop()
	observ.RealtimeClients.Dec()
}

func (h *Hub) broadcast(f frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			observ.RealtimeDrops.Inc()
			h.logger.Warn("dropping slow state subscriber", zap.String("remote", c.remoteAddr()))
			h.removeLocked(c)
		}
	}
}

func (h *Hub) enqueue(c *client, f frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- f:
	default:
		observ.RealtimeDrops.Inc()
		h.removeLocked(c)
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("state subscriber read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	var sent uint64
	first := true
	for {
		select {
		case f := <-c.send:
			if !first && f.version <= sent {
				continue
			}
			first = false
			sent = f.version
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

func encode(version uint64, state models.State) ([]byte, error) {
	return json.Marshal(Event{Type: "state", Version: version, State: state})
}
