package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/apache/sunny-website/internal/logging"
	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/validation"
)

const (
	// Time allowed to write a message or get a pong back.
	writeWait = 10 * time.Second

	// Send pings to the browser with this period.
	pingPeriod = 30 * time.Second
)

// Message types sent to the browser.
const (
	MessageReload     = "reload"
	MessageBuildError = "build_error"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected browser tab.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans live reload messages out to every connected client.
type Hub struct {
	clients        map[*Client]struct{}
	clientsMutex   sync.RWMutex
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	allowedOrigins []string
	logger         logging.Logger
	metrics        *monitoring.Metrics
	pingPeriod     time.Duration
	done           chan struct{}
	closed         bool
	closeOnce      sync.Once
}

// NewHub creates a hub accepting connections from allowedOrigins. Entries
// may be full origins or bare host:port pairs.
func NewHub(allowedOrigins []string, logger logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		clients:        make(map[*Client]struct{}),
		broadcast:      make(chan []byte, 16),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		allowedOrigins: allowedOrigins,
		logger:         logger.WithComponent("livereload"),
		metrics:        metrics,
		pingPeriod:     pingPeriod,
		done:           make(chan struct{}),
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if err := validation.ValidateOrigin(origin, h.allowedOrigins); err != nil {
		h.logger.Warn(r.Context(), err, "Rejected live reload connection", "origin", logging.SanitizeForLog(origin))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// The origin was checked above against our own list.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Error(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.writePump()
	client.readPump()
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is dropped since a later reload supersedes it.
func (h *Hub) Broadcast(msg UpdateMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), err, "Failed to marshal message")
		data = []byte(`{"type":"reload"}`)
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Debug(context.Background(), "Broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clientsMutex.Lock()
			if h.closed {
				h.clientsMutex.Unlock()
				close(client.send)
				continue
			}
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.clientsMutex.Unlock()
			h.metrics.SetReloadClients(count)
			h.logger.Debug(ctx, "Client connected", "client", client.id, "total", count)

		case client := <-h.unregister:
			h.remove(ctx, client)

		case message := <-h.broadcast:
			h.clientsMutex.RLock()
			var failed []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					failed = append(failed, client)
				}
			}
			h.clientsMutex.RUnlock()
			h.metrics.IncReloads()

			for _, client := range failed {
				h.remove(ctx, client)
			}
		}
	}
}

func (h *Hub) remove(ctx context.Context, client *Client) {
	h.clientsMutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.clientsMutex.Unlock()

	if ok {
		h.metrics.SetReloadClients(count)
		h.logger.Debug(ctx, "Client disconnected", "client", client.id, "total", count)
	}
}

// Close disconnects every client. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.clientsMutex.Lock()
		h.closed = true
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.clientsMutex.Unlock()
		h.metrics.SetReloadClients(0)
	})
}

// readPump waits until the connection drops. Browsers never send data, so
// the connection is read only for control frames; a data message closes it.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := c.conn.CloseRead(context.Background())
	<-ctx.Done()
}

// writePump forwards queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(context.Background(), "WebSocket write failed", "client", c.id, "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
