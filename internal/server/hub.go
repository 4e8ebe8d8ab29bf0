package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/normanking/rigpanel/internal/rig"
)

const (
	writeWait      = 10 * time.Second
	clientSendBuf  = 32
	maxMessageSize = 4096
)

// Hub owns the WebSocket clients. It is the rig.CommandSink: runtime
// commands emitted by the session fan out to every connected client, where
// the renderer ones act on them.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	onMessage    func(data []byte)
	onConnect    func(id string)
	onDisconnect func(id string)
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		log:     logger.With().Str("component", "hub").Logger(),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// SetMessageHandler sets the callback for inbound client messages.
func (h *Hub) SetMessageHandler(fn func(data []byte)) { h.onMessage = fn }

// SetConnectHandlers sets callbacks for client arrival and departure.
func (h *Hub) SetConnectHandlers(onConnect, onDisconnect func(id string)) {
	h.onConnect = onConnect
	h.onDisconnect = onDisconnect
}

// Send implements rig.CommandSink.
func (h *Hub) Send(cmd rig.Command) {
	h.Broadcast(CommandMessage{Type: "cmd", Cmd: cmd})
}

// Broadcast marshals v and queues it to every client. Clients whose send
// buffer is full are dropped; a stalled page must not block the rest.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal broadcast")
		return
	}

	h.mu.RLock()
	stalled := make([]*client, 0)
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.log.Warn().Str("client", c.id).Msg("Dropping stalled client")
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and runs the client's read loop until it
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuf),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("Client connected")
	if h.onConnect != nil {
		h.onConnect(c.id)
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Str("client", c.id).Msg("Client read error")
			}
			return
		}
		if h.onMessage != nil {
			h.onMessage(data)
		}
	}
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug().Err(err).Str("client", c.id).Msg("Client write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, present := h.clients[c.id]
	if present {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()

	if !present {
		return
	}
	c.conn.Close()
	h.log.Info().Str("client", c.id).Msg("Client disconnected")
	if h.onDisconnect != nil {
		h.onDisconnect(c.id)
	}
}

// CloseAll disconnects every client, typically at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
