package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are restricted by the CORS middleware
	},
}

// Client is one websocket connection bound to an authenticated identity
type Client struct {
	Identity models.Identity
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

// Hub maintains the set of active clients and routes parcel events to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns client registration until ctx is cancelled, then drops every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.WithFields(logger.Fields{"identity": client.Identity.String()}).Debug("Websocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.log.WithFields(logger.Fields{"identity": client.Identity.String()}).Debug("Websocket client disconnected")

		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// ConnectedClients returns the number of connected clients
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// broadcast queues the message on every client accepted by match; full buffers are skipped
func (h *Hub) broadcast(message []byte, match func(models.Identity) bool) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	delivered := 0
	for client := range h.clients {
		if !match(client.Identity) {
			continue
		}
		select {
		case client.Send <- message:
			delivered++
		default:
			h.log.WithFields(logger.Fields{"identity": client.Identity.String()}).Warn("Websocket send buffer full, dropping message")
		}
	}
	return delivered
}

// BroadcastToIdentity sends a message to every socket of one identity
func (h *Hub) BroadcastToIdentity(identity models.Identity, message []byte) int {
	return h.broadcast(message, func(id models.Identity) bool { return id == identity })
}

// BroadcastToKind sends a message to every socket of one identity kind
func (h *Hub) BroadcastToKind(kind models.IdentityKind, message []byte) int {
	return h.broadcast(message, func(id models.Identity) bool { return id.Kind == kind })
}

// WebSocketMessage is the envelope for every frame the hub writes
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NotifyParcelStatus delivers the event to the owner and to every connected admin
func (h *Hub) NotifyParcelStatus(_ context.Context, event ParcelStatusEvent) error {
	data, err := json.Marshal(WebSocketMessage{Type: event.Type, Data: event})
	if err != nil {
		return err
	}

	owner := models.UserIdentity(event.UserID)
	h.broadcast(data, func(id models.Identity) bool {
		return id == owner || id.IsAdmin()
	})
	return nil
}

// HandleWebSocket upgrades the request and attaches the connection to the hub
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, identity models.Identity) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.WithFields(logger.Fields{"error": err.Error()}).Warn("Websocket upgrade failed")
		return
	}

	client := &Client{
		Identity: identity,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		Hub:      hub,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains incoming frames until the connection closes. Clients only listen.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithFields(logger.Fields{"identity": c.Identity.String(), "error": err.Error()}).Warn("Websocket read error")
			}
			return
		}
	}
}

// writePump writes queued messages to the connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.Hub.log.WithFields(logger.Fields{"identity": c.Identity.String(), "error": err.Error()}).Warn("Websocket write error")
			return
		}
	}

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
