package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message types
const (
	MessageTypeChat  = "chat"
	MessageTypeError = "error"

	// MessageTypeEvict is never delivered to clients; it closes the
	// connections of UserID in the room, or of everyone when UserID is 0.
	MessageTypeEvict = "evict"
)

// Message represents a message sent over WebSocket
type Message struct {
	// Type of message: "chat" or "error"
	Type string `json:"type"`

	// Hub (chat room) this message belongs to
	HubID int64 `json:"hubId"`

	SenderID   int64  `json:"senderId,omitempty"`
	UserID     int64  `json:"userId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	Content    string `json:"content"`

	// Timestamp when the message was stored
	Timestamp time.Time `json:"timestamp"`

	// Message ID from the database
	ID int64 `json:"id,omitempty"`
}

// EvictMessage builds the message that disconnects userID from a hub room.
// A zero userID empties the room.
func EvictMessage(hubID, userID int64) *Message {
	return &Message{Type: MessageTypeEvict, HubID: hubID, UserID: userID, Timestamp: time.Now().UTC()}
}

// Broadcaster delivers messages to every client connected to a hub room
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *Message)
}

// Hub maintains the set of active clients per hub room and broadcasts
// messages to them. Delivery is best effort.
type Hub struct {
	// Registered clients organized by hub ID
	rooms map[int64]map[*Client]bool

	// Inbound messages to fan out
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done     chan struct{}
	doneOnce sync.Once

	// Guards rooms for readers outside the run loop
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) shutdown() {
	h.doneOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for hubID, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, hubID)
	}
	h.logger.Info().Msg("Chat hub stopped")
}

// registerClient registers a new client to its room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.hubID]; !ok {
		h.rooms[client.hubID] = make(map[*Client]bool)
	}
	h.rooms[client.hubID][client] = true

	h.logger.Info().
		Int64("hubID", client.hubID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

// unregisterClient removes a client and closes its send channel
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.hubID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.hubID)
	}

	h.logger.Info().
		Int64("hubID", client.hubID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// broadcastMessage sends a message to all clients in its room. Clients
// whose buffers are full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	if message.Type == MessageTypeEvict {
		h.evict(message.HubID, message.UserID)
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("hubID", message.HubID).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[message.HubID]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Int64("hubID", message.HubID).Int64("userID", client.userID).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Int64("hubID", message.HubID).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to hub")
}

// evict closes the matching clients of a room
func (h *Hub) evict(hubID, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[hubID] {
		if userID == 0 || client.userID == userID {
			h.removeLocked(client)
		}
	}
}

// Disconnect closes userID's connections to a hub room on this instance
func (h *Hub) Disconnect(ctx context.Context, hubID, userID int64) {
	h.Broadcast(ctx, EvictMessage(hubID, userID))
}

// Broadcast queues a message for the clients of its room. It gives up when
// ctx is done or the hub has stopped.
func (h *Hub) Broadcast(ctx context.Context, msg *Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	case <-ctx.Done():
	}
}

// GetClientsCount returns the number of connected clients for a hub room
func (h *Hub) GetClientsCount(hubID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[hubID])
}

func (h *Hub) registerOrDrop(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
