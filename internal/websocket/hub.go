package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/models"
)

// Hub maintains the set of active clients and their channel subscriptions,
// and fans events out to subscribers. Delivery is best-effort at-least-once:
// a client with a full send buffer is dropped and re-syncs over the
// paginated history endpoint after reconnecting.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Channel subscriptions: channel id -> subscribed clients
	rooms map[uuid.UUID]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			log.Printf("Client connected: %s", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for channelID, members := range h.rooms {
					if members[client] {
						delete(members, client)
						if len(members) == 0 {
							delete(h.rooms, channelID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()

			log.Printf("Client disconnected: %s", client.userID)
		}
	}
}

// Subscribe adds the client to a channel's room. A client may be subscribed
// to any number of channels at once.
func (h *Hub) Subscribe(client *Client, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[channelID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[channelID] = members
	}
	members[client] = true
}

// Unsubscribe removes the client from a channel's room without touching its
// other subscriptions.
func (h *Hub) Unsubscribe(client *Client, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[channelID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
}

// Publish delivers an event to every current subscriber of the channel.
// Events from successive Publish calls for one channel reach each
// subscriber in call order.
func (h *Hub) Publish(channelID uuid.UUID, event models.WSMessage) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[channelID] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, skip
		}
	}

	return nil
}

// PublishGlobal delivers an event to every connected client regardless of
// subscriptions. Used for mute/unmute notices, which clients filter by
// user id.
func (h *Hub) PublishGlobal(event models.WSMessage) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, skip
		}
	}

	return nil
}

// SubscriberCount returns the number of clients subscribed to a channel
func (h *Hub) SubscriberCount(channelID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channelID])
}

// OnlineUsers returns the ids of connected users
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool, len(h.clients))
	userIDs := make([]uuid.UUID, 0, len(h.clients))
	for client := range h.clients {
		if !seen[client.userID] {
			seen[client.userID] = true
			userIDs = append(userIDs, client.userID)
		}
	}

	return userIDs
}
