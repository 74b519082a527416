package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket clients and routes messages.
type Hub struct {
	// clients maps userID → client. The run loop owns registration, but
	// per-user and presence sends arrive from request goroutines, so every
	// access goes through mu. Channel closes happen under the write lock and
	// sends under at least the read lock, so a send can never hit a channel
	// mid-close.
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	conversationID uuid.UUID
	data           []byte
	excludeID      *uuid.UUID // optional: skip this user (e.g. sender)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("ws hub: user %s connected (%d total)", client.userID, total)

			h.broadcastPresence(client.userID, "online")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.userID]
			if ok {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
			}
			total := len(h.clients)
			h.mu.Unlock()
			if ok {
				log.Printf("ws hub: user %s disconnected (%d total)", client.userID, total)

				h.broadcastPresence(client.userID, "offline")
			}

		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.clients {
				// Skip excluded user
				if msg.excludeID != nil && client.userID == *msg.excludeID {
					continue
				}
				// Only send to clients subscribed to this conversation
				if !client.IsSubscribed(msg.conversationID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.send)
					close(client.done)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToConversation sends an event to all subscribers of a conversation.
func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, event *Event, excludeUserID *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.broadcast <- &broadcastMsg{
		conversationID: conversationID,
		data:           data,
		excludeID:      excludeUserID,
	}
}

// BroadcastToUser sends an event directly to a specific user.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.send <- data:
		default:
		}
	}
}

// broadcastPresence sends online/offline to all connected clients.
func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypePresence, nil, PresencePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.userID == userID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}
