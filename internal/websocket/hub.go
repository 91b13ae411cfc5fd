package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/mwalther/equipcore/internal/models"
)

// Hub fans lifecycle history events out to connected dashboard clients.
// The orchestrator publishes only after the transaction committed.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("📡 Event feed client connected: %s", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("📴 Event feed client disconnected: %s", client.id)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead; drop the message for
					// this client rather than blocking the feed.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish implements assets.EventSink: it broadcasts one committed
// history event to all connected clients.
func (h *Hub) Publish(event models.HistoryEvent) {
	msg, err := json.Marshal(map[string]interface{}{
		"type":  "history",
		"event": event,
	})
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		// Feed congested; the event is still durable in the ledger.
	}
}
