package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and broadcasts auth events to
// them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound event payloads for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Event feed client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Event feed client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastEvent queues an event payload for delivery to all connected
// clients. It never blocks the caller; if the hub is saturated the event is
// dropped (the feed is best-effort diagnostics).
func (h *Hub) BroadcastEvent(message []byte) {
	select {
	case h.Broadcast <- message:
	default:
		log.Warn().Msg("Event feed broadcast queue full, dropping event")
	}
}
