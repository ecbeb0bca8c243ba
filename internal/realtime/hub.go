// Package realtime fans seat updates out to websocket clients grouped by
// session.
package realtime

import (
	"context"
	"log/slog"

	"github.com/cinetix/cinema-booking/internal/domain"
	"github.com/cinetix/cinema-booking/internal/event"
)

type sessionMessage struct {
	sessionID int64
	payload   []byte
}

// Hub tracks connected clients per session and serializes all membership
// changes and broadcasts through its run loop.
type Hub struct {
	sessions map[int64]map[*Client]bool

	broadcast  chan sessionMessage
	register   chan *Client
	unregister chan *Client

	bus    *event.Bus
	logger *slog.Logger
}

func NewHub(bus *event.Bus, logger *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[int64]map[*Client]bool),
		broadcast:  make(chan sessionMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        bus,
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			clients, ok := h.sessions[client.sessionID]
			if !ok {
				clients = make(map[*Client]bool)
				h.sessions[client.sessionID] = clients
			}
			clients[client] = true

			h.logger.Debug("realtime client connected", "session_id", client.sessionID, "user_id", client.userID)

		case client := <-h.unregister:
			if clients, ok := h.sessions[client.sessionID]; ok && clients[client] {
				delete(clients, client)
				close(client.send)

				if len(clients) == 0 {
					delete(h.sessions, client.sessionID)
				}

				h.bus.Publish(event.TopicClientDisconnected, domain.ClientDisconnectedEvent{
					UserID:    client.userID,
					SessionID: client.sessionID,
					OriginID:  client.originID,
				})
			}

		case msg := <-h.broadcast:
			for client := range h.sessions[msg.sessionID] {
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer, drop it rather than stall the hub.
					delete(h.sessions[msg.sessionID], client)
					close(client.send)
				}
			}
		}
	}
}

func (h *Hub) closeAll() {
	for sessionID, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, sessionID)
	}
}

// BroadcastToSession queues a message for every client watching the
// session.
func (h *Hub) BroadcastToSession(sessionID int64, payload []byte) {
	h.broadcast <- sessionMessage{sessionID: sessionID, payload: payload}
}
