package realtime

import (
	"context"
	"encoding/json"
)

// Hub owns the connected editors and fans bus messages out to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from Redis.
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// done is closed once Run returns.
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			close(h.done)
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.broadcast:
			timelineID := messageTimeline(message)
			for client := range h.clients {
				if !client.wants(timelineID) {
					continue
				}
				select {
				case client.send <- message:
				default:
					h.drop(client)
				}
			}
		}
	}
}

// Broadcast hands message to the hub. It blocks until the hub takes it or
// ctx ends.
func (h *Hub) Broadcast(ctx context.Context, message []byte) {
	select {
	case h.broadcast <- message:
	case <-ctx.Done():
	case <-h.done:
	}
}

// Register adds client unless the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

// messageTimeline extracts payload.timelineId from a bus envelope, or "".
func messageTimeline(message []byte) string {
	var env struct {
		Payload struct {
			TimelineID string `json:"timelineId"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(message, &env); err != nil {
		return ""
	}
	return env.Payload.TimelineID
}
