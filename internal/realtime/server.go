package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const broadcastChannel = "broadcast"

type Server struct {
	hub      *Hub
	rdb      *redis.Client
	upgrader websocket.Upgrader
}

// NewServer wires the hub to Redis. allowedOrigin restricts websocket
// origins; empty accepts any origin.
func NewServer(hub *Hub, rdb *redis.Client, allowedOrigin string) *Server {
	allowedOrigin = strings.TrimRight(strings.TrimSpace(allowedOrigin), "/")
	return &Server{
		hub: hub,
		rdb: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return strings.TrimRight(r.Header.Get("Origin"), "/") == allowedOrigin
			},
		},
	}
}

// RunRedisSubscriber forwards every broadcast message to the hub until ctx
// ends.
func (s *Server) RunRedisSubscriber(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, broadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.hub.Broadcast(ctx, []byte(msg.Payload))
		}
	}
}

// HandleWS upgrades an editor connection. ?timelineId= narrows the stream
// to one timeline.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("timeline-service: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:        s.hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		timelineID: strings.TrimSpace(r.URL.Query().Get("timelineId")),
	}

	welcome := map[string]any{
		"type": "welcome",
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
