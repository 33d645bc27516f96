package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// createTestConnectedClient returns the test's end of a websocket together
// with the *Client the hub sees for the server end.
func createTestConnectedClient(t *testing.T, hub *Hub, timelineID string) (*websocket.Conn, *Client, func()) {
	t.Helper()
	var internalClient *Client
	var createdWg sync.WaitGroup
	createdWg.Add(1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		client := &Client{
			hub:        hub,
			conn:       conn,
			send:       make(chan []byte, 256),
			timelineID: timelineID,
		}
		internalClient = client
		createdWg.Done()
		go client.writePump()
		go client.readPump()
	}))

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	clientWs, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	createdWg.Wait()

	return clientWs, internalClient, func() {
		server.Close()
		clientWs.Close()
	}
}

func readWithin(t *testing.T, ws *websocket.Conn, d time.Duration) (string, error) {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(d))
	_, msg, err := ws.ReadMessage()
	return string(msg), err
}

func TestHub_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	t.Run("Register Client", func(t *testing.T) {
		clientWs, internalClient, cleanup := createTestConnectedClient(t, hub, "")
		defer cleanup()

		if !hub.Register(internalClient) {
			t.Fatal("Expected hub to accept client")
		}
		hub.Broadcast(ctx, []byte("hello"))

		got, err := readWithin(t, clientWs, time.Second)
		if err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		if got != "hello" {
			t.Errorf("Expected message hello, got %s", got)
		}
	})

	t.Run("Unregister Client", func(t *testing.T) {
		_, internalClient, cleanup := createTestConnectedClient(t, hub, "")
		defer cleanup()

		hub.Register(internalClient)
		hub.Unregister(internalClient)

		select {
		case _, ok := <-internalClient.send:
			if ok {
				t.Error("Expected internalClient.send to be closed")
			}
		case <-time.After(time.Second):
			t.Error("Timed out waiting for send channel close")
		}
	})

	t.Run("Timeline Filter", func(t *testing.T) {
		wsA, clientA, cleanupA := createTestConnectedClient(t, hub, "tl-a")
		defer cleanupA()
		wsB, clientB, cleanupB := createTestConnectedClient(t, hub, "tl-b")
		defer cleanupB()

		hub.Register(clientA)
		hub.Register(clientB)

		forA := `{"type":"channel.reordered","payload":{"timelineId":"tl-a"}}`
		hub.Broadcast(ctx, []byte(forA))

		got, err := readWithin(t, wsA, time.Second)
		if err != nil || got != forA {
			t.Errorf("Client A: expected %s, got %s (%v)", forA, got, err)
		}
		if got, err := readWithin(t, wsB, 200*time.Millisecond); err == nil {
			t.Errorf("Client B should not receive other timelines, got %s", got)
		}
	})

	t.Run("Messages Without Timeline Reach Everyone", func(t *testing.T) {
		wsA, clientA, cleanupA := createTestConnectedClient(t, hub, "tl-a")
		defer cleanupA()
		wsAll, clientAll, cleanupAll := createTestConnectedClient(t, hub, "")
		defer cleanupAll()

		hub.Register(clientA)
		hub.Register(clientAll)

		msg := `{"type":"resource.removed","payload":{"resourceId":"r1"}}`
		hub.Broadcast(ctx, []byte(msg))

		for name, ws := range map[string]*websocket.Conn{"filtered": wsA, "unfiltered": wsAll} {
			got, err := readWithin(t, ws, time.Second)
			if err != nil || got != msg {
				t.Errorf("%s: expected %s, got %s (%v)", name, msg, got, err)
			}
		}
	})
}

func TestHub_Stop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	_, internalClient, cleanup := createTestConnectedClient(t, hub, "")
	defer cleanup()
	hub.Register(internalClient)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Hub did not stop")
	}

	if _, ok := <-internalClient.send; ok {
		t.Error("Expected client to be dropped on stop")
	}

	// None of these may block once the hub is gone.
	done := make(chan struct{})
	go func() {
		if hub.Register(internalClient) {
			t.Error("Expected Register to fail after stop")
		}
		hub.Unregister(internalClient)
		hub.Broadcast(context.Background(), []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Hub calls blocked after stop")
	}
}

func TestMessageTimeline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"type":"x","payload":{"timelineId":"tl-1"}}`, "tl-1"},
		{`{"type":"x","payload":{"resourceId":"r"}}`, ""},
		{`not json`, ""},
	}
	for _, tt := range tests {
		if got := messageTimeline([]byte(tt.in)); got != tt.want {
			t.Errorf("messageTimeline(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
