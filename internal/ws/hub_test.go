package ws

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/telemetry"
)

func newTestClient() *Client {
	return &Client{
		conn:   nil, // Not needed for hub tests
		remote: "127.0.0.1:12345",
		send:   make(chan Message, 256),
		logger: zap.NewNop(),
	}
}

func TestRegister_and_unregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient()

	hub.Register(client)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}

	hub.Unregister(client)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel not closed after unregister")
	}
}

func TestUnregister_twice_is_safe(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient()

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)
}

func TestBroadcast_reaches_all_clients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	clients := []*Client{newTestClient(), newTestClient(), newTestClient()}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.Broadcast(Message{Type: "scan_start", Timestamp: time.Now()})

	for i, c := range clients {
		select {
		case got := <-c.send:
			if got.Type != "scan_start" {
				t.Errorf("client %d got type %q, want scan_start", i, got.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive the broadcast", i)
		}
	}
}

func TestBroadcast_drops_when_client_buffer_full(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient()
	hub.Register(client)

	for i := 0; i < cap(client.send); i++ {
		client.send <- Message{Type: "filler"}
	}

	// Must not block on the wedged client.
	hub.Broadcast(Message{Type: "dropped"})

	if got := len(client.send); got != cap(client.send) {
		t.Errorf("buffer length = %d, want %d", got, cap(client.send))
	}
	if got := <-client.send; got.Type != "filler" {
		t.Errorf("got type %q, want filler", got.Type)
	}
}

func TestBroadcastEvent_wraps_telemetry(t *testing.T) {
	h := NewHandler(zap.NewNop())
	client := newTestClient()
	h.Hub().Register(client)

	h.BroadcastEvent(telemetry.ClientIfaceCreated{IfaceID: 1})

	select {
	case got := <-client.send:
		if got.Type != "client_iface_created" {
			t.Errorf("type = %q, want client_iface_created", got.Type)
		}
		ev, ok := got.Data.(telemetry.ClientIfaceCreated)
		if !ok || ev.IfaceID != 1 {
			t.Errorf("data = %+v", got.Data)
		}
		if got.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no message broadcast")
	}
}

func TestHub_concurrent_use(t *testing.T) {
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestClient()
			hub.Register(c)
			go func() {
				for range c.send {
				}
			}()
			time.Sleep(5 * time.Millisecond)
			hub.Unregister(c)
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Message{Type: "scan_start"})
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d after all clients left, want 0", got)
	}
}
