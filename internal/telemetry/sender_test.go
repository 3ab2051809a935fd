package telemetry

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSender_delivers_events(t *testing.T) {
	s, events := NewSender(zap.NewNop(), 4)

	s.Send(ScanStart{})
	select {
	case e := <-events:
		if e.Kind() != "scan_start" {
			t.Errorf("got %s, want scan_start", e.Kind())
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestSender_drops_when_full(t *testing.T) {
	s, events := NewSender(zap.NewNop(), 1)

	// Second send overflows the buffer and must not block.
	s.Send(ScanStart{})
	s.Send(RecoveryEvent{})

	if e := <-events; e.Kind() != "scan_start" {
		t.Errorf("got %s, want scan_start", e.Kind())
	}
	select {
	case e := <-events:
		t.Errorf("unexpected second event %s", e.Kind())
	default:
	}
}

func TestService_journals_and_forwards(t *testing.T) {
	j := testJournal(t)
	s, events := NewSender(zap.NewNop(), 4)
	svc := NewService(zap.NewNop(), events, j)

	forwarded := make(chan Event, 4)
	svc.OnEvent = func(e Event) { forwarded <- e }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	s.Send(ClientConnectionsToggle{Enabled: true})

	select {
	case e := <-forwarded:
		if e.Kind() != "client_connections_toggle" {
			t.Errorf("forwarded %s", e.Kind())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event not forwarded")
	}

	count, err := j.CountByKind(context.Background(), "client_connections_toggle")
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if count != 1 {
		t.Errorf("journal count = %d, want 1", count)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestService_stops_when_sender_closes(t *testing.T) {
	events := make(chan Event)
	svc := NewService(zap.NewNop(), events, nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()
	close(events)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on channel close")
	}
}
