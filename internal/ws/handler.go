package ws

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/telemetry"
)

// Handler provides the WebSocket endpoint for the live telemetry feed.
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Hub returns the underlying hub, mainly for tests.
func (h *Handler) Hub() *Hub { return h.hub }

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/events", h.handleEventStream)
}

// BroadcastEvent fans one telemetry event out to all connected clients.
// Hook this into the telemetry service's OnEvent.
func (h *Handler) BroadcastEvent(e telemetry.Event) {
	h.hub.Broadcast(Message{
		Type:      e.Kind(),
		Timestamp: time.Now(),
		Data:      e,
	})
}

// handleEventStream upgrades the connection to WebSocket and streams
// telemetry events until the client disconnects.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	// Client disconnected -- stop write pump and unregister.
	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}
