// Package hub fans activity events out to connected dashboard sockets.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types.
const (
	EventInvokeStart    = "invoke_start"
	EventInvokeComplete = "invoke_complete"
	EventInvokeFailed   = "invoke_failed"
	EventClientUpdate   = "client_update"
)

const writeWait = 5 * time.Second

type Event struct {
	Type         string `json:"type"`
	InvocationID string `json:"invocation_id,omitempty"`
	Command      string `json:"command,omitempty"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
	ClientCount  int    `json:"client_count,omitempty"`
}

// Hub owns the set of subscribed sockets. Broadcast never blocks: events are
// queued and written by Run, and dropped when the queue is full.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	events  chan Event
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan Event, 256),
		logger:  logger,
	}
}

// Run writes queued events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case ev := <-h.events:
			h.write(ev)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Dashboard connected", "total_connections", count)
	h.Broadcast(Event{Type: EventClientUpdate, ClientCount: count})
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("Dashboard disconnected", "total_connections", count)
		h.Broadcast(Event{Type: EventClientUpdate, ClientCount: count})
	}
}

// ClientCount returns the number of subscribed sockets.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("Activity event dropped", "type", ev.Type)
	}
}

func (h *Hub) write(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Encode event failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("Broadcast failed", "error", err)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
