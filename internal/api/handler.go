// Package api exposes the browser operations over HTTP and WebSocket.
//
// Every command runs on the worker pool. Operation errors are reported as
// {"error": "<message>"} carrying the driver's own message.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"pgdeck/internal/browser"
	"pgdeck/internal/driver"
	"pgdeck/internal/hub"
	"pgdeck/internal/worker"
)

// Command names accepted by /invoke.
const (
	CmdConnect   = "pg_connect"
	CmdQuery     = "pg_query"
	CmdGetTables = "pg_get_tables"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingTarget  = errors.New("missing argument connectionString")
	ErrMissingQuery   = errors.New("missing argument query")
)

// Args are the command arguments. Params is used by pg_connect when no
// connection string is given.
type Args struct {
	ConnectionString string                   `json:"connectionString"`
	Query            string                   `json:"query"`
	Params           *driver.ConnectionParams `json:"params,omitempty"`
}

func (a Args) target(allowParams bool) (string, error) {
	if a.ConnectionString != "" {
		return a.ConnectionString, nil
	}
	if allowParams && a.Params != nil {
		return a.Params.ConnectionString(), nil
	}
	return "", ErrMissingTarget
}

type Handler struct {
	svc      *browser.Service
	pool     *worker.Pool
	hub      *hub.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(svc *browser.Service, pool *worker.Pool, h *hub.Hub, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		svc:    svc,
		pool:   pool,
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Invoke runs one command on the pool and waits for its result. The pool's
// context drives the operation; ctx only bounds how long the caller waits.
func (h *Handler) Invoke(ctx context.Context, cmd string, args Args) (any, error) {
	if !knownCommand(cmd) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return h.pool.Do(ctx, cmd, func(poolCtx context.Context) (any, error) {
		return h.dispatch(poolCtx, cmd, args)
	})
}

func knownCommand(cmd string) bool {
	switch cmd {
	case CmdConnect, CmdQuery, CmdGetTables:
		return true
	}
	return false
}

func (h *Handler) dispatch(ctx context.Context, cmd string, args Args) (any, error) {
	switch cmd {
	case CmdConnect:
		target, err := args.target(true)
		if err != nil {
			return nil, err
		}
		return h.svc.Probe(ctx, target), nil

	case CmdQuery:
		target, err := args.target(false)
		if err != nil {
			return nil, err
		}
		if args.Query == "" {
			return nil, ErrMissingQuery
		}
		// The result travels string-encoded; clients parse it themselves.
		return h.svc.ExecuteQuery(ctx, target, args.Query)

	case CmdGetTables:
		target, err := args.target(false)
		if err != nil {
			return nil, err
		}
		return h.svc.Schemas(ctx, target)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

// ObserveInvocations turns worker state changes into activity events.
func ObserveInvocations(h *hub.Hub) worker.Observer {
	return func(inv *worker.Invocation) {
		ev := hub.Event{
			InvocationID: inv.ID,
			Command:      inv.Command,
			Status:       string(inv.Status),
		}
		switch inv.Status {
		case worker.StatusProcessing:
			ev.Type = hub.EventInvokeStart
		case worker.StatusCompleted:
			ev.Type = hub.EventInvokeComplete
			ev.DurationMS = inv.Duration().Milliseconds()
		case worker.StatusFailed:
			ev.Type = hub.EventInvokeFailed
			ev.DurationMS = inv.Duration().Milliseconds()
			if inv.Error != nil {
				ev.Error = inv.Error.Error()
			}
		default:
			return
		}
		h.Broadcast(ev)
	}
}

// HandleHealth reports liveness and pool/hub state.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"dashboard_clients": h.hub.ClientCount(),
	})
}

// HandleEvents subscribes a WebSocket to the activity feed.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Events upgrade failed", "error", err)
		return
	}

	h.hub.Register(conn)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.hub.Unregister(conn)
			return
		}
	}
}

// statusFor maps invocation errors to HTTP statuses. Operation failures are 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
