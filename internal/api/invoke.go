package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// maxArgsBody bounds a single command payload.
const maxArgsBody = 1 << 20

// HandleInvoke serves POST /invoke/{command}.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	cmd := chi.URLParam(r, "command")

	var args Args
	if err := json.NewDecoder(io.LimitReader(r.Body, maxArgsBody)).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	result, err := h.Invoke(r.Context(), cmd, args)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// rpcRequest is one WebSocket call. ID is echoed back verbatim.
type rpcRequest struct {
	ID   json.RawMessage `json:"id"`
	Cmd  string          `json:"cmd"`
	Args Args            `json:"args"`
}

type rpcReply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// HandleInvokeSocket serves GET /invoke as a WebSocket RPC channel. Calls run
// concurrently; replies may arrive out of order and are matched by id.
func (h *Handler) HandleInvokeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Invoke upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxArgsBody)

	var (
		writeMu  sync.Mutex
		inFlight sync.WaitGroup
	)
	reply := func(msg rpcReply) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("Invoke reply dropped", "error", err)
		}
	}

	ctx := r.Context()
	for {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				msg := "invalid message"
				reply(rpcReply{ID: req.ID, Error: &msg})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Invoke socket closed", "error", err)
			}
			break
		}

		inFlight.Add(1)
		go func(req rpcRequest) {
			defer inFlight.Done()
			result, err := h.Invoke(ctx, req.Cmd, req.Args)
			var data []byte
			if err == nil {
				data, err = json.Marshal(result)
			}
			if err != nil {
				msg := err.Error()
				reply(rpcReply{ID: req.ID, Error: &msg})
				return
			}
			reply(rpcReply{ID: req.ID, Result: data})
		}(req)
	}

	inFlight.Wait()
}
