// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const watchWriteTimeout = 5 * time.Second

// WatchHandler upgrades GET /events/{id}/watch to a WebSocket and
// streams refresh notices. Clients refetch the leaderboard when a
// notice arrives; only their first fetch should block their UI.
type WatchHandler struct {
	deps Dependencies
}

// NewWatchHandler creates a new watch handler.
func NewWatchHandler(deps Dependencies) *WatchHandler {
	return &WatchHandler{deps: deps}
}

// HandleWatch handles GET /events/{id}/watch requests.
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.watch"
	notices, cancel, err := h.deps.Watch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case notice, ok := <-notices:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			payload, err := json.Marshal(notice)
			if err != nil {
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, watchWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
