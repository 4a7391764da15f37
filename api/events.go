package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pinkoogupta/eduzap/httpx"
)

// Events streams request-created and request-deleted notifications as
// Server-Sent Events until the client disconnects.
func (h *Handler) Events(c httpx.Context) error {
	if h.hub == nil {
		return httpx.HTTPError(httpx.StatusServiceUnavailable, "Event stream unavailable")
	}
	events, cancel, err := h.hub.Subscribe()
	if err != nil {
		return httpx.HTTPError(httpx.StatusServiceUnavailable, "Event stream unavailable")
	}
	defer cancel()

	ctx := c.Request().Context()
	w := c.Response()
	// The server write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(httpx.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to marshal event", "event", ev.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Name)
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		}
	}
}
