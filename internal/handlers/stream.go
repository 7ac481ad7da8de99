package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"formassist-backend/internal/events"
	"formassist-backend/pkg/httputil"
)

// DefaultKeepAlive is the interval between SSE keep-alive comments.
const DefaultKeepAlive = 25 * time.Second

// streamEvents relays ch to the client until the request ends or ch closes.
// first, when set, is sent before any hub event.
func streamEvents(w http.ResponseWriter, r *http.Request, ch <-chan events.Event, first *events.Event, keepAlive time.Duration, log zerolog.Logger) {
	sse, err := httputil.NewSSEWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	if first != nil {
		if err := sse.Send(first.Type, first.Data); err != nil {
			return
		}
	}
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.Send(ev.Type, ev.Data); err != nil {
				log.Debug().Err(err).Msg("Event stream closed by client")
				return
			}
		case <-ticker.C:
			if err := sse.Comment("keep-alive"); err != nil {
				return
			}
		}
	}
}
