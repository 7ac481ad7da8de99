package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"formassist-backend/internal/conversation"
	"formassist-backend/internal/events"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/services"
	"formassist-backend/pkg/httputil"
)

// SessionHandler opens side panel sessions and streams their conversation views.
type SessionHandler struct {
	sessions  *services.SessionService
	hub       *events.Hub
	keepAlive time.Duration
	log       zerolog.Logger
}

func NewSessionHandler(sessions *services.SessionService, hub *events.Hub, keepAlive time.Duration, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		hub:       hub,
		keepAlive: keepAlive,
		log:       logging.Component(log, "session_handler"),
	}
}

// HandleOpenSession issues a session token for a tab.
func (h *SessionHandler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req models.OpenSessionRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.sessions.Open(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open session")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleSessionEvents streams the conversation view of the session's scope,
// starting with the current one.
func (h *SessionHandler) HandleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	m := h.sessions.Manager(sess)
	ch, cancel := h.hub.Subscribe(conversation.ScopeTopic(services.ScopeOf(sess)))
	defer cancel()

	first := events.Event{Type: conversation.EventView, Data: m.View()}
	streamEvents(w, r, ch, &first, h.keepAlive, h.log)
}
