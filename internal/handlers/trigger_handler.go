package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"formassist-backend/internal/events"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/services"
	"formassist-backend/internal/trigger"
	"formassist-backend/pkg/httputil"
)

// TriggerHandler receives navigation reports from the extension's background
// layer and streams activations to each tab's assistant UI.
type TriggerHandler struct {
	detector  *trigger.Detector
	sessions  *services.SessionService
	hub       *events.Hub
	keepAlive time.Duration
	log       zerolog.Logger
}

func NewTriggerHandler(detector *trigger.Detector, sessions *services.SessionService, hub *events.Hub, keepAlive time.Duration, log zerolog.Logger) *TriggerHandler {
	return &TriggerHandler{
		detector:  detector,
		sessions:  sessions,
		hub:       hub,
		keepAlive: keepAlive,
		log:       logging.Component(log, "trigger_handler"),
	}
}

// HandleNavigation inspects the response headers of one navigation.
func (h *TriggerHandler) HandleNavigation(w http.ResponseWriter, r *http.Request) {
	var req models.NavigationRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	nav := trigger.Navigation{
		TabID:     req.TabID,
		URL:       req.URL,
		FrameType: req.FrameType,
		Headers:   req.Headers,
	}
	act, activated := h.detector.Inspect(r.Context(), nav)
	switch {
	case activated:
		h.sessions.RecordActivation(act)
	case nav.FrameType == trigger.FrameMain:
		h.sessions.ForgetTab(nav.TabID)
	}
	httputil.RespondJSON(w, http.StatusOK, models.NavigationResponse{Activated: activated})
}

// HandleTabEvents streams trigger notifications for one tab.
func (h *TriggerHandler) HandleTabEvents(w http.ResponseWriter, r *http.Request) {
	tabID, err := strconv.Atoi(chi.URLParam(r, "tabID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid tab ID")
		return
	}
	ch, cancel := h.hub.Subscribe(trigger.TabTopic(tabID))
	defer cancel()
	h.log.Debug().Int("tab_id", tabID).Msg("Tab listener connected")
	streamEvents(w, r, ch, nil, h.keepAlive, h.log)
}
