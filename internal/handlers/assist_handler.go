package handlers

import (
	"net/http"

	"formassist-backend/internal/models"
	"formassist-backend/internal/services"
	"formassist-backend/pkg/httputil"
)

// AssistHandler answers AI_REQUEST envelopes.
type AssistHandler struct {
	assist *services.AssistService
}

func NewAssistHandler(assist *services.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

func (h *AssistHandler) HandleAIRequest(w http.ResponseWriter, r *http.Request) {
	var env models.AIRequestEnvelope
	if err := httputil.DecodeJSON(w, r, &env, false); err != nil {
		httputil.RespondJSON(w, http.StatusBadRequest, models.AIResponseEnvelope{Error: "Invalid request body"})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, h.assist.Handle(r.Context(), env))
}
