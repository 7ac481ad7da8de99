package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/services"
	"formassist-backend/pkg/httputil"
)

// SettingsHandler serves the options screen.
type SettingsHandler struct {
	settings *services.SettingsService
	log      zerolog.Logger
}

func NewSettingsHandler(settings *services.SettingsService, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, log: logging.Component(log, "settings_handler")}
}

func (h *SettingsHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.settings.Get(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load settings")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SaveSettingsRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.settings.Save(r.Context(), req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			httputil.RespondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.log.Error().Err(err).Msg("Failed to save settings")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) HandleClearSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Clear(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear settings")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to clear settings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTestConnection always answers 200; the outcome is in the body.
func (h *SettingsHandler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	var req models.SaveSettingsRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, h.settings.TestConnection(r.Context(), req))
}
