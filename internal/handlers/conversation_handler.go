package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"formassist-backend/internal/auth"
	"formassist-backend/internal/conversation"
	"formassist-backend/internal/export"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/pagecontext"
	"formassist-backend/internal/services"
	"formassist-backend/pkg/httputil"
)

// ConversationHandler exposes the session's conversation manager.
type ConversationHandler struct {
	sessions *services.SessionService
	log      zerolog.Logger
}

func NewConversationHandler(sessions *services.SessionService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{sessions: sessions, log: logging.Component(log, "conversation_handler")}
}

func (h *ConversationHandler) manager(w http.ResponseWriter, r *http.Request) (auth.Session, *conversation.Manager, bool) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return auth.Session{}, nil, false
	}
	return sess, h.sessions.Manager(sess), true
}

// HandleListConversations returns the full view: list, active thread and status.
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.View())
}

func (h *ConversationHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	var req models.CreateConversationRequest
	if err := httputil.DecodeJSON(w, r, &req, true); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.Create(strings.TrimSpace(req.Title))
	httputil.RespondJSON(w, http.StatusCreated, m.View())
}

func (h *ConversationHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	if !m.Delete(chi.URLParam(r, "conversationID")) {
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) HandleActivateConversation(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	if !m.SetActive(chi.URLParam(r, "conversationID")) {
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, m.View())
}

// HandleSendMessage sends text in the active conversation and returns the AI
// reply. Dispatch failures are part of the reply, never an HTTP error.
func (h *ConversationHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Message text is required")
		return
	}

	reply, _ := m.Send(r.Context(), req.Text, h.pageSource(sess, req))
	httputil.RespondJSON(w, http.StatusOK, reply)
}

// pageSource prefers a collected snapshot, then raw HTML, then the
// unreachable-page fallback, and overlays the tab's header config.
func (h *ConversationHandler) pageSource(sess auth.Session, req models.SendMessageRequest) conversation.PageSource {
	return conversation.PageSourceFunc(func(context.Context) (models.PageContext, error) {
		var pc models.PageContext
		switch {
		case req.Page != nil:
			pc = *req.Page
		case strings.TrimSpace(req.HTML) != "":
			pc = pagecontext.Collect(strings.NewReader(req.HTML))
		default:
			pc = pagecontext.Unreachable(req.TabTitle)
		}
		return h.sessions.ResolvePage(sess.TabID, pc), nil
	})
}

func (h *ConversationHandler) HandleExportConversation(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	exp, err := export.NewExporter(r.URL.Query().Get("format"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	conv, found := m.Get(chi.URLParam(r, "conversationID"))
	if !found {
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="conversation-%s.%s"`, conv.ID, exp.Extension()))
	if err := exp.Export(conv, w); err != nil {
		h.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to export conversation")
	}
}

// HandleApplyPlan returns the page writes for a reply. The extension runs
// them and reports back through HandleApplyResult.
func (h *ConversationHandler) HandleApplyPlan(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	ts, ok := timestampParam(w, r)
	if !ok {
		return
	}
	plan, found := m.ApplyPlan(ts)
	if !found {
		httputil.RespondError(w, http.StatusNotFound, "Message has no field data")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, plan)
}

type applyResultRequest struct {
	Success bool `json:"success"`
}

func (h *ConversationHandler) HandleApplyResult(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	var req applyResultRequest
	if err := httputil.DecodeJSON(w, r, &req, false); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.ReportApply(req.Success)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	ts, ok := timestampParam(w, r)
	if !ok {
		return
	}
	preview, found := m.Preview(ts)
	if !found {
		httputil.RespondError(w, http.StatusNotFound, "Message has no field data")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.PreviewResponse{Preview: preview})
}

// HandleCopy returns the clipboard text and marks the status as copied.
func (h *ConversationHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.manager(w, r)
	if !ok {
		return
	}
	ts, ok := timestampParam(w, r)
	if !ok {
		return
	}
	var clip captureClipboard
	if err := m.CopyToClipboard(r.Context(), ts, &clip); err != nil || clip.text == "" {
		httputil.RespondError(w, http.StatusNotFound, "Message has no field data")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.CopyResponse{Text: clip.text})
}
