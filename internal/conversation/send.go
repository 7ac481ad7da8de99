package conversation

import (
	"context"
	"errors"
	"strings"

	"formassist-backend/internal/models"
	"formassist-backend/internal/pagecontext"
)

const (
	ReplyContent = "AI response received"
	ReplyFailure = "Sorry, there was an error processing your request."
)

var errNoDispatcher = errors.New("no AI dispatcher configured")

// Dispatcher turns an AI request into a field mapping.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.AIRequest) (models.FieldMapping, error)
}

// PageSource snapshots the page the conversation is about.
type PageSource interface {
	PageContext(ctx context.Context) (models.PageContext, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context) (models.PageContext, error)

func (f PageSourceFunc) PageContext(ctx context.Context) (models.PageContext, error) {
	return f(ctx)
}

// StaticPage always returns pc.
func StaticPage(pc models.PageContext) PageSource {
	return PageSourceFunc(func(context.Context) (models.PageContext, error) { return pc, nil })
}

// Send records text as a user message in the active conversation (creating
// one if needed), asks the dispatcher for a field mapping and records the
// reply. It returns the reply and false when text is blank.
//
// Sends are serialized. The reply goes to the conversation the send started
// in, even if the active conversation changes meanwhile; if that
// conversation was deleted the reply is dropped.
func (m *Manager) Send(ctx context.Context, text string, page PageSource) (models.Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, false
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	convID := m.state.ActiveConversationID
	if _, ok := m.state.Conversations[convID]; !ok {
		convID = m.createLocked("")
	}
	_, _ = m.addMessageLocked(convID, models.Message{Sender: models.SenderUser, Content: text})
	m.mu.Unlock()
	m.render()

	m.setStatus(StatusSending, KindActive)

	pc := m.pageContext(ctx, page)
	req := models.AIRequest{Prompt: text, Context: &pc, Targets: pc.Targets}

	var reply models.Message
	var data models.FieldMapping
	var err error
	if m.dispatcher == nil {
		err = errNoDispatcher
	} else {
		data, err = m.dispatcher.Dispatch(ctx, req)
	}
	if err != nil {
		m.log.Error().Err(err).Str("conversation_id", convID).Msg("Failed to process message")
		reply, _ = m.AddMessage(convID, models.Message{
			Sender:  models.SenderAI,
			Content: ReplyFailure,
			Error:   true,
		})
		m.setStatus(StatusError, KindError)
		return reply, true
	}

	msg := models.Message{Sender: models.SenderAI, Content: ReplyContent, Targets: pc.Targets}
	if len(data) > 0 {
		msg.JSONData = data
	}
	reply, _ = m.AddMessage(convID, msg)
	m.setStatus(StatusReady, "")
	return reply, true
}

func (m *Manager) pageContext(ctx context.Context, page PageSource) models.PageContext {
	if page == nil {
		return pagecontext.Unreachable("")
	}
	pc, err := page.PageContext(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("Page context unavailable; using fallback")
		return pagecontext.Unreachable("")
	}
	return pc
}
