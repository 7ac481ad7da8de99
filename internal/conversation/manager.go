// Package conversation owns the per-session conversation store: every thread,
// the active pointer, the status line and the actions on AI replies. All UI
// surfaces are thin callers of Manager.
package conversation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/store"
)

const (
	keyPrefix      = "conversations/"
	titleMaxRunes  = 50
	persistTimeout = 5 * time.Second

	DefaultStatusRevert = 2 * time.Second
)

// Key is the store key holding the state of scope.
func Key(scope string) string {
	return keyPrefix + scope
}

type Options struct {
	Store      store.Store
	Scope      string
	Dispatcher Dispatcher
	Renderer   Renderer

	RenderRetryDelay time.Duration
	RenderMaxRetries int
	StatusRevert     time.Duration

	Now func() time.Time
	Log zerolog.Logger
}

type Manager struct {
	store      store.Store
	key        string
	dispatcher Dispatcher
	log        zerolog.Logger
	now        func() time.Time

	renderer         Renderer
	renderRetryDelay time.Duration
	renderMaxRetries int

	// renderMu guards renderGen and renderRetry and serializes Render calls.
	renderMu    sync.Mutex
	renderGen   uint64
	renderRetry *time.Timer

	// sendMu admits one Send at a time.
	sendMu sync.Mutex

	mu           sync.Mutex
	state        models.ConversationState
	status       Status
	statusGen    uint64
	statusRevert time.Duration
	revert       *time.Timer
	closed       bool
}

// NewManager loads the persisted state for opts.Scope. A missing or unreadable
// state starts empty.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:            opts.Store,
		key:              Key(opts.Scope),
		dispatcher:       opts.Dispatcher,
		log:              logging.Component(opts.Log, "conversation").With().Str("scope", opts.Scope).Logger(),
		now:              opts.Now,
		renderer:         opts.Renderer,
		renderRetryDelay: opts.RenderRetryDelay,
		renderMaxRetries: opts.RenderMaxRetries,
		statusRevert:     opts.StatusRevert,
		status:           Status{Text: StatusReady},
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.renderRetryDelay <= 0 {
		m.renderRetryDelay = DefaultRenderRetryDelay
	}
	if m.renderMaxRetries < 0 {
		m.renderMaxRetries = 0
	} else if m.renderMaxRetries == 0 {
		m.renderMaxRetries = DefaultRenderMaxRetries
	}
	if m.statusRevert <= 0 {
		m.statusRevert = DefaultStatusRevert
	}
	m.state = m.load()
	return m
}

func (m *Manager) load() models.ConversationState {
	empty := models.ConversationState{Conversations: map[string]*models.Conversation{}}
	if m.store == nil {
		return empty
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var st models.ConversationState
	if err := store.GetJSON(ctx, m.store, m.key, &st); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Error().Err(err).Msg("Failed to load conversations")
		}
		return empty
	}
	if st.Conversations == nil {
		st.Conversations = map[string]*models.Conversation{}
	}
	if _, ok := st.Conversations[st.ActiveConversationID]; !ok {
		st.ActiveConversationID = ""
	}
	return st
}

// persistLocked writes the whole state. Failures are logged and swallowed.
func (m *Manager) persistLocked() {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := store.PutJSON(ctx, m.store, m.key, m.state); err != nil {
		m.log.Error().Err(err).Msg("Failed to save conversations")
	}
}

// Create adds a conversation and makes it active. An empty title becomes "Chat N".
func (m *Manager) Create(title string) string {
	m.mu.Lock()
	id := m.createLocked(title)
	m.mu.Unlock()

	m.render()
	return id
}

func (m *Manager) createLocked(title string) string {
	if title == "" {
		title = fmt.Sprintf("Chat %d", len(m.state.Conversations)+1)
	}
	now := m.now().UnixMilli()
	id := newID()
	m.state.Conversations[id] = &models.Conversation{
		ID:        id,
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.state.ActiveConversationID = id
	m.persistLocked()
	m.log.Debug().Str("conversation_id", id).Msg("Conversation created")
	return id
}

// newID returns a time-ordered UUIDv7, falling back to a random UUID.
func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Delete removes a conversation. When it was active, another conversation (the
// most recently updated) becomes active, or none if the store is empty.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	if _, ok := m.state.Conversations[id]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.state.Conversations, id)
	if m.state.ActiveConversationID == id {
		m.state.ActiveConversationID = ""
		if list := m.summariesLocked(); len(list) > 0 {
			m.state.ActiveConversationID = list[0].ID
		}
	}
	m.persistLocked()
	m.mu.Unlock()

	m.render()
	return true
}

// SetActive is a no-op for unknown ids.
func (m *Manager) SetActive(id string) bool {
	m.mu.Lock()
	if _, ok := m.state.Conversations[id]; !ok {
		m.mu.Unlock()
		return false
	}
	m.state.ActiveConversationID = id
	m.persistLocked()
	m.mu.Unlock()

	m.render()
	return true
}

// AddMessage stamps and appends msg to the conversation. The stamp is the
// current time in milliseconds, bumped past the previous message so stamps
// stay unique within the conversation. The conversation's first user message
// also sets its title.
func (m *Manager) AddMessage(conversationID string, msg models.Message) (models.Message, bool) {
	m.mu.Lock()
	stamped, ok := m.addMessageLocked(conversationID, msg)
	m.mu.Unlock()

	if ok {
		m.render()
	}
	return stamped, ok
}

func (m *Manager) addMessageLocked(conversationID string, msg models.Message) (models.Message, bool) {
	conv, ok := m.state.Conversations[conversationID]
	if !ok {
		return models.Message{}, false
	}

	ts := m.now().UnixMilli()
	if n := len(conv.Messages); n > 0 && conv.Messages[n-1].Timestamp >= ts {
		ts = conv.Messages[n-1].Timestamp + 1
	}
	msg.Timestamp = ts

	firstUser := msg.Sender == models.SenderUser && !slices.ContainsFunc(conv.Messages, func(x models.Message) bool {
		return x.Sender == models.SenderUser
	})
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = ts
	if firstUser {
		conv.Title = DeriveTitle(msg.Content)
	}
	m.persistLocked()
	return msg, true
}

// DeriveTitle keeps up to 50 characters of text, marking truncation with "...".
func DeriveTitle(text string) string {
	r := []rune(text)
	if len(r) <= titleMaxRunes {
		return text
	}
	return string(r[:titleMaxRunes]) + "..."
}

// Conversations lists summaries, most recently updated first.
func (m *Manager) Conversations() []models.ConversationSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summariesLocked()
}

func (m *Manager) summariesLocked() []models.ConversationSummary {
	out := make([]models.ConversationSummary, 0, len(m.state.Conversations))
	for _, c := range m.state.Conversations {
		out = append(out, models.ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt,
			Active:    c.ID == m.state.ActiveConversationID,
		})
	}
	slices.SortFunc(out, func(a, b models.ConversationSummary) int {
		if c := cmp.Compare(b.UpdatedAt, a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// Get returns a copy of the conversation.
func (m *Manager) Get(id string) (*models.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.Conversations[id]
	if !ok {
		return nil, false
	}
	return cloneConversation(c), true
}

// Active returns a copy of the active conversation, or nil.
func (m *Manager) Active() *models.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() *models.Conversation {
	c, ok := m.state.Conversations[m.state.ActiveConversationID]
	if !ok {
		return nil
	}
	return cloneConversation(c)
}

// ActiveID returns the active conversation id, or "".
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ActiveConversationID
}

// View is the full render input.
func (m *Manager) View() models.ConversationView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.ConversationView{
		Conversations: m.summariesLocked(),
		Active:        m.activeLocked(),
		Status:        m.status.Text,
		StatusKind:    m.status.Kind,
	}
}

// Close stops the pending status revert and render retry. The manager stays readable.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.revert != nil {
		m.revert.Stop()
		m.revert = nil
	}
	m.mu.Unlock()

	m.renderMu.Lock()
	if m.renderRetry != nil {
		m.renderRetry.Stop()
		m.renderRetry = nil
	}
	m.renderMu.Unlock()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Messages = slices.Clone(c.Messages)
	return &out
}
