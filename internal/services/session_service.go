package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"formassist-backend/internal/aiconfig"
	"formassist-backend/internal/auth"
	"formassist-backend/internal/conversation"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/trigger"
)

// DefaultScope is the conversation store shared by sessions that name none.
const DefaultScope = "default"

// SessionService issues side panel sessions and tracks the latest header
// configuration seen for each tab.
type SessionService struct {
	secret     string
	expiration time.Duration
	registry   *conversation.Registry
	log        zerolog.Logger

	mu         sync.RWMutex
	tabConfigs map[int]*models.AiConfig
}

func NewSessionService(secret string, expiration time.Duration, registry *conversation.Registry, log zerolog.Logger) *SessionService {
	return &SessionService{
		secret:     secret,
		expiration: expiration,
		registry:   registry,
		log:        logging.Component(log, "sessions"),
		tabConfigs: make(map[int]*models.AiConfig),
	}
}

// Open creates a session for tabID and signs its access token.
func (s *SessionService) Open(_ context.Context, req models.OpenSessionRequest) (models.SessionResponse, error) {
	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	id := uuid.NewString()
	token, err := auth.NewSessionToken(id, req.TabID, scope, s.secret, s.expiration)
	if err != nil {
		return models.SessionResponse{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	s.log.Debug().Str("session_id", id).Int("tab_id", req.TabID).Str("scope", scope).Msg("Session opened")
	return models.SessionResponse{SessionID: id, AccessToken: token, Scope: scope}, nil
}

// RecordActivation remembers the header config of the tab's latest activation.
func (s *SessionService) RecordActivation(act trigger.Activation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabConfigs[act.TabID] = act.Config
}

// ForgetTab drops the tab's header config, e.g. after it navigated to a page
// that did not opt in.
func (s *SessionService) ForgetTab(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabConfigs, tabID)
}

// HeaderConfig returns the tab's latest header config, or nil.
func (s *SessionService) HeaderConfig(tabID int) *models.AiConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tabConfigs[tabID]
}

// ResolvePage overlays the tab's header config onto a collected page snapshot.
func (s *SessionService) ResolvePage(tabID int, page models.PageContext) models.PageContext {
	return aiconfig.ApplyTo(page, s.HeaderConfig(tabID))
}

// ScopeOf returns the session's conversation scope.
func ScopeOf(sess auth.Session) string {
	if sess.Scope == "" {
		return DefaultScope
	}
	return sess.Scope
}

// Manager returns the conversation manager of the session's scope.
func (s *SessionService) Manager(sess auth.Session) *conversation.Manager {
	return s.registry.Get(ScopeOf(sess))
}
