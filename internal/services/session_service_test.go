package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/auth"
	"formassist-backend/internal/conversation"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/store/memory"
	"formassist-backend/internal/trigger"
)

func newSessions(t *testing.T) *SessionService {
	t.Helper()
	st := memory.New()
	reg := conversation.NewRegistry(func(scope string) *conversation.Manager {
		return conversation.NewManager(conversation.Options{Store: st, Scope: scope, Log: logging.Nop()})
	})
	t.Cleanup(reg.Close)
	return NewSessionService("secret", time.Hour, reg, logging.Nop())
}

func TestSessions_OpenIssuesScopedToken(t *testing.T) {
	svc := newSessions(t)

	resp, err := svc.Open(context.Background(), models.OpenSessionRequest{TabID: 9})
	require.NoError(t, err)
	assert.Equal(t, DefaultScope, resp.Scope)

	claims, err := auth.ParseSessionToken(resp.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, 9, claims.TabID)
	assert.Equal(t, DefaultScope, claims.Scope)
}

func TestSessions_ManagerSharedPerScope(t *testing.T) {
	svc := newSessions(t)

	a := svc.Manager(auth.Session{ID: "1", Scope: "work"})
	b := svc.Manager(auth.Session{ID: "2", Scope: "work"})
	c := svc.Manager(auth.Session{ID: "3"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Same(t, c, svc.Manager(auth.Session{ID: "4", Scope: DefaultScope}))
}

func TestSessions_HeaderConfigOverridesPage(t *testing.T) {
	svc := newSessions(t)
	header := &models.AiConfig{Targets: []models.TargetField{{Name: "header"}}, Prompt: "header prompt"}
	svc.RecordActivation(trigger.Activation{TabID: 4, Config: header})

	page := models.PageContext{Title: "P", Targets: []models.TargetField{{Name: "page"}}, Prompt: "page prompt"}
	got := svc.ResolvePage(4, page)
	assert.Equal(t, header.Targets, got.Targets)
	assert.Equal(t, "header prompt", got.Prompt)

	assert.Equal(t, page, svc.ResolvePage(5, page))

	svc.ForgetTab(4)
	assert.Nil(t, svc.HeaderConfig(4))
}

type dispatchStub struct {
	data models.FieldMapping
	err  error
}

func (d dispatchStub) Dispatch(context.Context, models.AIRequest) (models.FieldMapping, error) {
	return d.data, d.err
}

func TestAssist_Handle(t *testing.T) {
	ok := NewAssistService(dispatchStub{data: models.FieldMapping{"email": "a@b.com"}}, logging.Nop())
	resp := ok.Handle(context.Background(), models.AIRequestEnvelope{Type: models.MessageTypeAIRequest})
	assert.True(t, resp.Success)
	assert.Equal(t, models.FieldMapping{"email": "a@b.com"}, resp.Data)

	resp = ok.Handle(context.Background(), models.AIRequestEnvelope{Type: "PING"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown message type", resp.Error)

	failing := NewAssistService(dispatchStub{err: errors.New("boom")}, logging.Nop())
	resp = failing.Handle(context.Background(), models.AIRequestEnvelope{Type: models.MessageTypeAIRequest})
	assert.False(t, resp.Success)
	assert.Equal(t, "AI request failed", resp.Error)
}
