package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/gateway"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/store/memory"
)

type dispatchFunc func(ctx context.Context, req models.AIRequest) (models.FieldMapping, error)

func (f dispatchFunc) Dispatch(ctx context.Context, req models.AIRequest) (models.FieldMapping, error) {
	return f(ctx, req)
}

var emailTarget = models.TargetField{Name: "email", Type: models.FieldTypeText, Selector: "#email"}

func emailPage() models.PageContext {
	return models.PageContext{
		Title:         "Signup",
		ContextBlocks: []models.ContextBlock{},
		Targets:       []models.TargetField{emailTarget},
	}
}

func newTestManager(d Dispatcher) *Manager {
	return NewManager(Options{
		Store:        memory.New(),
		Scope:        "s",
		Dispatcher:   d,
		StatusRevert: 20 * time.Millisecond,
		Log:          logging.Nop(),
	})
}

func TestSend_MockModeEndToEnd(t *testing.T) {
	m := newTestManager(gateway.New(nil, nil, logging.Nop()))
	defer m.Close()

	reply, ok := m.Send(context.Background(), "hi", StaticPage(emailPage()))

	require.True(t, ok)
	assert.Equal(t, models.SenderAI, reply.Sender)
	assert.Equal(t, models.FieldMapping{"email": "Mock content for email"}, reply.JSONData)
	assert.Equal(t, []models.TargetField{emailTarget}, reply.Targets)

	active := m.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "hi", active.Messages[0].Content)
	assert.Equal(t, "hi", active.Title)
	assert.Equal(t, StatusReady, m.Status().Text)
}

func TestSend_BlankIsNoop(t *testing.T) {
	m := newTestManager(dispatchFunc(func(context.Context, models.AIRequest) (models.FieldMapping, error) {
		t.Fatal("dispatch must not be called")
		return nil, nil
	}))
	defer m.Close()

	_, ok := m.Send(context.Background(), "   \n", StaticPage(emailPage()))

	assert.False(t, ok)
	assert.Empty(t, m.Conversations())
}

func TestSend_TrimsAndBuildsRequest(t *testing.T) {
	var got models.AIRequest
	m := newTestManager(dispatchFunc(func(_ context.Context, req models.AIRequest) (models.FieldMapping, error) {
		got = req
		return models.FieldMapping{}, nil
	}))
	defer m.Close()

	reply, ok := m.Send(context.Background(), "  fill it  ", StaticPage(emailPage()))

	require.True(t, ok)
	assert.Equal(t, "fill it", got.Prompt)
	require.NotNil(t, got.Context)
	assert.Equal(t, "Signup", got.Context.Title)
	assert.Equal(t, []models.TargetField{emailTarget}, got.Targets)
	assert.Nil(t, reply.JSONData, "empty mappings are not stored")
	assert.Equal(t, ReplyContent, reply.Content)
}

func TestSend_DispatchErrorRecordsApology(t *testing.T) {
	m := newTestManager(dispatchFunc(func(context.Context, models.AIRequest) (models.FieldMapping, error) {
		return nil, errors.New("settings unavailable")
	}))
	defer m.Close()

	reply, ok := m.Send(context.Background(), "hi", StaticPage(emailPage()))

	require.True(t, ok)
	assert.True(t, reply.Error)
	assert.Equal(t, ReplyFailure, reply.Content)
	assert.Equal(t, Status{Text: StatusError, Kind: KindError}, m.Status())
}

func TestSend_PageFailureUsesFallbackContext(t *testing.T) {
	var got models.AIRequest
	m := newTestManager(dispatchFunc(func(_ context.Context, req models.AIRequest) (models.FieldMapping, error) {
		got = req
		return nil, nil
	}))
	defer m.Close()

	failing := PageSourceFunc(func(context.Context) (models.PageContext, error) {
		return models.PageContext{}, errors.New("tab gone")
	})
	m.Send(context.Background(), "hi", failing)

	require.NotNil(t, got.Context)
	assert.Equal(t, "Unknown page", got.Context.Title)
	assert.Empty(t, got.Targets)
}

func TestSend_ReplyGoesToOriginatingConversation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := newTestManager(dispatchFunc(func(context.Context, models.AIRequest) (models.FieldMapping, error) {
		close(started)
		<-release
		return models.FieldMapping{"email": "a@b.com"}, nil
	}))
	defer m.Close()

	origin := m.Create("origin")
	done := make(chan models.Message)
	go func() {
		reply, _ := m.Send(context.Background(), "hi", StaticPage(emailPage()))
		done <- reply
	}()

	<-started
	other := m.Create("other")
	require.Equal(t, other, m.ActiveID())
	close(release)
	<-done

	o, _ := m.Get(origin)
	assert.Len(t, o.Messages, 2)
	x, _ := m.Get(other)
	assert.Empty(t, x.Messages)
}

func TestSend_Serialized(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	m := newTestManager(dispatchFunc(func(context.Context, models.AIRequest) (models.FieldMapping, error) {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return models.FieldMapping{"email": "x"}, nil
	}))
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Send(context.Background(), "hi", StaticPage(emailPage()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	active := m.Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 10)
	for i, msg := range active.Messages {
		want := models.SenderUser
		if i%2 == 1 {
			want = models.SenderAI
		}
		assert.Equal(t, want, msg.Sender, "message %d", i)
	}
	assert.Len(t, m.Conversations(), 1)
}
