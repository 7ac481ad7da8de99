package conversation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"formassist-backend/internal/events"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/store/memory"
)

type scriptedRenderer struct {
	mu       sync.Mutex
	notReady int
	err      error
	calls    int
	views    []models.ConversationView
}

func (r *scriptedRenderer) Render(_ context.Context, view models.ConversationView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.notReady > 0 {
		r.notReady--
		return ErrViewNotReady
	}
	if r.err != nil {
		return r.err
	}
	r.views = append(r.views, view)
	return nil
}

func (r *scriptedRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *scriptedRenderer) Views() []models.ConversationView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.views)
}

func renderManager(r Renderer, maxRetries int) *Manager {
	return NewManager(Options{
		Store:            memory.New(),
		Scope:            "render",
		Renderer:         r,
		RenderRetryDelay: time.Millisecond,
		RenderMaxRetries: maxRetries,
		Log:              logging.Nop(),
	})
}

func TestRender_RetriesUntilReady(t *testing.T) {
	r := &scriptedRenderer{notReady: 2}
	m := renderManager(r, 3)
	defer m.Close()

	m.Create("first")

	assert.Eventually(t, func() bool { return len(r.Views()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, r.Calls())
	assert.Equal(t, "first", r.Views()[0].Conversations[0].Title)
}

func TestRender_GivesUpAfterMaxRetries(t *testing.T) {
	r := &scriptedRenderer{notReady: 100}
	m := renderManager(r, 3)
	defer m.Close()

	m.Create("")

	assert.Eventually(t, func() bool { return r.Calls() == 4 }, time.Second, time.Millisecond, "one attempt plus three retries")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, r.Calls())
	assert.Len(t, m.Conversations(), 1, "state changes survive a failed render")
}

func TestRender_OtherErrorsAreNotRetried(t *testing.T) {
	r := &scriptedRenderer{err: errors.New("broken template")}
	m := renderManager(r, 3)
	defer m.Close()

	m.Create("")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, r.Calls())
}

func TestRender_MutationsDoNotWaitForRetries(t *testing.T) {
	r := &scriptedRenderer{notReady: 1000}
	m := NewManager(Options{
		Store:      memory.New(),
		Scope:      "slow",
		Renderer:   r,
		Dispatcher: dispatchFunc(func(context.Context, models.AIRequest) (models.FieldMapping, error) {
			return models.FieldMapping{"ok": true}, nil
		}),
		RenderRetryDelay: 100 * time.Millisecond,
		RenderMaxRetries: 3,
		Log:              logging.Nop(),
	})
	defer m.Close()

	start := time.Now()
	m.Create("")
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	start = time.Now()
	reply, ok := m.Send(context.Background(), "hi", nil)
	assert.True(t, ok)
	assert.Equal(t, ReplyContent, reply.Content)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRender_RetryDrawsLatestView(t *testing.T) {
	r := &scriptedRenderer{notReady: 1}
	m := renderManager(r, 3)
	defer m.Close()

	m.Create("first")
	assert.Eventually(t, func() bool { return len(r.Views()) == 1 }, time.Second, time.Millisecond)
	r.mu.Lock()
	r.notReady = 1
	r.mu.Unlock()

	m.Create("second")

	assert.Eventually(t, func() bool { return len(r.Views()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "second", r.Views()[1].Active.Title)
}

func TestRender_CloseCancelsPendingRetry(t *testing.T) {
	r := &scriptedRenderer{notReady: 100}
	m := NewManager(Options{
		Store:            memory.New(),
		Scope:            "closing",
		Renderer:         r,
		RenderRetryDelay: 20 * time.Millisecond,
		RenderMaxRetries: 3,
		Log:              logging.Nop(),
	})

	m.Create("")
	m.Close()
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 1, r.Calls())
}

func TestTransientStatus_KeepsOneRevertTimer(t *testing.T) {
	m := renderManager(nil, 0)
	defer m.Close()

	m.setTransientStatus(StatusCopied, KindActive)
	first := m.revert
	m.setTransientStatus(StatusApplied, KindActive)

	assert.NotSame(t, first, m.revert)
	assert.False(t, first.Stop(), "replaced revert timer is already stopped")
	assert.Equal(t, Status{Text: StatusApplied, Kind: KindActive}, m.Status())
}

func TestRender_ViewCarriesStatusAndActive(t *testing.T) {
	r := &scriptedRenderer{}
	m := renderManager(r, 3)
	defer m.Close()

	id := m.Create("x")
	m.setStatus(StatusSending, KindActive)

	views := r.Views()
	last := views[len(views)-1]
	assert.Equal(t, StatusSending, last.Status)
	assert.Equal(t, KindActive, last.StatusKind)
	if assert.NotNil(t, last.Active) {
		assert.Equal(t, id, last.Active.ID)
	}
}

func TestRegistry(t *testing.T) {
	created := 0
	reg := NewRegistry(func(scope string) *Manager {
		created++
		return NewManager(Options{Store: memory.New(), Scope: scope, Log: logging.Nop()})
	})
	defer reg.Close()

	a := reg.Get("a")
	assert.Same(t, a, reg.Get("a"))
	assert.NotSame(t, a, reg.Get("b"))
	assert.Equal(t, 2, created)

	_, ok := reg.Lookup("c")
	assert.False(t, ok)
}

func TestHubRenderer_PublishesToScopeTopic(t *testing.T) {
	hub := events.NewHub()
	r := HubRenderer{Hub: hub, Topic: ScopeTopic("work")}

	err := r.Render(context.Background(), models.ConversationView{Status: StatusReady})
	assert.ErrorIs(t, err, ErrViewNotReady)

	ch, cancel := hub.Subscribe(ScopeTopic("work"))
	defer cancel()
	m := renderManager(r, 1)
	defer m.Close()

	m.Create("hello")

	ev := <-ch
	assert.Equal(t, EventView, ev.Type)
	view := ev.Data.(models.ConversationView)
	assert.Equal(t, "hello", view.Conversations[0].Title)
}

func TestReportApply(t *testing.T) {
	m := renderManager(nil, 0)
	defer m.Close()

	m.ReportApply(false)
	assert.Equal(t, Status{Text: StatusApplyFailure, Kind: KindError}, m.Status())

	m.ReportApply(true)
	assert.Equal(t, Status{Text: StatusApplied, Kind: KindActive}, m.Status())
}
