package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"formassist-backend/internal/models"
)

const (
	StatusReady        = "Ready"
	StatusSending      = "Sending message..."
	StatusError        = "Error occurred"
	StatusCopied       = "Copied to clipboard"
	StatusApplied      = "Applied to page"
	StatusApplyFailure = "Error applying changes"

	KindActive = "active"
	KindError  = "error"

	DefaultRenderRetryDelay = 100 * time.Millisecond
	DefaultRenderMaxRetries = 3
)

// Status is the text and style of the status indicator.
type Status struct {
	Text string
	Kind string
}

// ErrViewNotReady is returned by a Renderer whose view cannot be drawn yet.
// Rendering is retried a bounded number of times.
var ErrViewNotReady = errors.New("view not ready")

// Renderer draws the conversation view.
type Renderer interface {
	Render(ctx context.Context, view models.ConversationView) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view models.ConversationView) error

func (f RendererFunc) Render(ctx context.Context, view models.ConversationView) error {
	return f(ctx, view)
}

// Status returns the current status indicator.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(text, kind string) {
	m.mu.Lock()
	m.statusGen++
	m.status = Status{Text: text, Kind: kind}
	m.mu.Unlock()
	m.render()
}

// setTransientStatus shows text and reverts to Ready after the revert delay,
// unless another status was set in between. A single revert timer is kept;
// a newer transient status replaces the pending one.
func (m *Manager) setTransientStatus(text, kind string) {
	m.mu.Lock()
	m.statusGen++
	gen := m.statusGen
	m.status = Status{Text: text, Kind: kind}
	if m.revert != nil {
		m.revert.Stop()
		m.revert = nil
	}
	if !m.closed {
		m.revert = time.AfterFunc(m.statusRevert, func() {
			m.mu.Lock()
			if m.statusGen != gen || m.closed {
				m.mu.Unlock()
				return
			}
			m.status = Status{Text: StatusReady}
			m.revert = nil
			m.mu.Unlock()
			m.render()
		})
	}
	m.mu.Unlock()
	m.render()
}

// render draws the latest view once. When the renderer reports ErrViewNotReady
// a retry is scheduled on the render backoff; any other failure gives up at
// once. A newer render cancels the pending retry, and every retry draws the
// view as it is when the timer fires.
func (m *Manager) render() {
	if m.renderer == nil {
		return
	}
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	m.renderGen++
	if m.renderRetry != nil {
		m.renderRetry.Stop()
		m.renderRetry = nil
	}
	backoff := retry.WithMaxRetries(uint64(m.renderMaxRetries), retry.NewConstant(m.renderRetryDelay))
	m.renderAttemptLocked(m.renderGen, backoff)
}

func (m *Manager) renderAttemptLocked(gen uint64, backoff retry.Backoff) {
	err := m.renderer.Render(context.Background(), m.View())
	if err == nil {
		return
	}
	if !errors.Is(err, ErrViewNotReady) {
		m.log.Warn().Err(err).Msg("Failed to render conversation view")
		return
	}
	delay, stop := backoff.Next()
	if stop {
		m.log.Warn().Err(err).Msg("Giving up rendering conversation view")
		return
	}
	if m.isClosed() {
		return
	}
	m.renderRetry = time.AfterFunc(delay, func() {
		m.renderMu.Lock()
		defer m.renderMu.Unlock()
		if m.renderGen != gen || m.isClosed() {
			return
		}
		m.renderRetry = nil
		m.renderAttemptLocked(gen, backoff)
	})
}
