// Package trigger watches top-level navigations for the X-AI-Assist response
// header and notifies the tab's assistant UI when a page opts in.
package trigger

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/sourcegraph/conc"

	"formassist-backend/internal/aiconfig"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
)

const (
	HeaderAssist   = "X-AI-Assist"
	HeaderConfig   = "X-AI-Config"
	ActivationFlag = "on"

	FrameMain = "main_frame"

	DefaultRetryDelay = time.Second
)

// Navigation is a completed response for a frame of a tab.
type Navigation struct {
	TabID     int
	URL       string
	FrameType string
	Headers   []models.HeaderEntry
}

// Header returns the first value of name, compared case-insensitively.
func (n Navigation) Header(name string) (string, bool) {
	for _, h := range n.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HeadersFromHTTP flattens an http.Header into entries, one per value.
func HeadersFromHTTP(h http.Header) []models.HeaderEntry {
	out := make([]models.HeaderEntry, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			out = append(out, models.HeaderEntry{Name: name, Value: v})
		}
	}
	return out
}

// Activation is the outcome of a navigation that opted in.
type Activation struct {
	TabID  int
	URL    string
	Config *models.AiConfig
}

// Notification builds the message delivered to the tab.
func (a Activation) Notification() models.TriggerNotification {
	return models.TriggerNotification{
		Type:         models.MessageTypeTrigger,
		HeaderConfig: a.Config,
		URL:          a.URL,
	}
}

// Notifier delivers a trigger notification to a tab's UI. It fails when the
// UI is not listening yet.
type Notifier interface {
	Notify(ctx context.Context, tabID int, n models.TriggerNotification) error
}

type Detector struct {
	notifier   Notifier
	retryDelay time.Duration
	log        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     conc.WaitGroup
}

func NewDetector(notifier Notifier, retryDelay time.Duration, log zerolog.Logger) *Detector {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Detector{
		notifier:   notifier,
		retryDelay: retryDelay,
		log:        logging.Component(log, "trigger"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Inspect decides whether nav activates the assistant and, if so, schedules
// delivery of the notification in the background. Delivery outlives ctx's
// cancellation but not Close.
func (d *Detector) Inspect(ctx context.Context, nav Navigation) (Activation, bool) {
	if nav.FrameType != FrameMain {
		return Activation{}, false
	}
	if v, ok := nav.Header(HeaderAssist); !ok || v != ActivationFlag {
		return Activation{}, false
	}

	act := Activation{TabID: nav.TabID, URL: nav.URL}
	if raw, ok := nav.Header(HeaderConfig); ok {
		cfg, err := aiconfig.DecodeHeader(raw)
		if err != nil {
			d.log.Error().Err(err).Int("tab_id", nav.TabID).Msg("Failed to decode AI config header")
		} else {
			act.Config = cfg
		}
	}
	d.log.Debug().Int("tab_id", nav.TabID).Str("url", nav.URL).Bool("has_config", act.Config != nil).Msg("AI assist activated")

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return act, true
	}
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(d.ctx, cancel)
	d.wg.Go(func() {
		defer stop()
		defer cancel()
		d.deliver(dctx, act)
	})
	return act, true
}

// deliver makes one attempt and one retry after retryDelay, then gives up.
func (d *Detector) deliver(ctx context.Context, act Activation) {
	n := act.Notification()
	backoff := retry.WithMaxRetries(1, retry.NewConstant(d.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.notifier.Notify(ctx, act.TabID, n); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		d.log.Debug().Err(err).Int("tab_id", act.TabID).Msg("Trigger notification dropped")
	}
}

// Close cancels pending retries and waits for in-flight deliveries.
func (d *Detector) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
