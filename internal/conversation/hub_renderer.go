package conversation

import (
	"context"
	"errors"

	"formassist-backend/internal/events"
	"formassist-backend/internal/models"
)

// EventView is the event type carrying a rendered ConversationView.
const EventView = "CONVERSATION_VIEW"

// ScopeTopic is the hub topic receiving the views of scope's manager.
func ScopeTopic(scope string) string {
	return "scope:" + scope
}

// HubRenderer publishes views to a hub topic. A topic nobody listens to is
// reported as ErrViewNotReady.
type HubRenderer struct {
	Hub   *events.Hub
	Topic string
}

func (r HubRenderer) Render(_ context.Context, view models.ConversationView) error {
	err := r.Hub.Publish(r.Topic, events.Event{Type: EventView, Data: view})
	if errors.Is(err, events.ErrNoSubscribers) {
		return ErrViewNotReady
	}
	return err
}
