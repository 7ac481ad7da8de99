package trigger

import (
	"context"
	"strconv"

	"formassist-backend/internal/events"
	"formassist-backend/internal/models"
)

// TabTopic is the events topic of a tab's assistant UI.
func TabTopic(tabID int) string {
	return "tab:" + strconv.Itoa(tabID)
}

// HubNotifier delivers notifications through an events.Hub. A tab with no
// open event stream yields events.ErrNoSubscribers.
type HubNotifier struct {
	Hub *events.Hub
}

func (n HubNotifier) Notify(_ context.Context, tabID int, msg models.TriggerNotification) error {
	return n.Hub.Publish(TabTopic(tabID), events.Event{Type: msg.Type, Data: msg})
}
