package models

// Conversation is one chat thread. Messages are append-only and chronological.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"` // Unix milliseconds
	UpdatedAt int64     `json:"updatedAt"` // Unix milliseconds
}

// FindMessage returns the message stamped with ts.
func (c *Conversation) FindMessage(ts int64) (*Message, bool) {
	for i := range c.Messages {
		if c.Messages[i].Timestamp == ts {
			return &c.Messages[i], true
		}
	}
	return nil, false
}

// ConversationState is the persisted unit for one session scope: every conversation
// plus the active pointer. It is always read and written as a whole.
type ConversationState struct {
	Conversations        map[string]*Conversation `json:"conversations"`
	ActiveConversationID string                   `json:"activeConversationId,omitempty"`
}

// StoredSettings is the persisted form of Settings; the API key is sealed.
type StoredSettings struct {
	AIEndpoint   string   `json:"aiEndpoint"`
	APIKeySealed string   `json:"apiKeySealed,omitempty"`
	AIModel      string   `json:"aiModel"`
	Temperature  *float64 `json:"temperature"`
	DebugMode    bool     `json:"debugMode"`
}
