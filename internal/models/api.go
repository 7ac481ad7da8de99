package models

// --- Inter-surface Messaging ---

// MessageTypeAIRequest is the envelope type sent by the side UI to the background layer.
const MessageTypeAIRequest = "AI_REQUEST"

// MessageTypeTrigger is the notification type delivered to a tab's UI on activation.
const MessageTypeTrigger = "AI_ASSIST_TRIGGER"

// AIRequest carries everything the gateway needs to produce a field mapping.
type AIRequest struct {
	Prompt  string        `json:"prompt"`
	Context *PageContext  `json:"context,omitempty"`
	Targets []TargetField `json:"targets"`
}

// AIRequestEnvelope is the {type, data} message sent to the background layer.
type AIRequestEnvelope struct {
	Type string    `json:"type"`
	Data AIRequest `json:"data"`
}

// AIResponseEnvelope answers an AIRequestEnvelope.
type AIResponseEnvelope struct {
	Success bool         `json:"success"`
	Data    FieldMapping `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// --- Trigger DTOs ---

// HeaderEntry is one response header as reported by the extension host.
type HeaderEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NavigationRequest reports the response headers of a navigation.
type NavigationRequest struct {
	TabID     int           `json:"tab_id"`
	URL       string        `json:"url"`
	FrameType string        `json:"frame_type"`
	Headers   []HeaderEntry `json:"headers"`
}

// NavigationResponse tells the caller whether the navigation activated the assistant.
type NavigationResponse struct {
	Activated bool `json:"activated"`
}

// TriggerNotification is the activation message delivered to the per-tab UI.
type TriggerNotification struct {
	Type         string    `json:"type"`
	HeaderConfig *AiConfig `json:"headerConfig"`
	URL          string    `json:"url"`
}

// --- Session DTOs ---

// OpenSessionRequest asks for a session bound to a tab. Sessions sharing a
// scope share one conversation store; an empty scope means "default".
type OpenSessionRequest struct {
	TabID int    `json:"tab_id"`
	Scope string `json:"scope,omitempty"`
}

// SessionResponse carries the session id and the token scoping later calls to it.
type SessionResponse struct {
	SessionID   string `json:"session_id"`
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// --- Conversation DTOs ---

// CreateConversationRequest defines the body for creating a conversation.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// SendMessageRequest defines the body for sending a chat message.
// The page snapshot is taken from Page when present, otherwise collected from HTML;
// with neither, the unreachable-page fallback built from TabTitle is used.
type SendMessageRequest struct {
	Text     string       `json:"text"`
	Page     *PageContext `json:"page,omitempty"`
	HTML     string       `json:"html,omitempty"`
	TabTitle string       `json:"tab_title,omitempty"`
}

// ConversationSummary is one entry of the conversation list.
type ConversationSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt int64  `json:"updatedAt"`
	Active    bool   `json:"active"`
}

// ConversationView is the rendered state of a session's conversation panel.
type ConversationView struct {
	Conversations []ConversationSummary `json:"conversations"`
	Active        *Conversation         `json:"active,omitempty"`
	Status        string                `json:"status"`
	StatusKind    string                `json:"statusKind,omitempty"`
}

// PreviewResponse carries the human-readable preview of a field mapping.
type PreviewResponse struct {
	Preview string `json:"preview"`
}

// CopyResponse carries the clipboard text for a field mapping.
type CopyResponse struct {
	Text string `json:"text"`
}

// --- Settings DTOs ---

// SaveSettingsRequest is the options screen form. A nil APIKey keeps the stored
// key; an empty one removes it.
type SaveSettingsRequest struct {
	AIEndpoint  string   `json:"aiEndpoint"`
	APIKey      *string  `json:"apiKey,omitempty"`
	AIModel     string   `json:"aiModel"`
	Temperature *float64 `json:"temperature"`
	DebugMode   bool     `json:"debugMode"`
}

// SettingsResponse is the options screen view of the settings. The API key is never returned.
type SettingsResponse struct {
	AIEndpoint  string   `json:"aiEndpoint"`
	HasAPIKey   bool     `json:"hasApiKey"`
	AIModel     string   `json:"aiModel"`
	Temperature *float64 `json:"temperature"`
	DebugMode   bool     `json:"debugMode"`
	MockMode    bool     `json:"mock_mode"`
}

// TestConnectionResponse reports the outcome of a settings connection test.
type TestConnectionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    FieldMapping `json:"data,omitempty"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
