package models

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message represents a single entry in a conversation.
// Timestamp is the creation order key and addresses the message inside its conversation,
// so it is unique per conversation.
type Message struct {
	Sender    Sender        `json:"sender"`
	Content   string        `json:"content"`
	Timestamp int64         `json:"timestamp"`          // Unix milliseconds
	JSONData  FieldMapping  `json:"jsonData,omitempty"` // Field mapping returned by the model
	Targets   []TargetField `json:"targets,omitempty"`  // Targets the mapping was produced for
	Error     bool          `json:"error,omitempty"`
}
