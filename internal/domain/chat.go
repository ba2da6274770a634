package domain

// MessageType tells who authored a message.
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeAI   MessageType = "ai"
)

// Message is a single persisted chat message. Messages are written in
// user/ai pairs and never updated.
type Message struct {
	SessionID string      `json:"sessionId"`
	Timestamp int64       `json:"timestamp"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
}

// Key returns the primary key of the message.
func (m Message) Key() MessageKey {
	return MessageKey{SessionID: m.SessionID, Timestamp: m.Timestamp}
}

// MessageKey identifies a message within the messages table.
type MessageKey struct {
	SessionID string
	Timestamp int64
}
