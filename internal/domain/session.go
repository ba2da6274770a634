package domain

// DefaultSessionTitle is used when the first message of a session is empty.
const DefaultSessionTitle = "New Session"

// SessionIndexEntry lists a session without scanning its messages.
type SessionIndexEntry struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
}
