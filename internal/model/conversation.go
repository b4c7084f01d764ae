package model

import "time"

// Message roles. Messages are append-only; this service never mutates or
// deletes them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a conversation session. Sessions are identified by a
// caller-supplied opaque string and created implicitly on first message.
type Session struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message is a single chat message within a session, ordered by timestamp
// ascending.
type Message struct {
	ID        int64     `json:"-" db:"id"`
	SessionID string    `json:"-" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
