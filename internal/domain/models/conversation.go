package models

import "time"

// Conversation is a chat thread between a user and the assistant.
// Soft-deleted conversations are excluded from every query that loads them.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Title     *string   `json:"title" db:"title"`
	Model     string    `json:"model" db:"model"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	IsDeleted bool      `json:"-" db:"is_deleted"`

	// Messages is populated only when history is explicitly loaded.
	Messages []Message `json:"messages,omitempty"`
}

// Message roles. Role is immutable once a message is written.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn entry within a conversation. Messages are
// append-only and totally ordered by creation time.
type Message struct {
	ID             string         `json:"id" db:"id"`
	ConversationID string         `json:"-" db:"conversation_id"`
	Role           string         `json:"role" db:"role"`
	Content        string         `json:"content" db:"content"`
	Meta           map[string]any `json:"meta,omitempty" db:"meta"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
