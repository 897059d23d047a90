package repositories

import (
	"context"

	"garbanzo/internal/domain/models"
)

// ConversationRepository persists conversation rows.
// Every lookup excludes soft-deleted conversations and enforces ownership.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	// Get returns the conversation owned by userID, or domain.ErrNotFound.
	Get(ctx context.Context, conversationID, userID string) (*models.Conversation, error)
	// List returns one page of the user's conversations ordered by
	// updated_at descending, plus the total count before paging.
	List(ctx context.Context, userID string, page, pageSize int) ([]models.Conversation, int, error)
	Update(ctx context.Context, conv *models.Conversation) error
	SoftDelete(ctx context.Context, conversationID, userID string) error
	// Touch bumps updated_at to now.
	Touch(ctx context.Context, conversationID string) error
}

// MessageRepository persists the append-only message log of a conversation.
type MessageRepository interface {
	// Append inserts one message. The caller decides the transaction scope.
	Append(ctx context.Context, msg *models.Message) error
	// ListByConversation returns all messages ordered by creation time ascending.
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}
