package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
)

// Default model for new conversations when the caller picks none.
const DefaultModel = "llama3.2"

// Titles defaulted from the first message are clipped to this many runes.
const titleClipLength = 50

// Service handles creation, retrieval, updating, and deletion of
// conversations. Messaging and streaming live in the chat service.
type Service struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	txManager     repositories.TransactionManager
	logger        *slog.Logger
}

// NewService creates a new conversation service.
func NewService(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		txManager:     txManager,
		logger:        logger,
	}
}

// Create starts a new conversation, optionally seeded with a first user
// message. A missing title defaults to a clipped copy of that message.
func (s *Service) Create(ctx context.Context, userID string, title *string, model string, initialMessage *string) (*models.Conversation, error) {
	if model == "" {
		model = DefaultModel
	}
	if title == nil && initialMessage != nil {
		clipped := clipTitle(*initialMessage)
		title = &clipped
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.conversations.Create(txCtx, conv); err != nil {
			return err
		}
		if initialMessage != nil && *initialMessage != "" {
			msg := &models.Message{
				ID:             uuid.New().String(),
				ConversationID: conv.ID,
				Role:           models.RoleUser,
				Content:        *initialMessage,
				CreatedAt:      now,
			}
			if err := s.messages.Append(txCtx, msg); err != nil {
				return err
			}
			conv.Messages = []models.Message{*msg}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.logger.Info("conversation created", "conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

// Get returns a conversation owned by userID, loading its message history
// when includeMessages is set.
func (s *Service) Get(ctx context.Context, conversationID, userID string, includeMessages bool) (*models.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if includeMessages {
		messages, err := s.messages.ListByConversation(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
		conv.Messages = messages
	}

	return conv, nil
}

// List returns one page of the user's conversations, newest activity
// first, plus the total count.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) ([]models.Conversation, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.conversations.List(ctx, userID, page, pageSize)
}

// Update changes a conversation's title and/or model. Nil fields are left
// untouched.
func (s *Service) Update(ctx context.Context, conversationID, userID string, title, model *string) (*models.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		conv.Title = title
	}
	if model != nil && *model != "" {
		conv.Model = *model
	}
	conv.UpdatedAt = time.Now()

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Delete soft-deletes a conversation, hiding it from every later query.
func (s *Service) Delete(ctx context.Context, conversationID, userID string) error {
	if err := s.conversations.SoftDelete(ctx, conversationID, userID); err != nil {
		return err
	}
	s.logger.Info("conversation deleted", "conversation_id", conversationID, "user_id", userID)
	return nil
}

func clipTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= titleClipLength {
		return message
	}
	return string(runes[:titleClipLength]) + "..."
}
