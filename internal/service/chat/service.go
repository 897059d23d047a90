package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
	"garbanzo/internal/service/llm"
)

// Service orchestrates one chat turn: it persists the user's message,
// forwards the conversation history to the configured generation backend,
// relays streamed chunks to the caller, and persists the final assistant
// message. Conversation CRUD lives in the conversation service; this
// service only appends turns.
type Service struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	txManager     repositories.TransactionManager
	providers     *llm.Registry
	cancels       *CancelRegistry
	backendName   string
	logger        *slog.Logger
}

// NewService creates a new chat streaming service.
func NewService(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	txManager repositories.TransactionManager,
	providers *llm.Registry,
	cancels *CancelRegistry,
	backendName string,
	logger *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		txManager:     txManager,
		providers:     providers,
		cancels:       cancels,
		backendName:   backendName,
		logger:        logger,
	}
}

// SendMessage appends a user turn to the conversation and streams the
// assistant's response as canonical chunks.
//
// The returned channel always ends with a terminal chunk. A missing or
// foreign-owned conversation is reported as a streamed not_found terminal
// chunk with nothing written. A failure to persist the user message is the
// only path that returns a synchronous error after this point - no stream
// has begun, so there is nothing to report one on.
//
// The assistant message commits in its own transaction after the stream
// ends: full accumulated content on a clean finish, partial content on
// cancellation, nothing on a backend failure. The cancellation registry
// entry is removed on every exit path.
func (s *Service) SendMessage(ctx context.Context, conversationID, userID, content string, opts *llm.ChatOptions) (<-chan llm.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}
	if opts == nil {
		opts = llm.DefaultChatOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	conv, err := s.conversations.Get(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return singleChunkStream(llm.ErrorChunk("Conversation not found", "not_found", nil)), nil
		}
		return nil, err
	}

	// The user's turn commits before any generation is attempted; if this
	// fails the whole call fails and nothing streams.
	userMessage := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.messages.Append(txCtx, userMessage); err != nil {
			return err
		}
		return s.conversations.Touch(txCtx, conversationID)
	})
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	signal := s.cancels.Register(conversationID)

	provider, ok := s.providers.Get(s.backendName)
	if !ok {
		s.cancels.Remove(conversationID)
		return nil, fmt.Errorf("unknown backend: %s", s.backendName)
	}

	s.logger.Info("stream starting",
		"conversation_id", conversationID,
		"backend", s.backendName,
		"model", conv.Model,
		"history_len", len(history),
	)

	stream := provider.StreamChat(ctx, buildMessageHistory(history), conv.Model, opts, signal)

	out := make(chan llm.Chunk)
	go s.relay(ctx, conversationID, stream, out)

	return out, nil
}

// relay consumes the adapter stream, forwards every chunk to the caller,
// accumulates answer text, and finalizes the assistant message once the
// adapter sequence ends.
func (s *Service) relay(ctx context.Context, conversationID string, stream <-chan llm.Chunk, out chan<- llm.Chunk) {
	defer s.cancels.Remove(conversationID)
	defer close(out)

	var full strings.Builder
	var metadata map[string]any
	failed := false

	for chunk := range stream {
		if chunk.Done {
			metadata = chunk.Metadata
			if chunk.IsError() {
				failed = true
			}
		} else if !chunk.Thinking {
			full.WriteString(chunk.Content)
		}

		select {
		case out <- chunk:
		case <-ctx.Done():
			// Caller went away mid-stream. Nothing more can be delivered
			// and the adapter's request dies with the same context; skip
			// finalization and let the user turn stand on its own.
			s.logger.Warn("caller disconnected mid-stream", "conversation_id", conversationID)
			return
		}
	}

	if failed {
		// No assistant turn is recorded for a failed generation.
		s.logger.Error("generation failed, skipping assistant message",
			"conversation_id", conversationID,
		)
		return
	}

	if full.Len() == 0 {
		return
	}

	// A cancelled stream still lands here: whatever answer text accumulated
	// before the signal fired is saved as a partial assistant message.
	assistantMessage := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        full.String(),
		Meta:           metadata,
		CreatedAt:      time.Now(),
	}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.messages.Append(txCtx, assistantMessage); err != nil {
			return err
		}
		return s.conversations.Touch(txCtx, conversationID)
	})
	if err != nil {
		// The content already reached the caller; all that can be done is
		// report that it could not be saved.
		s.logger.Error("failed to persist assistant message",
			"conversation_id", conversationID,
			"error", err,
		)
		select {
		case out <- llm.ErrorChunk(fmt.Sprintf("failed to save response: %v", err), "persistence_error", nil):
		case <-ctx.Done():
		}
		return
	}

	s.logger.Info("turn complete",
		"conversation_id", conversationID,
		"response_chars", full.Len(),
	)
}

// Cancel signals the conversation's active stream to stop. Returns false
// when no stream is active; that is a report, not an error.
func (s *Service) Cancel(conversationID string) bool {
	cancelled := s.cancels.Cancel(conversationID)
	s.logger.Info("cancel requested",
		"conversation_id", conversationID,
		"found", cancelled,
	)
	return cancelled
}

// ListAvailableModels returns the configured backend's model catalog.
// Best-effort: an unreachable backend yields an empty list.
func (s *Service) ListAvailableModels(ctx context.Context) []llm.ModelInfo {
	provider, ok := s.providers.Get(s.backendName)
	if !ok {
		return []llm.ModelInfo{}
	}
	return provider.ListModels(ctx)
}

// HealthCheck probes every registered backend and reports name -> reachable.
func (s *Service) HealthCheck(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	for _, name := range s.providers.List() {
		if provider, ok := s.providers.Get(name); ok {
			results[name] = provider.HealthCheck(ctx)
		}
	}
	return results
}

// buildMessageHistory converts stored messages to the backend wire shape.
func buildMessageHistory(history []models.Message) []llm.Message {
	messages := make([]llm.Message, len(history))
	for i, msg := range history {
		messages[i] = llm.Message{Role: msg.Role, Content: msg.Content}
	}
	return messages
}

// singleChunkStream returns a closed-after-one-chunk stream.
func singleChunkStream(chunk llm.Chunk) <-chan llm.Chunk {
	out := make(chan llm.Chunk, 1)
	out <- chunk
	close(out)
	return out
}
