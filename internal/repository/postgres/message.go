package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
)

// PostgresMessageRepository implements the MessageRepository interface
// using PostgreSQL. Messages are append-only; there is no update path.
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository.
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts one message row.
func (r *PostgresMessageRepository) Append(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, conversation_id, role, content, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Meta, // pgx handles map -> JSONB (nil becomes NULL)
		msg.CreatedAt,
	).Scan(&msg.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %s: %w", msg.ConversationID, domain.ErrNotFound)
		}
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListByConversation retrieves all messages of a conversation ordered by
// creation time ascending.
func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, conversation_id, role, content, meta, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Meta, // pgx handles JSONB -> map
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
