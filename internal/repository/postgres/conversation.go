package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
)

// PostgresConversationRepository implements the ConversationRepository
// interface using PostgreSQL. Every read excludes soft-deleted rows and
// filters on the owning user.
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository.
func NewConversationRepository(config *RepositoryConfig) repositories.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new conversation row.
func (r *PostgresConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, model, created_at, updated_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING created_at, updated_at
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.Model,
		conv.CreatedAt,
		conv.UpdatedAt,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %s: %w", conv.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// Get retrieves a non-deleted conversation owned by userID.
func (r *PostgresConversationRepository) Get(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, model, created_at, updated_at, is_deleted
		FROM %s
		WHERE id = $1 AND user_id = $2 AND is_deleted = false
	`, r.tables.Conversations)

	var conv models.Conversation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, conversationID, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.Model,
		&conv.CreatedAt,
		&conv.UpdatedAt,
		&conv.IsDeleted,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// List retrieves one page of the user's conversations ordered by
// updated_at descending, plus the pre-paging total.
func (r *PostgresConversationRepository) List(ctx context.Context, userID string, page, pageSize int) ([]models.Conversation, int, error) {
	executor := GetExecutor(ctx, r.pool)

	countQuery := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE user_id = $1 AND is_deleted = false
	`, r.tables.Conversations)

	var total int
	if err := executor.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, title, model, created_at, updated_at, is_deleted
		FROM %s
		WHERE user_id = $1 AND is_deleted = false
		ORDER BY updated_at DESC
		OFFSET $2 LIMIT $3
	`, r.tables.Conversations)

	rows, err := executor.Query(ctx, query, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.Model,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.IsDeleted,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations: %w", err)
	}

	if conversations == nil {
		conversations = []models.Conversation{}
	}
	return conversations, total, nil
}

// Update writes a conversation's mutable fields.
func (r *PostgresConversationRepository) Update(ctx context.Context, conv *models.Conversation) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, model = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5 AND is_deleted = false
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		conv.Title,
		conv.Model,
		conv.UpdatedAt,
		conv.ID,
		conv.UserID,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDelete hides a conversation from all later queries.
func (r *PostgresConversationRepository) SoftDelete(ctx context.Context, conversationID, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = true, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND is_deleted = false
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, time.Now(), conversationID, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}
	return nil
}

// Touch bumps updated_at to now.
func (r *PostgresConversationRepository) Touch(ctx context.Context, conversationID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET updated_at = $1 WHERE id = $2
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, time.Now(), conversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
