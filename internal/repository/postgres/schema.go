package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the users, conversations, and messages tables if they
// do not exist yet. Conversation rows cascade to their messages.
func InitSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				email VARCHAR(255) PRIMARY KEY,
				hashed_password VARCHAR(255) NOT NULL,
				full_name VARCHAR(100),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL REFERENCES %s(email) ON DELETE CASCADE,
				title VARCHAR(200),
				model VARCHAR(100) NOT NULL DEFAULT 'llama3.2',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				is_deleted BOOLEAN NOT NULL DEFAULT false
			)
		`, tables.Conversations, tables.Users),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_user_id_idx ON %s (user_id)
		`, tables.Conversations, tables.Conversations),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				conversation_id VARCHAR(36) NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				role VARCHAR(20) NOT NULL,
				content TEXT NOT NULL,
				meta JSONB,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.Messages, tables.Conversations),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_conversation_id_idx ON %s (conversation_id)
		`, tables.Messages, tables.Messages),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
