package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetafrog/ribbit/internal/domain"
)

type ChatMessageRepo struct {
	pool *pgxpool.Pool
}

func NewChatMessageRepo(pool *pgxpool.Pool) *ChatMessageRepo {
	return &ChatMessageRepo{pool: pool}
}

func (r *ChatMessageRepo) Append(ctx context.Context, m *domain.ChatMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, intent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SessionID, m.Role, m.Content, string(m.Intent), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("chatMessageRepo.Append: %w", err)
	}

	return nil
}

// ListBySession returns the newest messages of a session in ascending
// creation order. The inner query selects the newest rows; the outer query
// restores oldest-first order for prompt assembly.
func (r *ChatMessageRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, content, intent, created_at FROM (
		   SELECT id, session_id, role, content, intent, created_at
		   FROM chat_messages WHERE session_id = $1
		   ORDER BY created_at DESC
		   LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chatMessageRepo.ListBySession: %w", err)
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var intent string

		err = rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &intent, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("chatMessageRepo.ListBySession: scan: %w", err)
		}
		m.Intent = domain.Intent(intent)
		messages = append(messages, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("chatMessageRepo.ListBySession: rows: %w", err)
	}

	return messages, nil
}
