package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetafrog/ribbit/internal/domain"
)

type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

func (r *ChatSessionRepo) Create(ctx context.Context, s *domain.ChatSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, owner_address, frog_id, title, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, strings.ToLower(s.OwnerAddress), s.FrogID, s.Title, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("chatSessionRepo.Create: %w", err)
	}

	return nil
}

func (r *ChatSessionRepo) GetByOwner(ctx context.Context, id uuid.UUID, ownerAddress string) (*domain.ChatSession, error) {
	var s domain.ChatSession

	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_address, frog_id, title, created_at, updated_at
		 FROM chat_sessions WHERE id = $1 AND owner_address = $2`,
		id, strings.ToLower(ownerAddress),
	).Scan(&s.ID, &s.OwnerAddress, &s.FrogID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chatSessionRepo.GetByOwner: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("chatSessionRepo.GetByOwner: %w", err)
	}

	return &s, nil
}

func (r *ChatSessionRepo) ListByOwner(ctx context.Context, ownerAddress string, limit int) ([]*domain.ChatSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_address, frog_id, title, created_at, updated_at
		 FROM chat_sessions WHERE owner_address = $1
		 ORDER BY updated_at DESC
		 LIMIT $2`,
		strings.ToLower(ownerAddress), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chatSessionRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession

		err = rows.Scan(&s.ID, &s.OwnerAddress, &s.FrogID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("chatSessionRepo.ListByOwner: scan: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("chatSessionRepo.ListByOwner: rows: %w", err)
	}

	return sessions, nil
}

func (r *ChatSessionRepo) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("chatSessionRepo.Touch: %w", err)
	}

	return nil
}
