package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetafrog/ribbit/internal/domain"
)

type Store struct {
	pool     *pgxpool.Pool
	frogs    *FrogRepo
	sessions *ChatSessionRepo
	messages *ChatMessageRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:     pool,
		frogs:    NewFrogRepo(pool),
		sessions: NewChatSessionRepo(pool),
		messages: NewChatMessageRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying connection pool for read-side providers.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Frogs() domain.FrogRepository           { return s.frogs }
func (s *Store) Sessions() domain.ChatSessionRepository { return s.sessions }
func (s *Store) Messages() domain.ChatMessageRepository { return s.messages }
