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

type FrogRepo struct {
	pool *pgxpool.Pool
}

func NewFrogRepo(pool *pgxpool.Pool) *FrogRepo {
	return &FrogRepo{pool: pool}
}

const frogColumns = `id, token_id, owner_address, name, personality, status, level, xp, total_travels, created_at, updated_at`

func scanFrog(row pgx.Row) (*domain.Frog, error) {
	var f domain.Frog
	err := row.Scan(
		&f.ID, &f.TokenID, &f.OwnerAddress, &f.Name, &f.Personality,
		&f.Status, &f.Level, &f.XP, &f.TotalTravels, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FrogRepo) Create(ctx context.Context, f *domain.Frog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO frogs (id, token_id, owner_address, name, personality, status, level, xp, total_travels, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		f.ID, f.TokenID, strings.ToLower(f.OwnerAddress), f.Name, f.Personality,
		f.Status, f.Level, f.XP, f.TotalTravels, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("frogRepo.Create: %w", err)
	}

	return nil
}

func (r *FrogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Frog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+frogColumns+` FROM frogs WHERE id = $1`, id)

	f, err := scanFrog(row)
	if err != nil {
		return nil, fmt.Errorf("frogRepo.GetByID: %w", err)
	}

	return f, nil
}

func (r *FrogRepo) GetByTokenID(ctx context.Context, tokenID int64) (*domain.Frog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+frogColumns+` FROM frogs WHERE token_id = $1`, tokenID)

	f, err := scanFrog(row)
	if err != nil {
		return nil, fmt.Errorf("frogRepo.GetByTokenID: %w", err)
	}

	return f, nil
}

func (r *FrogRepo) ListByOwner(ctx context.Context, ownerAddress string) ([]*domain.Frog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+frogColumns+` FROM frogs WHERE owner_address = $1 ORDER BY token_id ASC`,
		strings.ToLower(ownerAddress),
	)
	if err != nil {
		return nil, fmt.Errorf("frogRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var frogs []*domain.Frog
	for rows.Next() {
		var f domain.Frog

		err = rows.Scan(
			&f.ID, &f.TokenID, &f.OwnerAddress, &f.Name, &f.Personality,
			&f.Status, &f.Level, &f.XP, &f.TotalTravels, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("frogRepo.ListByOwner: scan: %w", err)
		}
		frogs = append(frogs, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("frogRepo.ListByOwner: rows: %w", err)
	}

	return frogs, nil
}

func (r *FrogRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FrogStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE frogs SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("frogRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("frogRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}
