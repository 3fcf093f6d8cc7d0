package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetafrog/ribbit/internal/domain"
)

// defaultTravelSeconds is used when an utterance does not name a duration.
const defaultTravelSeconds int64 = 2 * 3600

// travelDestinations is the pool random trips draw from.
var travelDestinations = []string{
	"雾气弥漫的荷塘",
	"山顶的观星台",
	"废弃的灯塔",
	"樱花盛开的小镇",
	"地底的水晶洞穴",
	"海边的渔村集市",
	"长满蘑菇的森林",
	"热闹的链上嘉年华",
}

// FrogData serves companion-owned intent data straight from Postgres.
type FrogData struct {
	pool *pgxpool.Pool
}

func NewFrogData(pool *pgxpool.Pool) *FrogData {
	return &FrogData{pool: pool}
}

func (d *FrogData) Status(ctx context.Context, frogID uuid.UUID) (any, error) {
	var (
		name, status          string
		level, xp, totalTrips int
	)
	err := d.pool.QueryRow(ctx,
		`SELECT name, status, level, xp, total_travels FROM frogs WHERE id = $1`,
		frogID,
	).Scan(&name, &status, &level, &xp, &totalTrips)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Status: %w", err)
	}

	return map[string]any{
		"name":          name,
		"status":        status,
		"level":         level,
		"xp":            xp,
		"total_travels": totalTrips,
	}, nil
}

func (d *FrogData) Travels(ctx context.Context, frogID uuid.UUID) (any, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT destination, started_at, ended_at, xp_earned
		 FROM travels WHERE frog_id = $1
		 ORDER BY started_at DESC
		 LIMIT 5`,
		frogID,
	)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Travels: %w", err)
	}
	defer rows.Close()

	var travels []map[string]any
	for rows.Next() {
		var (
			destination string
			startedAt   time.Time
			endedAt     *time.Time
			xpEarned    int
		)
		if err = rows.Scan(&destination, &startedAt, &endedAt, &xpEarned); err != nil {
			return nil, fmt.Errorf("providers.FrogData.Travels: scan: %w", err)
		}
		travels = append(travels, map[string]any{
			"destination": destination,
			"started_at":  startedAt,
			"ended_at":    endedAt,
			"xp_earned":   xpEarned,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providers.FrogData.Travels: rows: %w", err)
	}

	return travels, nil
}

func (d *FrogData) TravelStats(ctx context.Context, frogID uuid.UUID) (any, error) {
	var (
		total        int
		totalXP      int
		destinations int
	)
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(xp_earned), 0), COUNT(DISTINCT destination)
		 FROM travels WHERE frog_id = $1`,
		frogID,
	).Scan(&total, &totalXP, &destinations)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.TravelStats: %w", err)
	}

	return map[string]any{
		"total_travels":       total,
		"total_xp_earned":     totalXP,
		"unique_destinations": destinations,
	}, nil
}

// PrepareTravel assembles the start-travel action for the client to submit.
// A frog that is not idle gets a refusal payload instead of an error so the
// reply can explain why.
func (d *FrogData) PrepareTravel(_ context.Context, frog *domain.Frog, durationSeconds int64) (any, error) {
	if frog.Status != domain.FrogStatusIdle {
		return map[string]any{
			"can_travel": false,
			"reason":     string(frog.Status),
		}, nil
	}

	if durationSeconds <= 0 {
		durationSeconds = defaultTravelSeconds
	}

	return map[string]any{
		"can_travel":       true,
		"action":           "start_travel",
		"token_id":         frog.TokenID,
		"destination":      travelDestinations[rand.IntN(len(travelDestinations))],
		"duration_seconds": durationSeconds,
		"is_random":        true,
	}, nil
}

func (d *FrogData) Friends(ctx context.Context, frogID uuid.UUID) (any, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT f.token_id, f.name, f.status
		 FROM friendships fr
		 JOIN frogs f ON f.id = fr.friend_id
		 WHERE fr.frog_id = $1
		 ORDER BY fr.created_at ASC`,
		frogID,
	)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Friends: %w", err)
	}
	defer rows.Close()

	var friends []map[string]any
	for rows.Next() {
		var (
			tokenID      int64
			name, status string
		)
		if err = rows.Scan(&tokenID, &name, &status); err != nil {
			return nil, fmt.Errorf("providers.FrogData.Friends: scan: %w", err)
		}
		friends = append(friends, map[string]any{
			"token_id": tokenID,
			"name":     name,
			"status":   status,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providers.FrogData.Friends: rows: %w", err)
	}

	return friends, nil
}

func (d *FrogData) Souvenirs(ctx context.Context, frogID uuid.UUID) (any, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT name, origin, rarity, acquired_at
		 FROM souvenirs WHERE frog_id = $1
		 ORDER BY acquired_at DESC`,
		frogID,
	)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Souvenirs: %w", err)
	}
	defer rows.Close()

	var souvenirs []map[string]any
	for rows.Next() {
		var (
			name, origin, rarity string
			acquiredAt           time.Time
		)
		if err = rows.Scan(&name, &origin, &rarity, &acquiredAt); err != nil {
			return nil, fmt.Errorf("providers.FrogData.Souvenirs: scan: %w", err)
		}
		souvenirs = append(souvenirs, map[string]any{
			"name":        name,
			"origin":      origin,
			"rarity":      rarity,
			"acquired_at": acquiredAt,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providers.FrogData.Souvenirs: rows: %w", err)
	}

	return souvenirs, nil
}

func (d *FrogData) Badges(ctx context.Context, frogID uuid.UUID) (any, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT name, description, earned_at
		 FROM badges WHERE frog_id = $1
		 ORDER BY earned_at ASC`,
		frogID,
	)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Badges: %w", err)
	}
	defer rows.Close()

	var badges []map[string]any
	for rows.Next() {
		var (
			name, description string
			earnedAt          time.Time
		)
		if err = rows.Scan(&name, &description, &earnedAt); err != nil {
			return nil, fmt.Errorf("providers.FrogData.Badges: scan: %w", err)
		}
		badges = append(badges, map[string]any{
			"name":        name,
			"description": description,
			"earned_at":   earnedAt,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providers.FrogData.Badges: rows: %w", err)
	}

	return badges, nil
}

func (d *FrogData) Garden(ctx context.Context, frogID uuid.UUID) (any, error) {
	var (
		plants  int
		bloomed int
	)
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN stage = 'bloomed' THEN 1 ELSE 0 END), 0)
		 FROM garden_plants WHERE frog_id = $1`,
		frogID,
	).Scan(&plants, &bloomed)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.Garden: %w", err)
	}

	return map[string]any{
		"plants":  plants,
		"bloomed": bloomed,
	}, nil
}

func (d *FrogData) BoardMessages(ctx context.Context, frogID uuid.UUID) (any, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT author_address, content, created_at
		 FROM board_messages WHERE frog_id = $1
		 ORDER BY created_at DESC
		 LIMIT 5`,
		frogID,
	)
	if err != nil {
		return nil, fmt.Errorf("providers.FrogData.BoardMessages: %w", err)
	}
	defer rows.Close()

	var messages []map[string]any
	for rows.Next() {
		var (
			author, content string
			createdAt       time.Time
		)
		if err = rows.Scan(&author, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("providers.FrogData.BoardMessages: scan: %w", err)
		}
		messages = append(messages, map[string]any{
			"author":     author,
			"content":    content,
			"created_at": createdAt,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providers.FrogData.BoardMessages: rows: %w", err)
	}

	return messages, nil
}
