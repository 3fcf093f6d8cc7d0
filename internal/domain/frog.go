package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FrogStatus tracks what the companion is currently doing.
type FrogStatus string

const (
	FrogStatusIdle      FrogStatus = "idle"
	FrogStatusTraveling FrogStatus = "traveling"
	FrogStatusSleeping  FrogStatus = "sleeping"
)

// Personality selects the reply voice used when generating responses.
type Personality string

const (
	PersonalityPhilosopher Personality = "philosopher"
	PersonalityComedian    Personality = "comedian"
	PersonalityPoet        Personality = "poet"
	PersonalityGossip      Personality = "gossip"
)

// Frog is the on-chain pet companion an owner chats with.
type Frog struct {
	ID           uuid.UUID   `json:"id"`
	TokenID      int64       `json:"token_id"`
	OwnerAddress string      `json:"owner_address"`
	Name         string      `json:"name"`
	Personality  Personality `json:"personality"`
	Status       FrogStatus  `json:"status"`
	Level        int         `json:"level"`
	XP           int         `json:"xp"`
	TotalTravels int         `json:"total_travels"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// FrogRepository stores and retrieves companions.
type FrogRepository interface {
	Create(ctx context.Context, f *Frog) error
	GetByID(ctx context.Context, id uuid.UUID) (*Frog, error)
	GetByTokenID(ctx context.Context, tokenID int64) (*Frog, error)
	ListByOwner(ctx context.Context, ownerAddress string) ([]*Frog, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status FrogStatus) error
}
