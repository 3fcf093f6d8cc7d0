package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message roles within a chat session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession groups the messages of one owner/frog conversation.
type ChatSession struct {
	ID           uuid.UUID `json:"id"`
	OwnerAddress string    `json:"owner_address"`
	FrogID       uuid.UUID `json:"frog_id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatMessage is a single persisted turn half. Intent is set on user
// messages once classified; assistant messages carry the intent that
// produced them.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    Intent    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSessionRepository stores conversation sessions keyed by owner.
type ChatSessionRepository interface {
	Create(ctx context.Context, s *ChatSession) error
	// GetByOwner returns the session only when it belongs to ownerAddress.
	GetByOwner(ctx context.Context, id uuid.UUID, ownerAddress string) (*ChatSession, error)
	ListByOwner(ctx context.Context, ownerAddress string, limit int) ([]*ChatSession, error)
	Touch(ctx context.Context, id uuid.UUID) error
}

// ChatMessageRepository stores ordered messages per session.
// ListBySession returns messages oldest first.
type ChatMessageRepository interface {
	Append(ctx context.Context, m *ChatMessage) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*ChatMessage, error)
}
