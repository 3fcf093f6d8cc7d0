package v1

import (
	"context"

	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Frogs() domain.FrogRepository
	Sessions() domain.ChatSessionRepository
	Messages() domain.ChatMessageRepository
}

// TurnOrchestrator abstracts dialog turn processing for handler testing.
// *dialog.Orchestrator satisfies this interface.
type TurnOrchestrator interface {
	ProcessTurn(ctx context.Context, req dialog.TurnRequest) (*dialog.TurnResult, error)
	ProcessTurnStream(ctx context.Context, req dialog.TurnRequest) <-chan dialog.Event
}
