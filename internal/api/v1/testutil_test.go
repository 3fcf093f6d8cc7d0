package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the principal into context for DoCtx
// ---------------------------------------------------------------------------

func ownerCtx(address string) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyOwnerAddress, address)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	frogs    domain.FrogRepository
	sessions domain.ChatSessionRepository
	messages domain.ChatMessageRepository
}

func (m *mockDataStore) Frogs() domain.FrogRepository           { return m.frogs }
func (m *mockDataStore) Sessions() domain.ChatSessionRepository { return m.sessions }
func (m *mockDataStore) Messages() domain.ChatMessageRepository { return m.messages }

// ---------------------------------------------------------------------------
// Mock FrogRepository
// ---------------------------------------------------------------------------

type mockFrogRepo struct {
	createFunc       func(ctx context.Context, f *domain.Frog) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Frog, error)
	getByTokenIDFunc func(ctx context.Context, tokenID int64) (*domain.Frog, error)
	listByOwnerFunc  func(ctx context.Context, ownerAddress string) ([]*domain.Frog, error)
	updateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.FrogStatus) error
}

func (m *mockFrogRepo) Create(ctx context.Context, f *domain.Frog) error {
	return m.createFunc(ctx, f)
}

func (m *mockFrogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Frog, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockFrogRepo) GetByTokenID(ctx context.Context, tokenID int64) (*domain.Frog, error) {
	return m.getByTokenIDFunc(ctx, tokenID)
}

func (m *mockFrogRepo) ListByOwner(ctx context.Context, ownerAddress string) ([]*domain.Frog, error) {
	return m.listByOwnerFunc(ctx, ownerAddress)
}

func (m *mockFrogRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FrogStatus) error {
	return m.updateStatusFunc(ctx, id, status)
}

// ---------------------------------------------------------------------------
// Mock ChatSessionRepository
// ---------------------------------------------------------------------------

type mockSessionRepo struct {
	createFunc      func(ctx context.Context, s *domain.ChatSession) error
	getByOwnerFunc  func(ctx context.Context, id uuid.UUID, ownerAddress string) (*domain.ChatSession, error)
	listByOwnerFunc func(ctx context.Context, ownerAddress string, limit int) ([]*domain.ChatSession, error)
	touchFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.ChatSession) error {
	return m.createFunc(ctx, s)
}

func (m *mockSessionRepo) GetByOwner(ctx context.Context, id uuid.UUID, ownerAddress string) (*domain.ChatSession, error) {
	return m.getByOwnerFunc(ctx, id, ownerAddress)
}

func (m *mockSessionRepo) ListByOwner(ctx context.Context, ownerAddress string, limit int) ([]*domain.ChatSession, error) {
	return m.listByOwnerFunc(ctx, ownerAddress, limit)
}

func (m *mockSessionRepo) Touch(ctx context.Context, id uuid.UUID) error {
	return m.touchFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock ChatMessageRepository
// ---------------------------------------------------------------------------

type mockMessageRepo struct {
	appendFunc        func(ctx context.Context, msg *domain.ChatMessage) error
	listBySessionFunc func(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.ChatMessage, error)
}

func (m *mockMessageRepo) Append(ctx context.Context, msg *domain.ChatMessage) error {
	return m.appendFunc(ctx, msg)
}

func (m *mockMessageRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.ChatMessage, error) {
	return m.listBySessionFunc(ctx, sessionID, limit)
}

// ---------------------------------------------------------------------------
// Mock TurnOrchestrator
// ---------------------------------------------------------------------------

type mockOrchestrator struct {
	processTurnFunc       func(ctx context.Context, req dialog.TurnRequest) (*dialog.TurnResult, error)
	processTurnStreamFunc func(ctx context.Context, req dialog.TurnRequest) <-chan dialog.Event
}

func (m *mockOrchestrator) ProcessTurn(ctx context.Context, req dialog.TurnRequest) (*dialog.TurnResult, error) {
	return m.processTurnFunc(ctx, req)
}

func (m *mockOrchestrator) ProcessTurnStream(ctx context.Context, req dialog.TurnRequest) <-chan dialog.Event {
	return m.processTurnStreamFunc(ctx, req)
}

// eventStream builds a closed event channel for stream stubs.
func eventStream(events ...dialog.Event) <-chan dialog.Event {
	ch := make(chan dialog.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}
