package dialog_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/llm"
)

// ---------------------------------------------------------------------------
// Mock Generator
// ---------------------------------------------------------------------------

type mockGenerator struct {
	generateFunc func(ctx context.Context, system string, msgs []llm.Message) (string, error)
	streamFunc   func(ctx context.Context, system string, msgs []llm.Message) (<-chan string, <-chan error)
}

func (m *mockGenerator) Generate(ctx context.Context, system string, msgs []llm.Message) (string, error) {
	return m.generateFunc(ctx, system, msgs)
}

func (m *mockGenerator) GenerateStream(ctx context.Context, system string, msgs []llm.Message) (<-chan string, <-chan error) {
	return m.streamFunc(ctx, system, msgs)
}

// streamOf builds a closed delta stream for streamFunc stubs.
func streamOf(deltas ...string) (<-chan string, <-chan error) {
	content := make(chan string, len(deltas))
	errs := make(chan error, 1)
	for _, d := range deltas {
		content <- d
	}
	close(content)
	close(errs)
	return content, errs
}

func streamError(err error) (<-chan string, <-chan error) {
	content := make(chan string)
	errs := make(chan error, 1)
	close(content)
	errs <- err
	close(errs)
	return content, errs
}

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
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, s)
}

func (m *mockSessionRepo) GetByOwner(ctx context.Context, id uuid.UUID, ownerAddress string) (*domain.ChatSession, error) {
	return m.getByOwnerFunc(ctx, id, ownerAddress)
}

func (m *mockSessionRepo) ListByOwner(ctx context.Context, ownerAddress string, limit int) ([]*domain.ChatSession, error) {
	return m.listByOwnerFunc(ctx, ownerAddress, limit)
}

func (m *mockSessionRepo) Touch(ctx context.Context, id uuid.UUID) error {
	if m.touchFunc == nil {
		return nil
	}
	return m.touchFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// In-memory ChatMessageRepository
// ---------------------------------------------------------------------------

type memMessageRepo struct {
	mu        sync.Mutex
	msgs      []*domain.ChatMessage
	appendErr error
	listErr   error
}

func (m *memMessageRepo) Append(_ context.Context, msg *domain.ChatMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.msgs = append(m.msgs, &cp)
	return nil
}

func (m *memMessageRepo) ListBySession(_ context.Context, sessionID uuid.UUID, limit int) ([]*domain.ChatMessage, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.ChatMessage
	for _, msg := range m.msgs {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Mock providers
// ---------------------------------------------------------------------------

type mockPriceProvider struct {
	quoteFunc func(ctx context.Context, symbol string) (any, error)
}

func (m *mockPriceProvider) Quote(ctx context.Context, symbol string) (any, error) {
	return m.quoteFunc(ctx, symbol)
}

type mockAssetProvider struct {
	snapshotFunc func(ctx context.Context, ownerAddress string) (any, error)
}

func (m *mockAssetProvider) Snapshot(ctx context.Context, ownerAddress string) (any, error) {
	return m.snapshotFunc(ctx, ownerAddress)
}

type mockFrogDataProvider struct {
	statusFunc        func(ctx context.Context, frogID uuid.UUID) (any, error)
	travelsFunc       func(ctx context.Context, frogID uuid.UUID) (any, error)
	travelStatsFunc   func(ctx context.Context, frogID uuid.UUID) (any, error)
	prepareTravelFunc func(ctx context.Context, frog *domain.Frog, durationSeconds int64) (any, error)
	friendsFunc       func(ctx context.Context, frogID uuid.UUID) (any, error)
	souvenirsFunc     func(ctx context.Context, frogID uuid.UUID) (any, error)
	badgesFunc        func(ctx context.Context, frogID uuid.UUID) (any, error)
	gardenFunc        func(ctx context.Context, frogID uuid.UUID) (any, error)
	boardMessagesFunc func(ctx context.Context, frogID uuid.UUID) (any, error)
}

func (m *mockFrogDataProvider) Status(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.statusFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) Travels(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.travelsFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) TravelStats(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.travelStatsFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) PrepareTravel(ctx context.Context, frog *domain.Frog, durationSeconds int64) (any, error) {
	return m.prepareTravelFunc(ctx, frog, durationSeconds)
}

func (m *mockFrogDataProvider) Friends(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.friendsFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) Souvenirs(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.souvenirsFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) Badges(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.badgesFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) Garden(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.gardenFunc(ctx, frogID)
}

func (m *mockFrogDataProvider) BoardMessages(ctx context.Context, frogID uuid.UUID) (any, error) {
	return m.boardMessagesFunc(ctx, frogID)
}
