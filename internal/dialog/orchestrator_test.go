package dialog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetafrog/ribbit/internal/dialog"
	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/llm"
)

const (
	ownerAddr  = "0xAbCd000000000000000000000000000000001234"
	longReply  = "呱！今天的池塘特别安静，适合想一些大问题。"
	classified = "意图分类器"
)

func makeFrog() *domain.Frog {
	return &domain.Frog{
		ID:           uuid.New(),
		TokenID:      7,
		OwnerAddress: strings.ToLower(ownerAddr),
		Name:         "碧池",
		Personality:  domain.PersonalityPhilosopher,
		Status:       domain.FrogStatusIdle,
		Level:        3,
	}
}

type orchestratorFixture struct {
	frogs    *mockFrogRepo
	sessions *mockSessionRepo
	messages *memMessageRepo
	gen      *mockGenerator
	frogData *mockFrogDataProvider
	prices   *mockPriceProvider
	assets   *mockAssetProvider
}

// newFixture wires an orchestrator whose generator answers classification
// with classifyOut (or an error when empty) and replies with longReply.
func newFixture(t *testing.T, frog *domain.Frog, classifyOut string) (*dialog.Orchestrator, *orchestratorFixture) {
	t.Helper()

	f := &orchestratorFixture{
		frogs: &mockFrogRepo{
			getByTokenIDFunc: func(_ context.Context, tokenID int64) (*domain.Frog, error) {
				if tokenID == frog.TokenID {
					return frog, nil
				}
				return nil, domain.ErrNotFound
			},
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Frog, error) {
				if id == frog.ID {
					return frog, nil
				}
				return nil, domain.ErrNotFound
			},
		},
		sessions: &mockSessionRepo{},
		messages: &memMessageRepo{},
		prices: &mockPriceProvider{
			quoteFunc: func(_ context.Context, symbol string) (any, error) {
				return map[string]any{"symbol": symbol, "price_usd": 2345.67}, nil
			},
		},
		assets: &mockAssetProvider{
			snapshotFunc: func(_ context.Context, _ string) (any, error) {
				return map[string]any{"zeta": "12.5"}, nil
			},
		},
		frogData: &mockFrogDataProvider{
			statusFunc: func(_ context.Context, _ uuid.UUID) (any, error) {
				return map[string]any{"status": "idle", "level": 3}, nil
			},
		},
	}

	f.gen = &mockGenerator{
		generateFunc: func(_ context.Context, system string, _ []llm.Message) (string, error) {
			if strings.Contains(system, classified) {
				if classifyOut == "" {
					return "", errUpstreamDown
				}
				return classifyOut, nil
			}
			return longReply, nil
		},
		streamFunc: func(_ context.Context, _ string, _ []llm.Message) (<-chan string, <-chan error) {
			return streamOf("呱！今天的池塘", "特别安静，", "适合想一些大问题。")
		},
	}

	orch := dialog.NewOrchestrator(
		f.frogs, f.sessions, f.messages,
		dialog.NewClassifier(f.gen),
		dialog.NewContextManager(f.messages),
		f.gen,
		dialog.Providers{Prices: f.prices, Assets: f.assets, FrogData: f.frogData},
	)
	return orch, f
}

func TestProcessTurn(t *testing.T) {
	t.Parallel()

	t.Run("price_query_end_to_end", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, f := newFixture(t, frog, "")

		var created *domain.ChatSession
		f.sessions.createFunc = func(_ context.Context, s *domain.ChatSession) error {
			created = s
			return nil
		}

		result, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "ETH多少钱",
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, created.ID, result.SessionID)
		assert.Equal(t, domain.IntentPriceQuery, result.Intent.Intent)
		assert.InDelta(t, 0.7, result.Intent.Confidence, 0.001)
		assert.Equal(t, "ETH", result.Intent.Params["symbol"])
		assert.Equal(t, domain.MoodThinking, result.Mood)
		assert.Equal(t, longReply, result.Reply)

		data, ok := result.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ETH", data["symbol"])

		// Both halves of the turn are persisted, oldest first.
		msgs, listErr := f.messages.ListBySession(context.Background(), created.ID, 10)
		require.NoError(t, listErr)
		require.Len(t, msgs, 2)
		assert.Equal(t, domain.RoleUser, msgs[0].Role)
		assert.Equal(t, "ETH多少钱", msgs[0].Content)
		assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
		assert.Equal(t, domain.IntentPriceQuery, msgs[1].Intent)
	})

	t.Run("ownership_mismatch_stops_before_side_effects", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		frog.OwnerAddress = "0x9999999999999999999999999999999999999999"
		orch, f := newFixture(t, frog, "")

		f.sessions.createFunc = func(_ context.Context, _ *domain.ChatSession) error {
			t.Fatal("session must not be created for unauthorized caller")
			return nil
		}
		f.prices.quoteFunc = func(_ context.Context, _ string) (any, error) {
			t.Fatal("no data fetch for unauthorized caller")
			return nil, nil
		}
		f.gen.generateFunc = func(_ context.Context, _ string, _ []llm.Message) (string, error) {
			t.Fatal("no generation for unauthorized caller")
			return "", nil
		}

		_, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "ETH多少钱",
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.messages.msgs)
	})

	t.Run("owner_match_is_case_insensitive", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, _ := newFixture(t, frog, "")

		_, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: strings.ToUpper(ownerAddr),
			FrogRef:      frog.ID.String(),
			Text:         "你好呀",
		})
		require.NoError(t, err)
	})

	t.Run("unknown_frog", func(t *testing.T) {
		t.Parallel()

		orch, _ := newFixture(t, makeFrog(), "")

		_, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "404",
			Text:         "hi",
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid_frog_ref", func(t *testing.T) {
		t.Parallel()

		orch, _ := newFixture(t, makeFrog(), "")

		_, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "not-a-ref",
			Text:         "hi",
		})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing_session_fails_open", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, f := newFixture(t, frog, "")

		requested := uuid.New()
		f.sessions.getByOwnerFunc = func(_ context.Context, id uuid.UUID, _ string) (*domain.ChatSession, error) {
			assert.Equal(t, requested, id)
			return nil, domain.ErrNotFound
		}
		var created *domain.ChatSession
		f.sessions.createFunc = func(_ context.Context, s *domain.ChatSession) error {
			created = s
			return nil
		}

		result, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			SessionID:    &requested,
			Text:         "你好",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEqual(t, requested, result.SessionID)
		assert.Equal(t, created.ID, result.SessionID)
	})

	t.Run("context_override_follow_up", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		// Generative classification labels the follow-up as small talk.
		orch, f := newFixture(t, frog, `{"intent":"chitchat","confidence":0.5,"params":{"topic":"那BTC呢"}}`)

		session := &domain.ChatSession{
			ID:           uuid.New(),
			OwnerAddress: strings.ToLower(ownerAddr),
			FrogID:       frog.ID,
		}
		f.sessions.getByOwnerFunc = func(_ context.Context, _ uuid.UUID, _ string) (*domain.ChatSession, error) {
			return session, nil
		}

		// First turn already on record: a price query about ETH.
		require.NoError(t, f.messages.Append(context.Background(), &domain.ChatMessage{
			ID: uuid.New(), SessionID: session.ID, Role: domain.RoleUser, Content: "ETH价格",
		}))
		require.NoError(t, f.messages.Append(context.Background(), &domain.ChatMessage{
			ID: uuid.New(), SessionID: session.ID, Role: domain.RoleAssistant,
			Content: "呱，ETH现在两千多刀。", Intent: domain.IntentPriceQuery,
		}))

		var quoted string
		f.prices.quoteFunc = func(_ context.Context, symbol string) (any, error) {
			quoted = symbol
			return map[string]any{"symbol": symbol, "price_usd": 65000.0}, nil
		}

		result, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			SessionID:    &session.ID,
			Text:         "那BTC呢",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.IntentPriceQuery, result.Intent.Intent)
		assert.InDelta(t, 0.7, result.Intent.Confidence, 0.001)
		assert.Equal(t, "BTC", result.Intent.Params["symbol"])
		assert.Equal(t, "BTC", quoted)
	})

	t.Run("short_reply_replaced_by_canned", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, f := newFixture(t, frog, "")
		f.gen.generateFunc = func(_ context.Context, system string, _ []llm.Message) (string, error) {
			if strings.Contains(system, classified) {
				return "", errUpstreamDown
			}
			return "呱。", nil
		}

		result, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "随便聊聊今天",
		})
		require.NoError(t, err)
		// Philosopher persona has its own small-talk canned line.
		assert.Equal(t, "呱...日子就像池塘的水，平静也是一种风景。", result.Reply)
	})

	t.Run("provider_failure_degrades_to_nil_data", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, f := newFixture(t, frog, "")
		f.prices.quoteFunc = func(_ context.Context, _ string) (any, error) {
			return nil, domain.ErrUpstream
		}

		result, err := orch.ProcessTurn(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "ETH多少钱",
		})
		require.NoError(t, err)
		assert.Nil(t, result.Data)
		assert.Equal(t, domain.IntentPriceQuery, result.Intent.Intent)
	})
}

func collectEvents(t *testing.T, events <-chan dialog.Event) []dialog.Event {
	t.Helper()
	var out []dialog.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestProcessTurnStream(t *testing.T) {
	t.Parallel()

	t.Run("ordered_events_single_done", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, _ := newFixture(t, frog, "")

		events := collectEvents(t, orch.ProcessTurnStream(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "ETH多少钱",
		}))

		require.NotEmpty(t, events)
		assert.Equal(t, dialog.EventSession, events[0].Type)
		assert.Equal(t, dialog.EventIntent, events[1].Type)
		assert.Equal(t, dialog.EventData, events[2].Type)

		var chunks, dones, errors int
		for _, ev := range events[3:] {
			switch ev.Type {
			case dialog.EventChunk:
				chunks++
			case dialog.EventDone:
				dones++
			case dialog.EventError:
				errors++
			}
		}
		assert.Equal(t, 3, chunks)
		assert.Equal(t, 1, dones)
		assert.Zero(t, errors)
		assert.Equal(t, dialog.EventDone, events[len(events)-1].Type)

		done, ok := events[len(events)-1].Data.(*dialog.TurnResult)
		require.True(t, ok)
		assert.Equal(t, "呱！今天的池塘特别安静，适合想一些大问题。", done.Reply)
		assert.Equal(t, domain.MoodThinking, done.Mood)
	})

	t.Run("unauthorized_emits_single_error", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		frog.OwnerAddress = "0x9999999999999999999999999999999999999999"
		orch, _ := newFixture(t, frog, "")

		events := collectEvents(t, orch.ProcessTurnStream(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "hi",
		}))

		require.Len(t, events, 1)
		assert.Equal(t, dialog.EventError, events[0].Type)
		payload, ok := events[0].Data.(dialog.ErrorEventData)
		require.True(t, ok)
		assert.Equal(t, "you do not own this frog", payload.Message)
	})

	t.Run("stream_failure_falls_back_to_canned_chunk", func(t *testing.T) {
		t.Parallel()

		frog := makeFrog()
		orch, f := newFixture(t, frog, "")
		f.gen.streamFunc = func(_ context.Context, _ string, _ []llm.Message) (<-chan string, <-chan error) {
			return streamError(errUpstreamDown)
		}

		events := collectEvents(t, orch.ProcessTurnStream(context.Background(), dialog.TurnRequest{
			OwnerAddress: ownerAddr,
			FrogRef:      "7",
			Text:         "你能做什么",
		}))

		var chunkContent string
		var dones int
		for _, ev := range events {
			switch ev.Type {
			case dialog.EventChunk:
				payload, ok := ev.Data.(dialog.ChunkEventData)
				require.True(t, ok)
				chunkContent += payload.Content
			case dialog.EventDone:
				dones++
			case dialog.EventError:
				t.Fatal("generation failure must not produce an error event")
			}
		}
		assert.Equal(t, 1, dones)
		assert.NotEmpty(t, chunkContent)
		assert.Contains(t, chunkContent, "呱")
	})
}
