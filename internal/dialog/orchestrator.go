package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/llm"
)

// minReplyRunes is the shortest generated reply accepted as a real answer.
// Anything shorter is replaced by the canned reply for the intent.
const minReplyRunes = 10

// sessionTitleRunes caps the auto-derived session title length.
const sessionTitleRunes = 30

// PriceProvider fetches a market quote for a token symbol.
type PriceProvider interface {
	Quote(ctx context.Context, symbol string) (any, error)
}

// AssetProvider fetches the wallet holdings snapshot for an owner address.
type AssetProvider interface {
	Snapshot(ctx context.Context, ownerAddress string) (any, error)
}

// FrogDataProvider fetches companion-owned data for intent grounding.
type FrogDataProvider interface {
	Status(ctx context.Context, frogID uuid.UUID) (any, error)
	Travels(ctx context.Context, frogID uuid.UUID) (any, error)
	TravelStats(ctx context.Context, frogID uuid.UUID) (any, error)
	PrepareTravel(ctx context.Context, frog *domain.Frog, durationSeconds int64) (any, error)
	Friends(ctx context.Context, frogID uuid.UUID) (any, error)
	Souvenirs(ctx context.Context, frogID uuid.UUID) (any, error)
	Badges(ctx context.Context, frogID uuid.UUID) (any, error)
	Garden(ctx context.Context, frogID uuid.UUID) (any, error)
	BoardMessages(ctx context.Context, frogID uuid.UUID) (any, error)
}

// Providers bundles the data sources the orchestrator dispatches to.
type Providers struct {
	Prices   PriceProvider
	Assets   AssetProvider
	FrogData FrogDataProvider
}

// TurnRequest is one user utterance addressed to a frog.
type TurnRequest struct {
	OwnerAddress string
	FrogRef      string // numeric token ID or session-scoped UUID
	SessionID    *uuid.UUID
	Text         string
}

// TurnResult is the completed outcome of one turn.
type TurnResult struct {
	SessionID uuid.UUID           `json:"session_id"`
	Intent    domain.IntentResult `json:"intent"`
	Mood      domain.Mood         `json:"mood"`
	Reply     string              `json:"reply"`
	Data      any                 `json:"data,omitempty"`
}

type fetchFunc func(ctx context.Context, frog *domain.Frog, params map[string]any) (any, error)

// Orchestrator drives one conversational turn end to end: resolve and
// authorize the frog, resolve the session, persist the user message, load
// context, classify, fetch intent data, generate the reply, persist it.
type Orchestrator struct {
	frogs      domain.FrogRepository
	sessions   domain.ChatSessionRepository
	messages   domain.ChatMessageRepository
	classifier *Classifier
	contexts   *ContextManager
	gen        llm.Generator
	providers  Providers
	handlers   map[domain.Intent]fetchFunc
}

func NewOrchestrator(
	frogs domain.FrogRepository,
	sessions domain.ChatSessionRepository,
	messages domain.ChatMessageRepository,
	classifier *Classifier,
	contexts *ContextManager,
	gen llm.Generator,
	providers Providers,
) *Orchestrator {
	o := &Orchestrator{
		frogs:      frogs,
		sessions:   sessions,
		messages:   messages,
		classifier: classifier,
		contexts:   contexts,
		gen:        gen,
		providers:  providers,
	}
	o.handlers = o.buildHandlers()
	return o
}

// buildHandlers maps every taxonomy intent to its data fetcher. Conversational
// intents carry a nil fetcher and skip the data step.
func (o *Orchestrator) buildHandlers() map[domain.Intent]fetchFunc {
	p := o.providers
	return map[domain.Intent]fetchFunc{
		domain.IntentPriceQuery: func(ctx context.Context, _ *domain.Frog, params map[string]any) (any, error) {
			symbol := paramString(params, "symbol")
			if symbol == "" {
				symbol = "ZETA"
			}
			return p.Prices.Quote(ctx, symbol)
		},
		domain.IntentAssetQuery: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.Assets.Snapshot(ctx, frog.OwnerAddress)
		},
		domain.IntentFrogStatus: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Status(ctx, frog.ID)
		},
		domain.IntentTravelInfo: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Travels(ctx, frog.ID)
		},
		domain.IntentTravelStats: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.TravelStats(ctx, frog.ID)
		},
		domain.IntentStartTravel: func(ctx context.Context, frog *domain.Frog, params map[string]any) (any, error) {
			return p.FrogData.PrepareTravel(ctx, frog, paramInt64(params, "duration_seconds"))
		},
		domain.IntentFriendList: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Friends(ctx, frog.ID)
		},
		domain.IntentFriendAdd: func(_ context.Context, _ *domain.Frog, params map[string]any) (any, error) {
			return map[string]any{"action": "friend_add", "params": params}, nil
		},
		domain.IntentFriendVisit: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Friends(ctx, frog.ID)
		},
		domain.IntentSouvenirsQuery: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Souvenirs(ctx, frog.ID)
		},
		domain.IntentBadgesQuery: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Badges(ctx, frog.ID)
		},
		domain.IntentGardenQuery: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.Garden(ctx, frog.ID)
		},
		domain.IntentMessagesQuery: func(ctx context.Context, frog *domain.Frog, _ map[string]any) (any, error) {
			return p.FrogData.BoardMessages(ctx, frog.ID)
		},
		domain.IntentNavigate: func(_ context.Context, _ *domain.Frog, params map[string]any) (any, error) {
			return map[string]any{"action": "navigate", "target": paramString(params, "target")}, nil
		},
		domain.IntentHelp:     nil,
		domain.IntentChitchat: nil,
		domain.IntentUnknown:  nil,
	}
}

// ProcessTurn runs one turn synchronously and returns the full result.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	frog, err := o.resolveFrog(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := o.resolveSession(ctx, req, frog)
	if err != nil {
		return nil, err
	}

	result, cctx := o.classifyTurn(ctx, session, req.Text)
	data := o.fetchData(ctx, frog, result)

	reply := o.generateReply(ctx, frog, cctx, req.Text, result.Intent, data)

	o.persistAssistant(ctx, session, result.Intent, reply)

	return &TurnResult{
		SessionID: session.ID,
		Intent:    result,
		Mood:      domain.MoodFor(result.Intent),
		Reply:     reply,
		Data:      data,
	}, nil
}

// ProcessTurnStream runs one turn and emits the ordered event sequence:
// session, intent, data (when fetched), reply chunks, then exactly one of
// done or error. The channel is closed after the terminal event.
func (o *Orchestrator) ProcessTurnStream(ctx context.Context, req TurnRequest) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		fail := func(err error) {
			emit(Event{Type: EventError, Data: ErrorEventData{Message: userErrorMessage(err)}})
		}

		frog, err := o.resolveFrog(ctx, req)
		if err != nil {
			fail(err)
			return
		}

		session, err := o.resolveSession(ctx, req, frog)
		if err != nil {
			fail(err)
			return
		}
		if !emit(Event{Type: EventSession, Data: SessionEventData{SessionID: session.ID.String()}}) {
			return
		}

		result, cctx := o.classifyTurn(ctx, session, req.Text)
		if !emit(Event{Type: EventIntent, Data: result}) {
			return
		}

		data := o.fetchData(ctx, frog, result)
		if data != nil {
			if !emit(Event{Type: EventData, Data: data}) {
				return
			}
		}

		reply := o.streamReply(ctx, frog, cctx, req.Text, result.Intent, data, emit)

		o.persistAssistant(ctx, session, result.Intent, reply)

		emit(Event{Type: EventDone, Data: &TurnResult{
			SessionID: session.ID,
			Intent:    result,
			Mood:      domain.MoodFor(result.Intent),
			Reply:     reply,
			Data:      data,
		}})
	}()

	return events
}

// resolveFrog looks up the frog by token ID or UUID and checks ownership.
// Authorization runs before any persistence, fetch, or generation.
func (o *Orchestrator) resolveFrog(ctx context.Context, req TurnRequest) (*domain.Frog, error) {
	ref := strings.TrimSpace(req.FrogRef)
	if ref == "" {
		return nil, fmt.Errorf("orchestrator.resolveFrog: empty frog ref: %w", domain.ErrValidation)
	}

	var (
		frog *domain.Frog
		err  error
	)
	if tokenID, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		frog, err = o.frogs.GetByTokenID(ctx, tokenID)
	} else if id, uuidErr := uuid.Parse(ref); uuidErr == nil {
		frog, err = o.frogs.GetByID(ctx, id)
	} else {
		return nil, fmt.Errorf("orchestrator.resolveFrog: invalid frog ref %q: %w", ref, domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrator.resolveFrog: %w", err)
	}

	if !strings.EqualFold(frog.OwnerAddress, req.OwnerAddress) {
		return nil, fmt.Errorf("orchestrator.resolveFrog: frog %s not owned by caller: %w", frog.ID, domain.ErrForbidden)
	}

	return frog, nil
}

// resolveSession returns the caller's existing session, or silently creates
// a fresh one when the requested session is missing or owned by someone
// else. Conversation always proceeds.
func (o *Orchestrator) resolveSession(ctx context.Context, req TurnRequest, frog *domain.Frog) (*domain.ChatSession, error) {
	if req.SessionID != nil {
		session, err := o.sessions.GetByOwner(ctx, *req.SessionID, req.OwnerAddress)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("orchestrator.resolveSession: %w", err)
		}
		log.Debug().Str("session_id", req.SessionID.String()).Msg("dialog: requested session unavailable, creating a new one")
	}

	session := &domain.ChatSession{
		ID:           uuid.New(),
		OwnerAddress: strings.ToLower(req.OwnerAddress),
		FrogID:       frog.ID,
		Title:        truncateRunes(strings.TrimSpace(req.Text), sessionTitleRunes),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := o.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("orchestrator.resolveSession: create: %w", err)
	}

	return session, nil
}

// classifyTurn persists the user message, loads context, classifies, and
// applies the context override for anaphoric follow-ups.
func (o *Orchestrator) classifyTurn(ctx context.Context, session *domain.ChatSession, text string) (domain.IntentResult, Context) {
	userMsg := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := o.messages.Append(ctx, userMsg); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("dialog: user message persist failed, continuing")
	}

	cctx := o.contexts.Build(ctx, session.ID)
	result := o.classifier.Classify(ctx, text)

	// A follow-up classified as small talk inherits the previous intent.
	// Freshly extracted parameters win over the classifier's.
	if result.Intent == domain.IntentChitchat && o.contexts.NeedsReference(text) {
		if inferred, ok := o.contexts.Infer(text, cctx); ok {
			merged := map[string]any{}
			for k, v := range result.Params {
				merged[k] = v
			}
			for k, v := range inferred.Params {
				merged[k] = v
			}
			inferred.Params = merged
			result = inferred
		}
	}

	return result, cctx
}

// fetchData dispatches to the intent's data provider. Provider failures
// degrade to nil so the reply is generated without grounding data.
func (o *Orchestrator) fetchData(ctx context.Context, frog *domain.Frog, result domain.IntentResult) any {
	fn, ok := o.handlers[result.Intent]
	if !ok || fn == nil {
		return nil
	}

	data, err := fn(ctx, frog, result.Params)
	if err != nil {
		log.Warn().Err(err).
			Str("intent", string(result.Intent)).
			Str("frog_id", frog.ID.String()).
			Msg("dialog: intent data fetch failed, replying without data")
		return nil
	}
	return data
}

// generateReply produces the assistant text, replacing failures and
// too-short output with the canned reply for the intent.
func (o *Orchestrator) generateReply(ctx context.Context, frog *domain.Frog, cctx Context, text string, intent domain.Intent, data any) string {
	msgs := append(historyMessages(cctx, text), llm.Message{
		Role:    domain.RoleUser,
		Content: buildTaskPrompt(text, intent, data),
	})

	reply, err := o.gen.Generate(ctx, buildSystemPrompt(frog), msgs)
	if err != nil {
		log.Warn().Err(err).Str("intent", string(intent)).Msg("dialog: generation failed, using canned reply")
		return fallbackReply(intent, frog.Personality)
	}
	reply = strings.TrimSpace(reply)
	if utf8.RuneCountInString(reply) < minReplyRunes {
		return fallbackReply(intent, frog.Personality)
	}
	return reply
}

// streamReply streams assistant chunks through emit and returns the full
// reply text. When generation fails or is too short, the canned reply is
// emitted as a single chunk instead.
func (o *Orchestrator) streamReply(ctx context.Context, frog *domain.Frog, cctx Context, text string, intent domain.Intent, data any, emit func(Event) bool) string {
	msgs := append(historyMessages(cctx, text), llm.Message{
		Role:    domain.RoleUser,
		Content: buildTaskPrompt(text, intent, data),
	})

	content, errs := o.gen.GenerateStream(ctx, buildSystemPrompt(frog), msgs)

	var b strings.Builder
	var emitted int
	for delta := range content {
		if !emit(Event{Type: EventChunk, Data: ChunkEventData{Content: delta}}) {
			break
		}
		b.WriteString(delta)
		emitted++
	}
	genErr := <-errs

	reply := strings.TrimSpace(b.String())
	if genErr == nil && utf8.RuneCountInString(reply) >= minReplyRunes {
		return reply
	}

	if genErr != nil {
		log.Warn().Err(genErr).Str("intent", string(intent)).Msg("dialog: streaming generation failed, using canned reply")
	}
	canned := fallbackReply(intent, frog.Personality)
	if emitted == 0 {
		emit(Event{Type: EventChunk, Data: ChunkEventData{Content: canned}})
	}
	return canned
}

// persistAssistant stores the reply and bumps the session's recency. Both
// are best-effort; the turn result is already determined.
func (o *Orchestrator) persistAssistant(ctx context.Context, session *domain.ChatSession, intent domain.Intent, reply string) {
	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Intent:    intent,
		CreatedAt: time.Now(),
	}
	if err := o.messages.Append(ctx, msg); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("dialog: assistant message persist failed")
	}
	if err := o.sessions.Touch(ctx, session.ID); err != nil {
		log.Debug().Err(err).Str("session_id", session.ID.String()).Msg("dialog: session touch failed")
	}
}

// historyMessages converts context messages into generation history,
// dropping the just-persisted copy of the current utterance.
func historyMessages(cctx Context, currentText string) []llm.Message {
	msgs := cctx.Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleUser && msgs[n-1].Content == currentText {
		msgs = msgs[:n-1]
	}

	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// userErrorMessage maps an error to the text shown in a stream error event.
func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid request"
	case errors.Is(err, domain.ErrNotFound):
		return "frog not found"
	case errors.Is(err, domain.ErrForbidden):
		return "you do not own this frog"
	default:
		return "something went wrong, please try again"
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func paramInt64(params map[string]any, key string) int64 {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
