package dialog

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/domain"
)

// contextWindow caps how many recent messages inform a turn.
const contextWindow = 10

// Context is the short conversational memory for one turn.
type Context struct {
	Messages   []*domain.ChatMessage
	LastIntent domain.Intent
}

// ContextManager loads recent history and resolves anaphoric follow-ups
// ("那BTC呢", "what about BTC") against the previous intent.
type ContextManager struct {
	messages domain.ChatMessageRepository
}

func NewContextManager(messages domain.ChatMessageRepository) *ContextManager {
	return &ContextManager{messages: messages}
}

// referencePatterns match follow-up utterances that only make sense relative
// to the previous turn.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^那(?:个|这|.{0,3})呢`),
	regexp.MustCompile(`^还有吗`),
	regexp.MustCompile(`^继续`),
	regexp.MustCompile(`^再来一个`),
	regexp.MustCompile(`^换一个`),
	regexp.MustCompile(`^其他的呢`),
	regexp.MustCompile(`^(?:这个|那个)怎么样`),
	regexp.MustCompile(`^(?:它|他|她)(?:的|是)`),
	regexp.MustCompile(`(?i)^what about\b`),
	regexp.MustCompile(`(?i)^(?:and|how about)\s`),
	regexp.MustCompile(`(?i)^(?:it|that one)\b`),
	regexp.MustCompile(`(?i)^another one\b`),
	regexp.MustCompile(`(?i)^continue$`),
}

// followUpSymbols is the whitelist of symbols recognized inside follow-ups.
var followUpSymbols = []string{"BTC", "ETH", "ZETA", "USDT", "BNB", "SOL"}

// Build loads up to contextWindow recent messages, oldest first, and derives
// the most recent recorded intent. Store failures degrade to an empty
// context so the turn proceeds without memory.
func (m *ContextManager) Build(ctx context.Context, sessionID uuid.UUID) Context {
	msgs, err := m.messages.ListBySession(ctx, sessionID, contextWindow)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("dialog: context load failed, continuing without history")
		return Context{}
	}
	if len(msgs) > contextWindow {
		msgs = msgs[len(msgs)-contextWindow:]
	}

	c := Context{Messages: msgs}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Intent != "" && msgs[i].Intent.IsValid() {
			c.LastIntent = msgs[i].Intent
			break
		}
	}
	return c
}

// NeedsReference reports whether the utterance is an anaphoric follow-up.
func (m *ContextManager) NeedsReference(text string) bool {
	text = strings.TrimSpace(text)
	for _, p := range referencePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Infer resolves a follow-up against the prior intent. It reuses the last
// recorded intent at follow-up confidence and extracts any fresh parameters
// from the new utterance. Returns false when there is nothing to inherit.
func (m *ContextManager) Infer(text string, c Context) (domain.IntentResult, bool) {
	if c.LastIntent == "" {
		return domain.IntentResult{}, false
	}

	result := domain.IntentResult{
		Intent:     c.LastIntent,
		Confidence: followUpConfidence,
		Params:     map[string]any{},
	}

	if sym, ok := extractFollowUpSymbol(text); ok {
		result.Params["symbol"] = sym
	}

	return result, true
}

// followUpConfidence is assigned to every context-inferred classification.
const followUpConfidence = 0.7

var followUpCapture = regexp.MustCompile(`(?:那|换)(.{1,5})(?:呢|吧)?`)

func extractFollowUpSymbol(text string) (string, bool) {
	upper := strings.ToUpper(text)

	// Direct whitelist hit covers both "那BTC呢" and "what about BTC".
	for _, sym := range followUpSymbols {
		if strings.Contains(upper, sym) {
			return sym, true
		}
	}

	// Chinese capture form with an aliased token name, e.g. "换比特币呢".
	if match := followUpCapture.FindStringSubmatch(text); match != nil {
		if sym, ok := resolveSymbolAlias(match[1]); ok {
			return sym, true
		}
	}

	return "", false
}
