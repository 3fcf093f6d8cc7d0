package dialog

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/domain"
	"github.com/zetafrog/ribbit/internal/llm"
)

// Classifier maps a user utterance to one taxonomy intent. A generative
// attempt runs first; any failure falls through to the keyword cascade so
// classification never errors out.
type Classifier struct {
	gen llm.Generator
}

func NewClassifier(gen llm.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify resolves the utterance to an intent. Empty input short-circuits
// to unknown without touching the upstream model. Exactly one generative
// attempt is made per call.
func (c *Classifier) Classify(ctx context.Context, text string) domain.IntentResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.IntentResult{Intent: domain.IntentUnknown, Confidence: 1.0}
	}

	if result, ok := c.classifyGenerative(ctx, text); ok {
		return result
	}

	return classifyByRules(text)
}

func (c *Classifier) classifyGenerative(ctx context.Context, text string) (domain.IntentResult, bool) {
	raw, err := c.gen.Generate(ctx, classifySystemPrompt, []llm.Message{{Role: "user", Content: text}})
	if err != nil {
		log.Debug().Err(err).Msg("dialog: generative classification unavailable, using keyword rules")
		return domain.IntentResult{}, false
	}

	var parsed domain.IntentResult
	if err = json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		log.Debug().Err(err).Str("raw", raw).Msg("dialog: unparseable classification output, using keyword rules")
		return domain.IntentResult{}, false
	}

	// Out-of-taxonomy labels collapse to small talk rather than erroring.
	if !parsed.Intent.IsValid() {
		return domain.IntentResult{
			Intent:     domain.IntentChitchat,
			Confidence: 0.5,
			Params:     map[string]any{"topic": text},
		}, true
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return parsed, true
}

// stripCodeFence removes a markdown code fence the model may wrap around its
// JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ---------------------------------------------------------------------------
// Keyword cascade
// ---------------------------------------------------------------------------

// knownSymbols are recognized token tickers, checked as substrings of the
// uppercased utterance.
var knownSymbols = []string{"ETH", "BTC", "ZETA", "USDT", "USDC", "ARB", "OP", "SOL", "BNB", "MATIC"}

// symbolAliases maps natural-language token names to tickers. Longer aliases
// are listed first so "以太坊" wins over "以太".
var symbolAliases = []struct {
	alias  string
	symbol string
}{
	{"以太坊", "ETH"},
	{"以太", "ETH"},
	{"比特币", "BTC"},
	{"大饼", "BTC"},
	{"柴犬", "SHIB"},
	{"币安币", "BNB"},
	{"马蹄", "MATIC"},
}

func resolveSymbolAlias(text string) (string, bool) {
	for _, a := range symbolAliases {
		if strings.Contains(text, a.alias) {
			return a.symbol, true
		}
	}
	return "", false
}

func extractSymbol(text string) (string, bool) {
	if sym, ok := resolveSymbolAlias(text); ok {
		return sym, true
	}
	upper := strings.ToUpper(text)
	for _, sym := range knownSymbols {
		if strings.Contains(upper, sym) {
			return sym, true
		}
	}
	return "", false
}

var (
	travelKeywords = []string{"旅行", "旅游", "出门", "出去", "travel", "trip"}
	friendKeywords = []string{"朋友", "好友", "friend"}
	statusKeywords = []string{"状态", "怎么样", "在干嘛", "在做什么", "status", "how are"}
	helpKeywords   = []string{"帮助", "怎么用", "教程", "你能做什么", "help"}

	hourPattern   = regexp.MustCompile(`(\d+)\s*(?:个)?小时`)
	minutePattern = regexp.MustCompile(`(\d+)\s*分(?:钟)?`)
	dayPattern    = regexp.MustCompile(`(\d+)\s*天`)
)

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractDuration pulls a travel duration in seconds out of the utterance.
func extractDuration(text string) (int64, bool) {
	if m := hourPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return n * 3600, true
		}
	}
	if m := minutePattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return n * 60, true
		}
	}
	if m := dayPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return n * 86400, true
		}
	}
	return 0, false
}

// classifyByRules runs the ordered keyword cascade. First match wins; the
// final rule always matches so every utterance gets an intent.
func classifyByRules(text string) domain.IntentResult {
	if sym, ok := extractSymbol(text); ok {
		return domain.IntentResult{
			Intent:     domain.IntentPriceQuery,
			Confidence: 0.7,
			Params:     map[string]any{"symbol": sym},
		}
	}

	if containsAny(text, travelKeywords) {
		params := map[string]any{"is_random": true}
		if secs, ok := extractDuration(text); ok {
			params["duration_seconds"] = secs
		}
		return domain.IntentResult{
			Intent:     domain.IntentStartTravel,
			Confidence: 0.6,
			Params:     params,
		}
	}

	if containsAny(text, friendKeywords) {
		return domain.IntentResult{Intent: domain.IntentFriendList, Confidence: 0.6}
	}

	if containsAny(text, statusKeywords) {
		return domain.IntentResult{Intent: domain.IntentFrogStatus, Confidence: 0.6}
	}

	if containsAny(text, helpKeywords) {
		return domain.IntentResult{Intent: domain.IntentHelp, Confidence: 0.8}
	}

	return domain.IntentResult{
		Intent:     domain.IntentChitchat,
		Confidence: 0.5,
		Params:     map[string]any{"topic": text},
	}
}
