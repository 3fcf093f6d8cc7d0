// Package providers implements the per-intent data sources the dialog
// orchestrator dispatches to.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zetafrog/ribbit/internal/domain"
)

// Quote is a cached market quote for one token.
type Quote struct {
	Symbol    string    `json:"symbol"`
	PriceUSD  float64   `json:"price_usd"`
	Change24h float64   `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}

// QuoteCache abstracts the TTL cache in front of the price upstream.
// *redis.Cache satisfies this interface.
type QuoteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// coinIDs maps token symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"ETH":   "ethereum",
	"BTC":   "bitcoin",
	"ZETA":  "zetachain",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
	"SHIB":  "shiba-inu",
}

// PriceClient fetches quotes from a CoinGecko-style API with a short TTL
// cache in front of it.
type PriceClient struct {
	baseURL    string
	httpClient *http.Client
	cache      QuoteCache // may be nil
	ttl        time.Duration
}

func NewPriceClient(baseURL string, cache QuoteCache, ttl time.Duration) *PriceClient {
	return &PriceClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		ttl:        ttl,
	}
}

// Quote returns the current quote for a symbol, serving from cache when
// fresh.
func (c *PriceClient) Quote(ctx context.Context, symbol string) (any, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	coinID, ok := coinIDs[symbol]
	if !ok {
		return nil, fmt.Errorf("providers.PriceClient.Quote: unknown symbol %q: %w", symbol, domain.ErrNotFound)
	}

	if cached, ok := c.fromCache(ctx, symbol); ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true", c.baseURL, coinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("providers.PriceClient.Quote: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("providers.PriceClient.Quote: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("providers.PriceClient.Quote: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var payload map[string]map[string]float64
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("providers.PriceClient.Quote: decode: %w", err)
	}

	entry, ok := payload[coinID]
	if !ok {
		return nil, fmt.Errorf("providers.PriceClient.Quote: empty payload for %s: %w", coinID, domain.ErrUpstream)
	}

	quote := &Quote{
		Symbol:    symbol,
		PriceUSD:  entry["usd"],
		Change24h: entry["usd_24h_change"],
		FetchedAt: time.Now(),
	}
	c.toCache(ctx, symbol, quote)

	return quote, nil
}

func (c *PriceClient) fromCache(ctx context.Context, symbol string) (*Quote, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, err := c.cache.Get(ctx, "price:"+symbol)
	if err != nil {
		return nil, false
	}

	var quote Quote
	if err = json.Unmarshal(raw, &quote); err != nil {
		return nil, false
	}
	return &quote, true
}

func (c *PriceClient) toCache(ctx context.Context, symbol string, quote *Quote) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(quote)
	if err != nil {
		return
	}
	if err = c.cache.Set(ctx, "price:"+symbol, raw, c.ttl); err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("providers: price cache write failed")
	}
}
