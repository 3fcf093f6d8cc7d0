package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zetafrog/ribbit/internal/domain"
)

// AssetClient fetches wallet holdings from an external indexer. When no
// indexer is configured every call degrades like any other upstream failure.
type AssetClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAssetClient(baseURL string) *AssetClient {
	return &AssetClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Snapshot returns the holdings of one wallet address.
func (c *AssetClient) Snapshot(ctx context.Context, ownerAddress string) (any, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("providers.AssetClient.Snapshot: no indexer configured: %w", domain.ErrUpstream)
	}

	url := fmt.Sprintf("%s/addresses/%s/balances", c.baseURL, strings.ToLower(ownerAddress))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("providers.AssetClient.Snapshot: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("providers.AssetClient.Snapshot: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("providers.AssetClient.Snapshot: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var payload any
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("providers.AssetClient.Snapshot: decode: %w", err)
	}

	return payload, nil
}
