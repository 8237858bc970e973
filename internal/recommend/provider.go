// internal/recommend/provider.go
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tablespin/tablespin/internal/models"
)

// Provider supplies normalized restaurant recommendations for a location and
// mood. Implementations wrap whatever upstream search or model API is
// configured; the lobby core never calls a Provider itself. Hosts fetch
// recommendations and push the result into their lobby.
type Provider interface {
	Recommend(ctx context.Context, location, mood string) ([]models.Restaurant, error)
}

// HTTPProvider fetches recommendations from a single upstream endpoint that
// already returns the canonical restaurant shape. Extraction heuristics for
// raw model output live upstream, not here.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPProviderFromEnv builds a provider from RECS_API_URL and
// RECS_API_KEY. A missing URL is an error so the caller can run without
// recommendations rather than with a broken provider.
func NewHTTPProviderFromEnv() (*HTTPProvider, error) {
	base := os.Getenv("RECS_API_URL")
	if base == "" {
		return nil, fmt.Errorf("RECS_API_URL environment variable not set")
	}
	return &HTTPProvider{
		BaseURL: base,
		APIKey:  os.Getenv("RECS_API_KEY"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Recommend queries the upstream and decodes its restaurant list.
func (p *HTTPProvider) Recommend(ctx context.Context, location, mood string) ([]models.Restaurant, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("mood", mood)
	q.Set("num", "10")
	if p.APIKey != "" {
		q.Set("api_key", p.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommendation upstream returned %s", resp.Status)
	}

	var payload struct {
		Restaurants []models.Restaurant `json:"restaurants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}
	return payload.Restaurants, nil
}
