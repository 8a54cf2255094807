package exchange

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/ratelimit"
	phttp "CoinPulse/pkg/http"
)

const defaultCoinGeckoURL = "https://api.coingecko.com"

// CoinGecko is a REST adapter for the CoinGecko simple price API.
// It is slower than the exchange feeds but covers assets with no
// direct USD pair.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *phttp.Client
	limiter *ratelimit.Limiter
}

// CoinGeckoOption configures the adapter.
type CoinGeckoOption func(*CoinGecko)

// NewCoinGecko creates a CoinGecko adapter.
func NewCoinGecko(opts ...CoinGeckoOption) *CoinGecko {
	g := &CoinGecko{
		baseURL: defaultCoinGeckoURL,
		client:  phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithCoinGeckoURL overrides the API base URL.
func WithCoinGeckoURL(url string) CoinGeckoOption {
	return func(g *CoinGecko) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithCoinGeckoKey sets the demo API key header.
func WithCoinGeckoKey(key string) CoinGeckoOption {
	return func(g *CoinGecko) { g.apiKey = key }
}

// WithCoinGeckoLimiter sets a request rate limiter.
func WithCoinGeckoLimiter(l *ratelimit.Limiter) CoinGeckoOption {
	return func(g *CoinGecko) { g.limiter = l }
}

var _ drepo.QuoteFetcher = (*CoinGecko)(nil)

// Name implements QuoteFetcher.
func (g *CoinGecko) Name() string { return "coingecko" }

type coinGeckoEntry struct {
	USD       float64 `json:"usd"`
	USDVol    float64 `json:"usd_24h_vol"`
	USDChange float64 `json:"usd_24h_change"`
}

// FetchQuote fetches the simple price for the symbol's CoinGecko id.
func (g *CoinGecko) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.Name()); err != nil {
			return nil, err
		}
	}

	id, err := coinGeckoID(symbol)
	if err != nil {
		return nil, err
	}

	opts := &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    g.baseURL + "/api/v3/simple/price",
		QueryParams: map[string]string{
			"ids":                 id,
			"vs_currencies":       "usd",
			"include_24hr_vol":    "true",
			"include_24hr_change": "true",
		},
	}
	if g.apiKey != "" {
		opts.Headers = map[string]string{"x-cg-demo-api-key": g.apiKey}
	}

	var resp map[string]coinGeckoEntry
	if err := g.client.SendAndParse(ctx, opts, &resp); err != nil {
		return nil, fmt.Errorf("coingecko price: %w", err)
	}

	entry, ok := resp[id]
	if !ok || entry.USD <= 0 {
		return nil, fmt.Errorf("coingecko price: no data for %s", id)
	}

	return &models.Quote{
		Source:    g.Name(),
		Price:     entry.USD,
		Volume24h: entry.USDVol,
		Change24h: entry.USDChange,
		FetchedAt: time.Now().UTC(),
	}, nil
}
