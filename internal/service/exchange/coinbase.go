package exchange

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/ratelimit"
	phttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/util"
)

const defaultCoinbaseURL = "https://api.exchange.coinbase.com"

// Coinbase is a REST adapter for the Coinbase Exchange public API.
// The ticker endpoint has no 24h change, so the stats endpoint is
// queried alongside it.
type Coinbase struct {
	baseURL string
	client  *phttp.Client
	limiter *ratelimit.Limiter
}

// CoinbaseOption configures the adapter.
type CoinbaseOption func(*Coinbase)

// NewCoinbase creates a Coinbase adapter.
func NewCoinbase(opts ...CoinbaseOption) *Coinbase {
	c := &Coinbase{
		baseURL: defaultCoinbaseURL,
		client:  phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCoinbaseURL overrides the API base URL.
func WithCoinbaseURL(url string) CoinbaseOption {
	return func(c *Coinbase) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithCoinbaseLimiter sets a request rate limiter.
func WithCoinbaseLimiter(l *ratelimit.Limiter) CoinbaseOption {
	return func(c *Coinbase) { c.limiter = l }
}

var _ drepo.QuoteFetcher = (*Coinbase)(nil)

// Name implements QuoteFetcher.
func (c *Coinbase) Name() string { return "coinbase" }

type coinbaseTicker struct {
	Price string `json:"price"`
}

type coinbaseStats struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
}

// FetchQuote fetches ticker price plus 24h stats.
func (c *Coinbase) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.Name()); err != nil {
			return nil, err
		}
	}

	product := coinbaseProduct(symbol)

	var t coinbaseTicker
	if err := c.client.GetJSON(ctx, fmt.Sprintf("%s/products/%s/ticker", c.baseURL, product), nil, &t); err != nil {
		return nil, fmt.Errorf("coinbase ticker: %w", err)
	}

	price, ok := util.ParseFloat(t.Price)
	if !ok {
		return nil, fmt.Errorf("coinbase ticker: bad price %q", t.Price)
	}

	var s coinbaseStats
	if err := c.client.GetJSON(ctx, fmt.Sprintf("%s/products/%s/stats", c.baseURL, product), nil, &s); err != nil {
		return nil, fmt.Errorf("coinbase stats: %w", err)
	}

	var change float64
	if open, ok := util.ParseFloat(s.Open); ok && open > 0 {
		change = (price - open) / open * 100
	}

	return &models.Quote{
		Source:    c.Name(),
		Price:     price,
		Volume24h: util.ParseFloatDefault(s.Volume, 0),
		Change24h: change,
		High24h:   util.ParseFloatDefault(s.High, 0),
		Low24h:    util.ParseFloatDefault(s.Low, 0),
		FetchedAt: time.Now().UTC(),
	}, nil
}
