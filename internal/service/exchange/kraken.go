package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/ratelimit"
	phttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/util"
)

const defaultKrakenURL = "https://api.kraken.com"

// Kraken is a REST adapter for the Kraken public API. Kraken reports
// errors inside the JSON body rather than via HTTP status.
type Kraken struct {
	baseURL string
	client  *phttp.Client
	limiter *ratelimit.Limiter
}

// KrakenOption configures the adapter.
type KrakenOption func(*Kraken)

// NewKraken creates a Kraken adapter.
func NewKraken(opts ...KrakenOption) *Kraken {
	k := &Kraken{
		baseURL: defaultKrakenURL,
		client:  phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// WithKrakenURL overrides the API base URL.
func WithKrakenURL(url string) KrakenOption {
	return func(k *Kraken) {
		if url != "" {
			k.baseURL = url
		}
	}
}

// WithKrakenLimiter sets a request rate limiter.
func WithKrakenLimiter(l *ratelimit.Limiter) KrakenOption {
	return func(k *Kraken) { k.limiter = l }
}

var _ drepo.QuoteFetcher = (*Kraken)(nil)

// Name implements QuoteFetcher.
func (k *Kraken) Name() string { return "kraken" }

type krakenTicker struct {
	C []string `json:"c"` // last trade [price, lot volume]
	V []string `json:"v"` // volume [today, 24h]
	H []string `json:"h"` // high [today, 24h]
	L []string `json:"l"` // low [today, 24h]
	O string   `json:"o"` // today's opening price
}

type krakenResponse struct {
	Error  []string                `json:"error"`
	Result map[string]krakenTicker `json:"result"`
}

// FetchQuote fetches the public ticker. The result key is Kraken's own
// pair code, so the first (only) entry is taken.
func (k *Kraken) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if k.limiter != nil {
		if err := k.limiter.Wait(ctx, k.Name()); err != nil {
			return nil, err
		}
	}

	var resp krakenResponse
	url := k.baseURL + "/0/public/Ticker"
	query := map[string]string{"pair": krakenPair(symbol)}
	if err := k.client.GetJSON(ctx, url, query, &resp); err != nil {
		return nil, fmt.Errorf("kraken ticker: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("kraken ticker: %s", strings.Join(resp.Error, "; "))
	}

	var t krakenTicker
	found := false
	for _, v := range resp.Result {
		t = v
		found = true
		break
	}
	if !found || len(t.C) == 0 {
		return nil, fmt.Errorf("kraken ticker: empty result")
	}

	price, ok := util.ParseFloat(t.C[0])
	if !ok {
		return nil, fmt.Errorf("kraken ticker: bad price %q", t.C[0])
	}

	var change float64
	if open, ok := util.ParseFloat(t.O); ok && open > 0 {
		change = (price - open) / open * 100
	}

	q := &models.Quote{
		Source:    k.Name(),
		Price:     price,
		Change24h: change,
		FetchedAt: time.Now().UTC(),
	}
	if len(t.V) > 1 {
		q.Volume24h = util.ParseFloatDefault(t.V[1], 0)
	}
	if len(t.H) > 1 {
		q.High24h = util.ParseFloatDefault(t.H[1], 0)
	}
	if len(t.L) > 1 {
		q.Low24h = util.ParseFloatDefault(t.L[1], 0)
	}
	return q, nil
}
