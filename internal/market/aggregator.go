package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
)

const (
	defaultSourceTimeout   = 6 * time.Second
	defaultSpreadThreshold = 0.025
)

// QuoteAggregator fans out to all configured quote fetchers concurrently and
// folds the surviving quotes into one consensus price. Per-source failures
// are absorbed; only a total failure surfaces as ErrInsufficientData.
type QuoteAggregator struct {
	sourceTimeout   time.Duration
	spreadThreshold float64
	metrics         domrepo.Metrics
	logger          *applogger.Logger
}

// AggregatorOption configures QuoteAggregator.
type AggregatorOption func(*QuoteAggregator)

// WithSourceTimeout sets the independent per-fetcher deadline.
func WithSourceTimeout(d time.Duration) AggregatorOption {
	return func(a *QuoteAggregator) {
		if d > 0 {
			a.sourceTimeout = d
		}
	}
}

// WithSpreadThreshold sets the relative spread above which confidence is
// forced to LOW regardless of source count.
func WithSpreadThreshold(pct float64) AggregatorOption {
	return func(a *QuoteAggregator) {
		if pct > 0 {
			a.spreadThreshold = pct
		}
	}
}

// NewQuoteAggregator creates an aggregator with optional overrides.
func NewQuoteAggregator(metrics domrepo.Metrics, logger *applogger.Logger, opts ...AggregatorOption) *QuoteAggregator {
	a := &QuoteAggregator{
		sourceTimeout:   defaultSourceTimeout,
		spreadThreshold: defaultSpreadThreshold,
		metrics:         metrics,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate invokes every fetcher concurrently, each under its own timeout,
// waits for all to settle and computes the consensus. Failed sources are
// recorded in the result's Errors map, never propagated.
func (a *QuoteAggregator) Aggregate(ctx context.Context, symbol string, fetchers []domrepo.QuoteFetcher) (*models.AggregatedPrice, error) {
	if len(fetchers) == 0 {
		return nil, fmt.Errorf("aggregate %s: no fetchers configured: %w", symbol, ErrInsufficientData)
	}

	type result struct {
		name  string
		quote *models.Quote
		err   error
	}

	start := time.Now()
	ch := make(chan result, len(fetchers))
	var wg sync.WaitGroup
	for _, f := range fetchers {
		wg.Add(1)
		go func(f domrepo.QuoteFetcher) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
			defer cancel()
			q, err := f.FetchQuote(fctx, symbol)
			ch <- result{name: f.Name(), quote: q, err: err}
		}(f)
	}
	go func() { wg.Wait(); close(ch) }()

	quotes := make([]models.Quote, 0, len(fetchers))
	srcErrs := map[string]string{}
	for r := range ch {
		if r.err != nil || r.quote == nil {
			if r.err == nil {
				r.err = fmt.Errorf("empty quote")
			}
			srcErrs[r.name] = r.err.Error()
			if a.metrics != nil {
				a.metrics.RecordFetch(r.name, "error")
			}
			if a.logger != nil {
				a.logger.Warn("quote source failed",
					applogger.String("source", r.name),
					applogger.String("symbol", symbol),
					applogger.Error(r.err),
				)
			}
			continue
		}
		if a.metrics != nil {
			a.metrics.RecordFetch(r.name, "ok")
		}
		quotes = append(quotes, *r.quote)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("aggregate %s: all %d sources failed: %w", symbol, len(fetchers), ErrInsufficientData)
	}

	agg := fold(symbol, quotes, a.spreadThreshold)
	agg.Errors = srcErrs
	if len(srcErrs) == 0 {
		agg.Errors = nil
	}

	if a.metrics != nil {
		a.metrics.RecordLastPrice(symbol, agg.Average)
		a.metrics.RecordLatency("aggregate", time.Since(start).Seconds())
	}
	return agg, nil
}

// fold computes the order statistics and confidence for a non-empty quote set.
func fold(symbol string, quotes []models.Quote, spreadThreshold float64) *models.AggregatedPrice {
	prices := make([]float64, len(quotes))
	var sum, volSum, chgSum float64
	chgN := 0
	for i, q := range quotes {
		prices[i] = q.Price
		sum += q.Price
		volSum += q.Volume24h
		if q.Change24h != 0 {
			chgSum += q.Change24h
			chgN++
		}
	}
	sort.Float64s(prices)

	n := len(prices)
	avg := sum / float64(n)
	var median float64
	if n%2 == 1 {
		median = prices[n/2]
	} else {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}

	spread := 0.0
	if avg != 0 {
		spread = (prices[n-1] - prices[0]) / avg
	}

	conf := models.ConfidenceLow
	switch {
	case n >= 3:
		conf = models.ConfidenceHigh
	case n == 2:
		conf = models.ConfidenceMedium
	}
	// An anomalous spread means a stale or bad quote, not genuine variance;
	// this downgrade wins over the source-count rule.
	if spread > spreadThreshold {
		conf = models.ConfidenceLow
	}

	chg := 0.0
	if chgN > 0 {
		chg = chgSum / float64(chgN)
	}

	return &models.AggregatedPrice{
		Symbol:      symbol,
		Average:     avg,
		Median:      median,
		Min:         prices[0],
		Max:         prices[n-1],
		SpreadPct:   spread,
		Volume24h:   volSum,
		Change24h:   chg,
		SourceCount: n,
		Confidence:  conf,
		Sources:     quotes,
		Timestamp:   time.Now(),
	}
}
