package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/util"
)

// CandleOrigin says where a candle series came from.
type CandleOrigin string

const (
	CandleOriginLive  CandleOrigin = "live"
	CandleOriginStore CandleOrigin = "store"
)

// CandleResult carries a series together with its origin, so callers can
// tell a live fetch from a persisted-history fallback.
type CandleResult struct {
	Candles []models.Candle `json:"candles"`
	Origin  CandleOrigin    `json:"origin"`
}

// CandleUseCase fetches OHLCV series and keeps the store warm. When the
// exchange is unreachable it may serve persisted history, but only when
// the deployment opted in.
type CandleUseCase struct {
	provider      domrepo.CandleProvider
	store         domrepo.CandleStore
	allowFallback bool
	defaultN      int
	log           *applogger.Logger
}

// NewCandleUseCase creates the candle use case. store may be nil.
func NewCandleUseCase(provider domrepo.CandleProvider, store domrepo.CandleStore, allowFallback bool, defaultN int, log *applogger.Logger) *CandleUseCase {
	if defaultN <= 0 {
		defaultN = 200
	}
	return &CandleUseCase{
		provider:      provider,
		store:         store,
		allowFallback: allowFallback,
		defaultN:      defaultN,
		log:           log,
	}
}

// GetCandles returns the latest n bars, live when possible. A live fetch
// is persisted best-effort; a fallback read is marked with its origin.
func (uc *CandleUseCase) GetCandles(ctx context.Context, symbol string, interval domrepo.Interval, n int) (*CandleResult, error) {
	sym := util.NormalizeSymbol(symbol)
	interval = domrepo.NormalizeInterval(string(interval))
	if n <= 0 {
		n = uc.defaultN
	}

	candles, err := uc.provider.FetchCandles(ctx, sym, interval, n)
	if err == nil {
		uc.persist(candles)
		return &CandleResult{Candles: candles, Origin: CandleOriginLive}, nil
	}

	if uc.store == nil || !uc.allowFallback {
		return nil, fmt.Errorf("fetch candles %s/%s: %w", sym, interval, err)
	}

	uc.log.Warn("candles: live fetch failed, serving persisted history",
		applogger.String("symbol", sym),
		applogger.String("interval", string(interval)),
		applogger.Error(err),
	)

	stored, serr := uc.store.GetLatestN(ctx, sym, interval, n)
	if serr != nil {
		return nil, fmt.Errorf("fetch candles %s/%s: %w (store fallback: %v)", sym, interval, err, serr)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("fetch candles %s/%s: %w (store empty)", sym, interval, err)
	}
	return &CandleResult{Candles: stored, Origin: CandleOriginStore}, nil
}

// persist writes a live series into the store without blocking the caller.
func (uc *CandleUseCase) persist(candles []models.Candle) {
	if uc.store == nil || len(candles) == 0 {
		return
	}
	go func(batch []models.Candle) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := uc.store.StoreBatch(ctx, batch); err != nil {
			uc.log.Warn("candles: persist batch failed",
				applogger.String("symbol", batch[0].Symbol),
				applogger.Int("rows", len(batch)),
				applogger.Error(err),
			)
		}
	}(candles)
}
