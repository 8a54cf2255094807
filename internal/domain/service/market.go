package service

import (
	"context"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
)

// Aggregator combines concurrent per-source quotes into a consensus price.
type Aggregator interface {
	Aggregate(ctx context.Context, symbol string, fetchers []domrepo.QuoteFetcher) (*models.AggregatedPrice, error)
}

// IndicatorEngine computes the indicator set over an ordered price series.
type IndicatorEngine interface {
	Compute(candles []models.Candle) *models.IndicatorSet
}

// ZoneDetector derives supply/demand zones from depth and/or history.
type ZoneDetector interface {
	DetectZones(currentPrice float64, book *models.OrderBook, candles []models.Candle) *models.ZoneSet
}

// SignalComposer folds price, indicators and zones into a directional bias.
type SignalComposer interface {
	Compose(price *models.AggregatedPrice, ind *models.IndicatorSet, zones *models.ZoneSet, sentiment *float64) *models.Signal
}
