package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	pkgch "CoinPulse/pkg/clickhouse"
	applogger "CoinPulse/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse. One table
// holds all intervals; (symbol, interval, bucket) identifies a bar.
type CHCandleStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

// NewCHCandleStore creates a ClickHouse-backed candle store.
func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.CandleStore = (*CHCandleStore)(nil)

var candleSchema = []string{
	`CREATE TABLE IF NOT EXISTS candles (
        bucket   DateTime64(3, 'UTC'),
        symbol   LowCardinality(String),
        interval LowCardinality(String),
        open     Float64,
        high     Float64,
        low      Float64,
        close    Float64,
        vol      Float64
    )
    ENGINE = ReplacingMergeTree
    PARTITION BY toYYYYMM(bucket)
    ORDER BY (symbol, interval, bucket)`,
}

// Init ensures the candles table exists.
func (s *CHCandleStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, candleSchema)
}

// StoreBatch inserts bars in a single prepared batch. Re-inserted bars
// are deduplicated by the ReplacingMergeTree engine.
func (s *CHCandleStore) StoreBatch(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candles (bucket, symbol, interval, open, high, low, close, vol) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.Bucket, c.Symbol, c.Interval, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse store_batch ok",
			applogger.Int("rows", len(candles)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// GetLatestN returns the newest n bars for symbol/interval, time-ascending.
func (s *CHCandleStore) GetLatestN(ctx context.Context, symbol string, interval domrepo.Interval, n int) ([]models.Candle, error) {
	start := time.Now()

	const q = `
        SELECT bucket, symbol, interval, open, high, low, close, vol
        FROM candles FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(interval), n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_candles query error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(interval)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Interval, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// DESC query for the LIMIT; callers expect ascending time.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if s.l != nil {
		s.l.Info("clickhouse latest_candles ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(interval)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (s *CHCandleStore) Close() error {
	return s.client.Close()
}
