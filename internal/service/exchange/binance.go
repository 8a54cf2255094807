package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/internal/service/ratelimit"
	phttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/util"
)

const defaultBinanceURL = "https://api.binance.com"

// Binance is a REST adapter for the Binance public API. Besides quotes
// it serves depth snapshots and OHLCV bars.
type Binance struct {
	baseURL string
	client  *phttp.Client
	limiter *ratelimit.Limiter
}

// BinanceOption configures the adapter.
type BinanceOption func(*Binance)

// NewBinance creates a Binance adapter.
func NewBinance(opts ...BinanceOption) *Binance {
	b := &Binance{
		baseURL: defaultBinanceURL,
		client:  phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithBinanceURL overrides the API base URL.
func WithBinanceURL(url string) BinanceOption {
	return func(b *Binance) {
		if url != "" {
			b.baseURL = url
		}
	}
}

// WithBinanceLimiter sets a request rate limiter.
func WithBinanceLimiter(l *ratelimit.Limiter) BinanceOption {
	return func(b *Binance) { b.limiter = l }
}

var (
	_ drepo.QuoteFetcher      = (*Binance)(nil)
	_ drepo.OrderBookProvider = (*Binance)(nil)
	_ drepo.CandleProvider    = (*Binance)(nil)
)

// Name implements QuoteFetcher.
func (b *Binance) Name() string { return "binance" }

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// FetchQuote fetches the 24h rolling ticker.
func (b *Binance) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	var t binanceTicker
	url := b.baseURL + "/api/v3/ticker/24hr"
	query := map[string]string{"symbol": binancePair(symbol)}
	if err := b.client.GetJSON(ctx, url, query, &t); err != nil {
		return nil, fmt.Errorf("binance ticker: %w", err)
	}

	price, ok := util.ParseFloat(t.LastPrice)
	if !ok {
		return nil, fmt.Errorf("binance ticker: bad price %q", t.LastPrice)
	}

	return &models.Quote{
		Source:    b.Name(),
		Price:     price,
		Volume24h: util.ParseFloatDefault(t.Volume, 0),
		Change24h: util.ParseFloatDefault(t.PriceChangePercent, 0),
		High24h:   util.ParseFloatDefault(t.HighPrice, 0),
		Low24h:    util.ParseFloatDefault(t.LowPrice, 0),
		FetchedAt: time.Now().UTC(),
	}, nil
}

type binanceDepth struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

// FetchOrderBook fetches a depth snapshot. Bids come back descending and
// asks ascending, matching the exchange ordering.
func (b *Binance) FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = 100
	}

	var d binanceDepth
	url := b.baseURL + "/api/v3/depth"
	query := map[string]string{
		"symbol": binancePair(symbol),
		"limit":  strconv.Itoa(depth),
	}
	if err := b.client.GetJSON(ctx, url, query, &d); err != nil {
		return nil, fmt.Errorf("binance depth: %w", err)
	}

	return &models.OrderBook{
		Symbol:    util.NormalizeSymbol(symbol),
		Bids:      parseLevels(d.Bids),
		Asks:      parseLevels(d.Asks),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchCandles fetches the latest n OHLCV bars, time-ascending.
func (b *Binance) FetchCandles(ctx context.Context, symbol string, interval drepo.Interval, n int) ([]models.Candle, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 200
	}

	var raw [][]interface{}
	url := b.baseURL + "/api/v3/klines"
	query := map[string]string{
		"symbol":   binancePair(symbol),
		"interval": string(interval),
		"limit":    strconv.Itoa(n),
	}
	if err := b.client.GetJSON(ctx, url, query, &raw); err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	sym := util.NormalizeSymbol(symbol)
	candles := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		c, err := parseKline(sym, string(interval), k)
		if err != nil {
			return nil, fmt.Errorf("binance klines: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (b *Binance) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx, b.Name())
}

func parseLevels(raw [][2]string) []models.BookLevel {
	levels := make([]models.BookLevel, 0, len(raw))
	for _, l := range raw {
		price, ok1 := util.ParseFloat(l[0])
		qty, ok2 := util.ParseFloat(l[1])
		if !ok1 || !ok2 {
			continue
		}
		levels = append(levels, models.BookLevel{Price: price, Quantity: qty})
	}
	return levels
}

// parseKline decodes one kline row: [openTime, open, high, low, close,
// volume, closeTime, ...]. Numbers arrive as JSON strings except the
// timestamps.
func parseKline(symbol, interval string, k []interface{}) (models.Candle, error) {
	if len(k) < 6 {
		return models.Candle{}, fmt.Errorf("kline too short: %d fields", len(k))
	}

	openTime, ok := k[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("kline open time: %T", k[0])
	}

	field := func(i int) (float64, error) {
		s, ok := k[i].(string)
		if !ok {
			return 0, fmt.Errorf("kline field %d: %T", i, k[i])
		}
		v, ok := util.ParseFloat(s)
		if !ok {
			return 0, fmt.Errorf("kline field %d: %q", i, s)
		}
		return v, nil
	}

	var c models.Candle
	var err error
	if c.Open, err = field(1); err != nil {
		return models.Candle{}, err
	}
	if c.High, err = field(2); err != nil {
		return models.Candle{}, err
	}
	if c.Low, err = field(3); err != nil {
		return models.Candle{}, err
	}
	if c.Close, err = field(4); err != nil {
		return models.Candle{}, err
	}
	if c.Volume, err = field(5); err != nil {
		return models.Candle{}, err
	}

	c.Symbol = symbol
	c.Interval = interval
	c.Bucket = util.UnixMillis(int64(openTime))
	return c, nil
}
