package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/util"

	"github.com/gorilla/websocket"
)

// ErrStaleQuote is returned when the stream has no fresh tick for a symbol.
var ErrStaleQuote = errors.New("stream: no fresh quote")

const defaultWebSocketURL = "wss://stream.binance.com:9443/ws"

// Collector keeps the latest ticker per symbol from the Binance
// WebSocket stream. It doubles as a QuoteFetcher: when a tick is fresh
// enough it is served without a REST round trip.
type Collector struct {
	wsURL          string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	maxQuoteAge    time.Duration
	log            *logger.Logger

	mu     sync.RWMutex
	latest map[string]models.Quote
	conn   *websocket.Conn
}

// CollectorOption configures the collector.
type CollectorOption func(*Collector)

// NewCollector creates a stream collector for the given symbols.
func NewCollector(symbols []string, log *logger.Logger, opts ...CollectorOption) *Collector {
	c := &Collector{
		wsURL:          defaultWebSocketURL,
		symbols:        symbols,
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		maxQuoteAge:    10 * time.Second,
		log:            log,
		latest:         make(map[string]models.Quote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithWebSocketURL overrides the stream endpoint.
func WithWebSocketURL(url string) CollectorOption {
	return func(c *Collector) {
		if url != "" {
			c.wsURL = url
		}
	}
}

// WithReconnectDelay sets the wait between reconnect attempts.
func WithReconnectDelay(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithPingInterval sets the keepalive ping period.
func WithPingInterval(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithMaxQuoteAge sets how old a tick may be and still be served.
func WithMaxQuoteAge(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.maxQuoteAge = d
		}
	}
}

var _ drepo.QuoteFetcher = (*Collector)(nil)

// Name implements QuoteFetcher.
func (c *Collector) Name() string { return "stream" }

// FetchQuote serves the latest streamed tick if it is fresh enough.
func (c *Collector) FetchQuote(_ context.Context, symbol string) (*models.Quote, error) {
	sym := util.NormalizeSymbol(symbol)

	c.mu.RLock()
	q, ok := c.latest[sym]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s never seen", ErrStaleQuote, sym)
	}
	if age := time.Since(q.FetchedAt); age > c.maxQuoteAge {
		return nil, fmt.Errorf("%w: %s tick is %s old", ErrStaleQuote, sym, age.Round(time.Millisecond))
	}
	return &q, nil
}

// Run connects and consumes the stream until ctx is cancelled,
// reconnecting on failures.
func (c *Collector) Run(ctx context.Context) {
	for {
		if err := c.connect(ctx); err != nil {
			c.log.Warn("stream: connect failed", logger.Error(err))
		} else {
			c.consume(ctx)
		}

		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Collector) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.wsURL, err)
	}

	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, strings.ToLower(util.NormalizeSymbol(s))+"usdt@miniTicker")
	}
	sub := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("stream: connected", logger.Strings("symbols", c.symbols))
	return nil
}

type miniTicker struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Close  string `json:"c"`
	Open   string `json:"o"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Volume string `json:"v"`
}

func (c *Collector) consume(ctx context.Context) {
	conn := c.current()
	if conn == nil {
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go c.keepalive(ctx, conn, stop)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn("stream: read failed, reconnecting", logger.Error(err))
			return
		}

		var tick miniTicker
		if err := json.Unmarshal(data, &tick); err != nil || tick.Event != "24hrMiniTicker" {
			// subscription acks and other frames
			continue
		}
		c.record(tick)
	}
}

func (c *Collector) record(tick miniTicker) {
	price, ok := util.ParseFloat(tick.Close)
	if !ok {
		return
	}

	var change float64
	if open, ok := util.ParseFloat(tick.Open); ok && open > 0 {
		change = (price - open) / open * 100
	}

	// Stream symbols arrive as pairs ("BTCUSDT"); keep the base asset.
	sym := strings.TrimSuffix(tick.Symbol, "USDT")

	q := models.Quote{
		Source:    c.Name(),
		Price:     price,
		Volume24h: util.ParseFloatDefault(tick.Volume, 0),
		Change24h: change,
		High24h:   util.ParseFloatDefault(tick.High, 0),
		Low24h:    util.ParseFloatDefault(tick.Low, 0),
		FetchedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.latest[sym] = q
	c.mu.Unlock()
}

func (c *Collector) keepalive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			_ = conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}

func (c *Collector) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Close tears down the connection.
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
