package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	drepo "CoinPulse/internal/domain/repository"
)

func TestBinanceFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("unexpected symbol %s", got)
		}
		fmt.Fprint(w, `{"lastPrice":"98100.50","volume":"12345.6","priceChangePercent":"2.31","highPrice":"99000","lowPrice":"96500"}`)
	}))
	defer srv.Close()

	b := NewBinance(WithBinanceURL(srv.URL))
	q, err := b.FetchQuote(context.Background(), "btc")
	if err != nil {
		t.Fatalf("fetch quote: %v", err)
	}

	if q.Source != "binance" {
		t.Errorf("source = %s", q.Source)
	}
	if q.Price != 98100.50 {
		t.Errorf("price = %v", q.Price)
	}
	if q.Change24h != 2.31 {
		t.Errorf("change = %v", q.Change24h)
	}
	if q.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestBinanceFetchQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	b := NewBinance(WithBinanceURL(srv.URL))
	if _, err := b.FetchQuote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestBinanceFetchOrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/depth" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"bids":[["98000","1.5"],["97900","2.0"]],"asks":[["98100","0.7"],["98200","3.1"]]}`)
	}))
	defer srv.Close()

	b := NewBinance(WithBinanceURL(srv.URL))
	book, err := b.FetchOrderBook(context.Background(), "BTC", 50)
	if err != nil {
		t.Fatalf("fetch order book: %v", err)
	}

	if len(book.Bids) != 2 || len(book.Asks) != 2 {
		t.Fatalf("levels: %d bids, %d asks", len(book.Bids), len(book.Asks))
	}
	if book.Bids[0].Price != 98000 || book.Bids[0].Quantity != 1.5 {
		t.Errorf("bid[0] = %+v", book.Bids[0])
	}
	if book.Symbol != "BTC" {
		t.Errorf("symbol = %s", book.Symbol)
	}
}

func TestBinanceFetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1h" {
			t.Errorf("unexpected interval %s", got)
		}
		fmt.Fprint(w, `[
			[1700000000000,"97000","97500","96800","97400","120.5",1700003599999,"0",0,"0","0","0"],
			[1700003600000,"97400","98000","97300","97900","98.2",1700007199999,"0",0,"0","0","0"]
		]`)
	}))
	defer srv.Close()

	b := NewBinance(WithBinanceURL(srv.URL))
	candles, err := b.FetchCandles(context.Background(), "BTC", drepo.IV1h, 2)
	if err != nil {
		t.Fatalf("fetch candles: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("got %d candles", len(candles))
	}
	first := candles[0]
	if first.Open != 97000 || first.High != 97500 || first.Low != 96800 || first.Close != 97400 {
		t.Errorf("ohlc mismatch: %+v", first)
	}
	if first.Volume != 120.5 {
		t.Errorf("volume = %v", first.Volume)
	}
	if !candles[0].Bucket.Before(candles[1].Bucket) {
		t.Error("candles not time-ascending")
	}
}

func TestCoinbaseFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/ETH-USD/ticker":
			fmt.Fprint(w, `{"price":"3300.00"}`)
		case "/products/ETH-USD/stats":
			fmt.Fprint(w, `{"open":"3000.00","high":"3350.00","low":"2950.00","volume":"45000"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewCoinbase(WithCoinbaseURL(srv.URL))
	q, err := c.FetchQuote(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("fetch quote: %v", err)
	}

	if q.Price != 3300 {
		t.Errorf("price = %v", q.Price)
	}
	// (3300-3000)/3000 * 100 = 10
	if q.Change24h != 10 {
		t.Errorf("change = %v", q.Change24h)
	}
	if q.Volume24h != 45000 {
		t.Errorf("volume = %v", q.Volume24h)
	}
}

func TestKrakenFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pair"); got != "XBTUSD" {
			t.Errorf("unexpected pair %s", got)
		}
		fmt.Fprint(w, `{"error":[],"result":{"XXBTZUSD":{"c":["98050.1","0.01"],"v":["100","250.5"],"h":["98500","99100"],"l":["96000","95800"],"o":"97000.0"}}}`)
	}))
	defer srv.Close()

	k := NewKraken(WithKrakenURL(srv.URL))
	q, err := k.FetchQuote(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("fetch quote: %v", err)
	}

	if q.Price != 98050.1 {
		t.Errorf("price = %v", q.Price)
	}
	if q.Volume24h != 250.5 {
		t.Errorf("volume = %v", q.Volume24h)
	}
	if q.High24h != 99100 || q.Low24h != 95800 {
		t.Errorf("high/low = %v/%v", q.High24h, q.Low24h)
	}
}

func TestKrakenBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":["EQuery:Unknown asset pair"],"result":{}}`)
	}))
	defer srv.Close()

	k := NewKraken(WithKrakenURL(srv.URL))
	if _, err := k.FetchQuote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected body-level error")
	}
}

func TestCoinGeckoFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "solana" {
			t.Errorf("unexpected ids %s", got)
		}
		if got := r.Header.Get("x-cg-demo-api-key"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		fmt.Fprint(w, `{"solana":{"usd":145.32,"usd_24h_vol":2100000,"usd_24h_change":-1.2}}`)
	}))
	defer srv.Close()

	g := NewCoinGecko(WithCoinGeckoURL(srv.URL), WithCoinGeckoKey("test-key"))
	q, err := g.FetchQuote(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("fetch quote: %v", err)
	}

	if q.Price != 145.32 {
		t.Errorf("price = %v", q.Price)
	}
	if q.Change24h != -1.2 {
		t.Errorf("change = %v", q.Change24h)
	}
}

func TestCoinGeckoUnsupportedSymbol(t *testing.T) {
	g := NewCoinGecko()
	_, err := g.FetchQuote(context.Background(), "NOTACOIN")
	if err == nil {
		t.Fatal("expected unsupported symbol error")
	}
}

func TestSymbolMapping(t *testing.T) {
	if got := binancePair("btc"); got != "BTCUSDT" {
		t.Errorf("binance pair = %s", got)
	}
	if got := coinbaseProduct("eth"); got != "ETH-USD" {
		t.Errorf("coinbase product = %s", got)
	}
	if got := krakenPair("BTC"); got != "XBTUSD" {
		t.Errorf("kraken pair = %s", got)
	}
	if got := krakenPair("SOL"); got != "SOLUSD" {
		t.Errorf("kraken pair = %s", got)
	}
}
