package exchange

import (
	"errors"
	"fmt"

	"CoinPulse/pkg/util"
)

// ErrUnsupportedSymbol is returned when a source has no listing for the
// requested asset.
var ErrUnsupportedSymbol = errors.New("exchange: unsupported symbol")

// coinGeckoIDs maps tickers to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"BNB":   "binancecoin",
}

// krakenAliases covers Kraken's legacy asset codes.
var krakenAliases = map[string]string{
	"BTC":  "XBT",
	"DOGE": "XDG",
}

func binancePair(symbol string) string {
	return util.NormalizeSymbol(symbol) + "USDT"
}

func coinbaseProduct(symbol string) string {
	return util.NormalizeSymbol(symbol) + "-USD"
}

func krakenPair(symbol string) string {
	s := util.NormalizeSymbol(symbol)
	if alias, ok := krakenAliases[s]; ok {
		s = alias
	}
	return s + "USD"
}

func coinGeckoID(symbol string) (string, error) {
	s := util.NormalizeSymbol(symbol)
	id, ok := coinGeckoIDs[s]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSymbol, s)
	}
	return id, nil
}
