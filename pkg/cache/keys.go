package cache

import "fmt"

// SnapshotKey is the cache key for a composed market snapshot.
func SnapshotKey(symbol string) string {
	return fmt.Sprintf("snapshot:%s", symbol)
}

// PriceKey is the cache key for an aggregated price.
func PriceKey(symbol string) string {
	return fmt.Sprintf("price:%s", symbol)
}

// CandlesKey is the cache key for a candle series.
func CandlesKey(symbol, interval string) string {
	return fmt.Sprintf("candles:%s:%s", symbol, interval)
}

// ZonesKey is the cache key for detected zones.
func ZonesKey(symbol string) string {
	return fmt.Sprintf("zones:%s", symbol)
}
