package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseFloat parses exchange payload numbers that arrive as strings.
func ParseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseFloatDefault parses a float or returns def if empty/invalid.
func ParseFloatDefault(s string, def float64) float64 {
	if v, ok := ParseFloat(s); ok {
		return v
	}
	return def
}

// ParseIntDefault parses an int or returns def if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeSymbol upper-cases a symbol and strips whitespace and common
// pair separators ("BTC/USDT" and "btc-usdt" both become "BTCUSDT").
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// AlignToInterval truncates t down to the nearest interval boundary.
func AlignToInterval(t time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return t
	}
	return t.Truncate(interval)
}

// UnixMillis converts an epoch-milliseconds value to time.Time in UTC.
func UnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
