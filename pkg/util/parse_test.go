package util

import (
	"testing"
	"time"
)

func TestParseFloat(t *testing.T) {
	v, ok := ParseFloat("98100.53")
	if !ok {
		t.Fatalf("expected ok")
	}
	if v != 98100.53 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("", 1.5); got != 1.5 {
		t.Fatalf("expected default, got %v", got)
	}
	if got := ParseFloatDefault("not-a-number", 2.5); got != 2.5 {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		" btc ":    "BTC",
		"BTC/USDT": "BTCUSDT",
		"btc-usdt": "BTCUSDT",
		"ETH":      "ETH",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAlignToInterval(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 37, 42, 0, time.UTC)
	got := AlignToInterval(ts, 15*time.Minute)
	want := time.Date(2024, 10, 10, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
