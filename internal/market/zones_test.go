package market

import (
	"testing"

	"CoinPulse/internal/domain/models"
)

func TestDetectZonesNoData(t *testing.T) {
	z := NewZones(0)
	set := z.DetectZones(50000, nil, nil)
	if len(set.Supply) != 0 || len(set.Demand) != 0 {
		t.Fatalf("expected empty zones with no data, got %+v", set)
	}
	if !set.LowConfidence {
		t.Fatalf("expected low-confidence marker")
	}
}

func TestDetectZonesSidesRespectPrice(t *testing.T) {
	z := NewZones(0)
	book := &models.OrderBook{
		Symbol: "BTC",
		Bids: []models.BookLevel{
			{Price: 97900, Quantity: 50},
			{Price: 97500, Quantity: 120},
			{Price: 97000, Quantity: 80},
		},
		Asks: []models.BookLevel{
			{Price: 98200, Quantity: 60},
			{Price: 98500, Quantity: 150},
			{Price: 99000, Quantity: 90},
		},
	}
	set := z.DetectZones(98000, book, nil)
	for _, zn := range set.Supply {
		if zn.Level <= 98000 {
			t.Fatalf("supply zone at %v not above price", zn.Level)
		}
		if zn.Side != models.ZoneSupply {
			t.Fatalf("supply zone mislabelled: %+v", zn)
		}
	}
	for _, zn := range set.Demand {
		if zn.Level >= 98000 {
			t.Fatalf("demand zone at %v not below price", zn.Level)
		}
		if zn.Side != models.ZoneDemand {
			t.Fatalf("demand zone mislabelled: %+v", zn)
		}
	}
	if len(set.Supply) == 0 || len(set.Demand) == 0 {
		t.Fatalf("expected zones on both sides")
	}
}

func TestDetectZonesBidClusterStrength(t *testing.T) {
	// One 50-unit cluster against 400 units total is a 12.5% share.
	z := NewZones(0)
	book := &models.OrderBook{
		Symbol: "BTC",
		Bids: []models.BookLevel{
			{Price: 97900, Quantity: 50},
			{Price: 97310, Quantity: 5}, {Price: 97320, Quantity: 5},
			{Price: 96510, Quantity: 5}, {Price: 96520, Quantity: 5},
			{Price: 95710, Quantity: 5}, {Price: 95720, Quantity: 5},
			{Price: 94910, Quantity: 5}, {Price: 94920, Quantity: 5},
			{Price: 94110, Quantity: 5}, {Price: 94120, Quantity: 5},
			{Price: 93310, Quantity: 100}, {Price: 92310, Quantity: 100},
			{Price: 91310, Quantity: 100},
		},
	}
	set := z.DetectZones(98000, book, nil)
	var found *models.Zone
	for i := range set.Demand {
		if set.Demand[i].Level == 97900 {
			found = &set.Demand[i]
		}
	}
	if found == nil {
		t.Fatalf("expected demand zone at 97900, got %+v", set.Demand)
	}
	if found.Strength != models.ZoneStrong && found.Strength != models.ZoneVeryStrong {
		t.Fatalf("strength = %v, want STRONG or VERY_STRONG at 12.5%% share", found.Strength)
	}
	if found.Confidence > 98 {
		t.Fatalf("confidence %d exceeds cap", found.Confidence)
	}
}

func TestDetectZonesHistoricalOnly(t *testing.T) {
	z := NewZones(0)
	candles := testCandles()
	set := z.DetectZones(120, nil, candles)
	if set.LowConfidence {
		t.Fatalf("history present, should not be low-confidence")
	}
	if len(set.Supply) == 0 && len(set.Demand) == 0 {
		t.Fatalf("expected pivot/fib/swing zones from history")
	}
	for _, zn := range set.Supply {
		if zn.Source == models.ZoneFromOrderBook {
			t.Fatalf("order-book zone without a book: %+v", zn)
		}
	}
}

func TestDetectZonesTopKCap(t *testing.T) {
	z := NewZones(3)
	bids := make([]models.BookLevel, 0, 20)
	for i := 0; i < 20; i++ {
		bids = append(bids, models.BookLevel{Price: 97000 - float64(i)*200, Quantity: 40})
	}
	set := z.DetectZones(98000, &models.OrderBook{Symbol: "BTC", Bids: bids}, nil)
	if len(set.Demand) > 3 {
		t.Fatalf("demand zones = %d, want <= 3", len(set.Demand))
	}
}

func TestSwingDetection(t *testing.T) {
	candles := []models.Candle{
		{High: 10, Low: 9}, {High: 11, Low: 10}, {High: 15, Low: 11},
		{High: 12, Low: 8}, {High: 11, Low: 9},
	}
	if !isSwingHigh(candles, 2) {
		t.Fatalf("expected swing high at index 2")
	}
	if !isSwingLow(candles, 3) {
		t.Fatalf("expected swing low at index 3")
	}
	if isSwingHigh(candles, 1) {
		t.Fatalf("index 1 is not a swing high")
	}
}
