package exchange

import (
	"context"
	"testing"

	"crypto-tracker/internal/config"
)

func TestSimFetchPrice(t *testing.T) {
	sim := NewSim(config.ExchangeConfig{
		Name:       "sim",
		Kind:       "sim",
		Products:   map[string]string{"BTC-USD": "sim-btc-usd"},
		BasePrices: map[string]float64{"BTC-USD": 60000},
	})

	for i := 0; i < 50; i++ {
		price, err := sim.FetchPrice(context.Background(), "BTC-USD")
		if err != nil {
			t.Fatalf("fetch should succeed: %v", err)
		}
		if !price.IsPositive() {
			t.Fatalf("price must stay positive, got %s", price)
		}
	}

	if _, err := sim.FetchPrice(context.Background(), "DOGE-USD"); err == nil {
		t.Fatal("unknown product should be rejected")
	}
}

func TestSimRecordTicker(t *testing.T) {
	sim := NewSim(config.ExchangeConfig{
		Name:     "sim",
		Kind:     "sim",
		Products: map[string]string{"BTC-USD": "sim-btc-usd", "ETH-USD": "sim-eth-usd"},
	})

	sink := &captureSink{}
	if err := sim.RecordTicker(context.Background(), sink); err != nil {
		t.Fatalf("record ticker should succeed: %v", err)
	}
	if len(sink.docs) != 2 {
		t.Fatalf("expected one document per index, got %#v", sink.docs)
	}
}
