package exchange

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"crypto-tracker/internal/config"
)

// Sim is a synthetic exchange that walks each product's price randomly
// around its configured base. It satisfies the same contract as a live
// exchange and backs local runs and the default zero-config setup.
type Sim struct {
	name     string
	products map[string]string

	mu     sync.Mutex
	prices map[string]float64
	rng    *rand.Rand
}

// NewSim constructs a simulated exchange from its registration.
func NewSim(cfg config.ExchangeConfig) *Sim {
	prices := make(map[string]float64, len(cfg.Products))
	for product := range cfg.Products {
		base := cfg.BasePrices[product]
		if base <= 0 {
			base = 100.0
		}
		prices[product] = base
	}

	return &Sim{
		name:     cfg.Name,
		products: cfg.Products,
		prices:   prices,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the exchange name.
func (s *Sim) Name() string { return s.name }

// Products returns the product-to-index mapping.
func (s *Sim) Products() map[string]string { return s.products }

// FetchPrice advances the product's random walk and returns the new price.
// Each step moves at most ±2% of the current price.
func (s *Sim) FetchPrice(ctx context.Context, product string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.prices[product]
	if !ok {
		return decimal.Decimal{}, &UnknownProductError{Exchange: s.name, Product: product}
	}

	variation := (s.rng.Float64() - 0.5) * 0.04
	next := current * (1 + variation)
	s.prices[product] = next

	return decimal.NewFromFloat(next).Round(8), nil
}

// RecordTicker indexes a synthetic snapshot per product.
func (s *Sim) RecordTicker(ctx context.Context, sink TickerSink) error {
	for _, product := range SortedProducts(s) {
		s.mu.Lock()
		price := s.prices[product]
		s.mu.Unlock()

		doc := map[string]any{
			"exchange":    s.name,
			"product":     product,
			"price":       price,
			"captured_at": time.Now().UTC().Format(time.RFC3339),
		}
		if err := sink.IndexDocument(ctx, s.products[product], doc); err != nil {
			return err
		}
	}
	return nil
}

// UnknownProductError reports a price request for an unregistered product.
type UnknownProductError struct {
	Exchange string
	Product  string
}

func (e *UnknownProductError) Error() string {
	return e.Exchange + ": unknown product " + e.Product
}

var _ Client = (*Sim)(nil)
