package exchange

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-tracker/internal/config"
)

// TickerSink accepts raw ticker documents, keyed by index id.
type TickerSink interface {
	IndexDocument(ctx context.Context, index string, doc any) error
}

// Client is the capability contract every exchange must satisfy: a stable
// name, a product-to-index mapping fixed for the process lifetime, a price
// query, and a raw ticker push into the search store.
type Client interface {
	Name() string
	Products() map[string]string
	FetchPrice(ctx context.Context, product string) (decimal.Decimal, error)
	RecordTicker(ctx context.Context, sink TickerSink) error
}

// Build constructs exchange clients from configuration, preserving order.
func Build(cfgs []config.ExchangeConfig, logger zerolog.Logger) ([]Client, error) {
	clients := make([]Client, 0, len(cfgs))
	for _, cfg := range cfgs {
		switch cfg.Kind {
		case "", "rest":
			clients = append(clients, NewREST(cfg, logger))
		case "sim":
			clients = append(clients, NewSim(cfg))
		default:
			return nil, fmt.Errorf("unknown exchange kind %q for %s", cfg.Kind, cfg.Name)
		}
	}
	return clients, nil
}

// SortedProducts returns a client's product symbols in a stable order.
func SortedProducts(c Client) []string {
	products := c.Products()
	symbols := make([]string, 0, len(products))
	for symbol := range products {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
