package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-tracker/internal/config"
)

const defaultTickerPath = "/products/%s/ticker"

// REST polls an exchange's public ticker endpoint over HTTP. The endpoint
// must return a JSON object carrying a "price" field; everything else in the
// payload is passed through untouched as the raw ticker document.
type REST struct {
	name       string
	baseURL    string
	tickerPath string
	products   map[string]string
	client     *http.Client
	logger     zerolog.Logger
}

// NewREST constructs a REST exchange client from its registration.
func NewREST(cfg config.ExchangeConfig, logger zerolog.Logger) *REST {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tickerPath := cfg.TickerPath
	if tickerPath == "" {
		tickerPath = defaultTickerPath
	}

	return &REST{
		name:       cfg.Name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tickerPath: tickerPath,
		products:   cfg.Products,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "exchange").Str("exchange", cfg.Name).Logger(),
	}
}

// Name returns the exchange name.
func (r *REST) Name() string { return r.name }

// Products returns the product-to-index mapping.
func (r *REST) Products() map[string]string { return r.products }

// FetchPrice retrieves the current price for one product.
func (r *REST) FetchPrice(ctx context.Context, product string) (decimal.Decimal, error) {
	payload, err := r.fetchTicker(ctx, product)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var ticker struct {
		Price json.Number `json:"price"`
	}
	if err := json.Unmarshal(payload, &ticker); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: parse ticker for %s: %w", r.name, product, err)
	}
	if ticker.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("%s: ticker for %s carries no price", r.name, product)
	}

	price, err := decimal.NewFromString(ticker.Price.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: parse price for %s: %w", r.name, product, err)
	}
	return price, nil
}

// RecordTicker pushes each product's raw ticker payload into the sink,
// wrapped with exchange/product identity and a capture timestamp.
func (r *REST) RecordTicker(ctx context.Context, sink TickerSink) error {
	for _, product := range SortedProducts(r) {
		index := r.products[product]
		payload, err := r.fetchTicker(ctx, product)
		if err != nil {
			return err
		}

		doc := map[string]any{
			"exchange":    r.name,
			"product":     product,
			"ticker":      json.RawMessage(payload),
			"captured_at": time.Now().UTC().Format(time.RFC3339),
		}
		if err := sink.IndexDocument(ctx, index, doc); err != nil {
			return fmt.Errorf("%s: record ticker for %s: %w", r.name, product, err)
		}
	}
	return nil
}

func (r *REST) fetchTicker(ctx context.Context, product string) ([]byte, error) {
	endpoint := r.baseURL + fmt.Sprintf(r.tickerPath, product)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create ticker request: %w", r.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch ticker for %s: %w", r.name, product, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read ticker for %s: %w", r.name, product, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: ticker for %s returned status %d: %s", r.name, product, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

var _ Client = (*REST)(nil)
