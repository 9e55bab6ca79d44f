package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"crypto-tracker/internal/collector"
	"crypto-tracker/internal/exchange"
	"crypto-tracker/internal/storage"
)

// SimulateAlert runs one collection cycle against a static exchange that
// returns the given price, exercising the real persistence-then-alert path
// without touching live exchanges or the database.
func (a *App) SimulateAlert(ctx context.Context, exchangeName, product string, price decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channels configured")
	}

	client := &staticExchange{
		name:    exchangeName,
		product: product,
		price:   price,
	}

	col := collector.New([]exchange.Client{client}, &sinkStore{}, nil, nil, notifier, nil, collector.Options{
		Threshold: a.Config.Alerting.Threshold,
		AlertsOn:  true,
	}, a.Logger)

	return col.RunCycle(ctx)
}

// staticExchange always returns one fixed price for one product.
type staticExchange struct {
	name    string
	product string
	price   decimal.Decimal
}

func (s *staticExchange) Name() string { return s.name }

func (s *staticExchange) Products() map[string]string {
	return map[string]string{s.product: s.name + "-" + s.product}
}

func (s *staticExchange) FetchPrice(ctx context.Context, product string) (decimal.Decimal, error) {
	return s.price, nil
}

func (s *staticExchange) RecordTicker(ctx context.Context, sink exchange.TickerSink) error {
	return nil
}

// sinkStore accepts writes and drops them; simulation needs the durable
// write step to succeed without a database.
type sinkStore struct {
	inserted int64
}

func (s *sinkStore) InsertObservation(ctx context.Context, obs storage.Observation) (int64, error) {
	s.inserted++
	return s.inserted, nil
}

func (s *sinkStore) ListRecentObservations(ctx context.Context, limit int) ([]storage.Observation, error) {
	return nil, nil
}

func (s *sinkStore) ListSeries(ctx context.Context, exchangeName, product string, from, to time.Time) ([]storage.Observation, error) {
	return nil, nil
}

func (s *sinkStore) CountObservations(ctx context.Context) (int64, error) {
	return s.inserted, nil
}

var _ exchange.Client = (*staticExchange)(nil)
var _ storage.ObservationStore = (*sinkStore)(nil)
