package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-tracker/internal/alerting"
	"crypto-tracker/internal/exchange"
	"crypto-tracker/internal/scheduler"
	"crypto-tracker/internal/search"
	"crypto-tracker/internal/storage"
)

// LatestCache mirrors the newest observation per pair for external readers.
type LatestCache interface {
	SetLatest(ctx context.Context, obs storage.Observation) error
}

// Options parameterise the collector.
type Options struct {
	Threshold float64
	AlertsOn  bool
	Now       func() time.Time
}

// Collector drives periodic price collection across a fixed set of
// exchanges: raw ticker capture, durable observation writes, and threshold
// alerting. One exchange's failure never blocks the others; one product's
// failure never blocks its siblings.
type Collector struct {
	clients   []exchange.Client
	store     storage.ObservationStore
	sink      exchange.TickerSink
	prov      *search.Provisioner
	notifier  alerting.Notifier
	cache     LatestCache
	threshold decimal.Decimal
	alertsOn  bool
	now       func() time.Time
	logger    zerolog.Logger
}

// New constructs a Collector. The exchange slice fixes registration order
// for the lifetime of the process.
func New(clients []exchange.Client, store storage.ObservationStore, sink exchange.TickerSink, prov *search.Provisioner, notifier alerting.Notifier, cache LatestCache, opts Options, logger zerolog.Logger) *Collector {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Collector{
		clients:   clients,
		store:     store,
		sink:      sink,
		prov:      prov,
		notifier:  notifier,
		cache:     cache,
		threshold: decimal.NewFromFloat(opts.Threshold),
		alertsOn:  opts.AlertsOn,
		now:       now,
		logger:    logger.With().Str("component", "collector").Logger(),
	}
}

// Provision ensures a search index exists for every registered product.
// It runs once, before the first cycle; any failure here is fatal because
// collection must not start against unprovisioned indices.
func (c *Collector) Provision(ctx context.Context) error {
	if c.prov == nil {
		return nil
	}

	for _, client := range c.clients {
		c.logger.Info().Str("exchange", client.Name()).Msg("exchange registered")
		for _, product := range exchange.SortedProducts(client) {
			index := client.Products()[product]
			if err := c.prov.Ensure(ctx, index); err != nil {
				return fmt.Errorf("provision %s/%s: %w", client.Name(), product, err)
			}
		}
	}
	return nil
}

// Run provisions indices and then hands the cycle to the scheduler.
func (c *Collector) Run(ctx context.Context, sched *scheduler.Scheduler) error {
	if sched == nil {
		return fmt.Errorf("scheduler not configured")
	}
	if err := c.Provision(ctx); err != nil {
		return err
	}
	c.logger.Info().Int("exchanges", len(c.clients)).Str("threshold", c.threshold.String()).Msg("starting market tracking")
	return sched.Run(ctx, c.RunCycle)
}

// RunCycle executes one collection pass over all exchanges in registration
// order. Per-exchange failures are logged and isolated; only a failure that
// escapes that isolation (or context cancellation) is returned, which makes
// the scheduler apply its cooldown.
func (c *Collector) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collection cycle panicked: %v", r)
		}
	}()

	for _, client := range c.clients {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.collectExchange(ctx, client)
	}
	return nil
}

// collectExchange is the per-exchange isolation boundary.
func (c *Collector) collectExchange(ctx context.Context, client exchange.Client) {
	logger := c.logger.With().Str("exchange", client.Name()).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("exchange collection panicked")
		}
	}()

	if c.sink != nil {
		if err := client.RecordTicker(ctx, c.sink); err != nil {
			logger.Error().Err(err).Msg("failed to record raw ticker")
		}
	}

	for _, product := range exchange.SortedProducts(client) {
		c.collectProduct(ctx, logger, client, product)
	}
}

// collectProduct fetches one price and records it. An observation is
// written if and only if the fetch succeeded, and alert evaluation happens
// only after the write is durable.
func (c *Collector) collectProduct(ctx context.Context, logger zerolog.Logger, client exchange.Client, product string) {
	price, err := client.FetchPrice(ctx, product)
	if err != nil {
		logger.Error().Err(err).Str("product", product).Msg("price fetch failed")
		return
	}

	obs := storage.Observation{
		Exchange:   client.Name(),
		Product:    product,
		Price:      price,
		ObservedAt: c.now().UTC(),
	}

	if _, err := c.store.InsertObservation(ctx, obs); err != nil {
		logger.Error().Err(err).Str("product", product).Msg("failed to persist observation; skipping alert evaluation")
		return
	}

	if c.cache != nil {
		if err := c.cache.SetLatest(ctx, obs); err != nil {
			logger.Debug().Err(err).Str("product", product).Msg("failed to mirror latest price")
		}
	}

	logger.Info().Str("product", product).Str("price", price.String()).Msg("observation recorded")

	if c.alertsOn && c.notifier != nil && price.GreaterThan(c.threshold) {
		alert := alerting.Alert{
			Exchange:   obs.Exchange,
			Product:    obs.Product,
			Price:      obs.Price,
			Threshold:  c.threshold,
			ObservedAt: obs.ObservedAt,
		}
		if err := c.notifier.Notify(ctx, alert); err != nil {
			logger.Error().Err(err).Str("product", product).Msg("failed to dispatch alert")
		}
	}
}
