package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crypto-tracker/internal/alerting"
	"crypto-tracker/internal/cache"
	"crypto-tracker/internal/collector"
	"crypto-tracker/internal/config"
	"crypto-tracker/internal/exchange"
	"crypto-tracker/internal/scheduler"
	"crypto-tracker/internal/search"
	"crypto-tracker/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newExchanges builds the registered exchange set. With nothing configured
// it falls back to a single simulated exchange so the binary runs end to
// end out of the box.
func (a *App) newExchanges() ([]exchange.Client, error) {
	if len(a.Config.Exchanges) == 0 {
		a.Logger.Warn().Msg("no exchanges configured; using a simulated exchange")
		return exchange.Build([]config.ExchangeConfig{{
			Name: "sim",
			Kind: "sim",
			Products: map[string]string{
				"BTC-USD": "sim-btc-usd",
				"ETH-USD": "sim-eth-usd",
			},
			BasePrices: map[string]float64{
				"BTC-USD": 60000,
				"ETH-USD": 3000,
			},
		}}, a.Logger)
	}
	return exchange.Build(a.Config.Exchanges, a.Logger)
}

func (a *App) newSearch() *search.Client {
	if a.Config.Search.URL == "" {
		return nil
	}
	return search.NewClient(search.Options{
		URL:      a.Config.Search.URL,
		Username: a.Config.Search.Username,
		Password: a.Config.Search.Password,
		Timeout:  a.Config.Search.RequestTimeout,
	}, a.Logger)
}

// newNotifier assembles the configured alert channels.
func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}

	var channels alerting.Multi
	for _, channel := range a.Config.Alerting.Channels {
		switch channel {
		case "email":
			channels = append(channels, alerting.NewEmailNotifier(a.Config.Alerting.Email, a.Logger))
		case "telegram":
			tg := a.Config.Alerting.Telegram
			channels = append(channels, alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger))
		default:
			a.Logger.Warn().Str("channel", channel).Msg("unknown alert channel; skipping")
		}
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) openCache() (*cache.Cache, func()) {
	if !a.Config.Cache.Enabled {
		return nil, nil
	}
	c, err := cache.New(a.Config.Cache, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("latest-price cache unavailable; continuing without it")
		return nil, nil
	}
	return c, func() { _ = c.Close() }
}

// Run executes the long-running collection loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	clients, err := a.newExchanges()
	if err != nil {
		return err
	}

	searchClient := a.newSearch()
	var sink exchange.TickerSink
	var prov *search.Provisioner
	if searchClient != nil {
		sink = searchClient
		prov = search.NewProvisioner(searchClient, a.Logger)
	} else {
		a.Logger.Warn().Msg("search.url not configured; raw ticker indexing disabled")
	}

	latest, closeCache := a.openCache()
	if closeCache != nil {
		defer closeCache()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Collector.Interval,
		Cooldown:     a.Config.Collector.Cooldown,
		StartupDelay: a.Config.Collector.StartupDelay,
	}, a.Logger)

	var cacheSink collector.LatestCache
	if latest != nil {
		cacheSink = latest
	}

	col := collector.New(clients, store, sink, prov, a.newNotifier(), cacheSink, collector.Options{
		Threshold: a.Config.Alerting.Threshold,
		AlertsOn:  a.Config.Alerting.Enabled,
	}, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Collector.Interval).
		Float64("threshold", a.Config.Alerting.Threshold).
		Msg("starting market tracker")

	err = col.Run(ctx, sched)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("tracker terminated with error")
		return err
	}

	a.Logger.Info().Msg("market tracker stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical observations.
type ExportOptions struct {
	Exchange  string
	Product   string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Latest bool
}
