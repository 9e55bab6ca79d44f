package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"crypto-tracker/internal/cache"
	"crypto-tracker/internal/exchange"
)

// Show prints recent observations, or the cached latest price per pair
// when --latest is given.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.Latest {
		return a.showLatest(ctx)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	observations, err := store.ListRecentObservations(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Fprintln(os.Stdout, "no observations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tExchange\tProduct\tPrice")

	for _, obs := range observations {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\n",
			obs.ObservedAt.UTC().Format(time.RFC3339),
			obs.Exchange,
			obs.Product,
			obs.Price.String(),
		)
	}

	return writer.Flush()
}

func (a *App) showLatest(ctx context.Context) error {
	if !a.Config.Cache.Enabled {
		return errors.New("cache not enabled; --latest requires the redis mirror")
	}
	latest, err := cache.New(a.Config.Cache, a.Logger)
	if err != nil {
		return err
	}
	defer latest.Close()

	clients, err := a.newExchanges()
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Exchange\tProduct\tPrice\tObserved (UTC)")

	for _, client := range clients {
		for _, product := range exchange.SortedProducts(client) {
			obs, err := latest.GetLatest(ctx, client.Name(), product)
			if err != nil {
				return err
			}
			if obs == nil {
				fmt.Fprintf(writer, "%s\t%s\t-\t-\n", client.Name(), product)
				continue
			}
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\n",
				obs.Exchange,
				obs.Product,
				obs.Price.String(),
				obs.ObservedAt.UTC().Format(time.RFC3339),
			)
		}
	}

	return writer.Flush()
}
