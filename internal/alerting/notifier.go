package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Alert captures one threshold crossing. Alerts are ephemeral values:
// they are handed to a Notifier and discarded, never persisted.
type Alert struct {
	Exchange   string
	Product    string
	Price      decimal.Decimal
	Threshold  decimal.Decimal
	ObservedAt time.Time
}

// Subject renders the one-line alert identity.
func (a Alert) Subject() string {
	return fmt.Sprintf("Price alert: %s on %s", a.Product, a.Exchange)
}

// Body renders the alert detail.
func (a Alert) Body() string {
	return fmt.Sprintf(
		"The price of %s has reached %s on %s (threshold %s) at %s",
		a.Product,
		a.Price.String(),
		a.Exchange,
		a.Threshold.String(),
		a.ObservedAt.UTC().Format(time.RFC3339),
	)
}

// Notifier delivers alerts through an external transport.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Multi fans one alert out to several channels. Every channel is attempted;
// failures are joined rather than short-circuiting.
type Multi []Notifier

// Notify delivers to all channels.
func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Notifier = (Multi)(nil)
