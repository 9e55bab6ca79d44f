package alerting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"crypto-tracker/internal/config"
)

// sender abstracts gomail's dial-and-send so tests can intercept delivery.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier delivers alerts by SMTP email.
type EmailNotifier struct {
	cfg    config.EmailConfig
	dialer sender
	logger zerolog.Logger
}

// NewEmailNotifier constructs an SMTP channel.
func NewEmailNotifier(cfg config.EmailConfig, logger zerolog.Logger) *EmailNotifier {
	username := cfg.Username
	if username == "" {
		username = cfg.Sender
	}
	return &EmailNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, username, cfg.Password),
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Notify sends the alert as a plain-text email.
func (n *EmailNotifier) Notify(ctx context.Context, alert Alert) error {
	if n.cfg.Host == "" {
		return fmt.Errorf("email host not configured")
	}
	if n.cfg.Sender == "" || n.cfg.Receiver == "" {
		return fmt.Errorf("email sender and receiver must be configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.Sender)
	msg.SetHeader("To", n.cfg.Receiver)
	msg.SetHeader("Subject", alert.Subject())
	msg.SetBody("text/plain", alert.Body())

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	n.logger.Info().
		Str("exchange", alert.Exchange).
		Str("product", alert.Product).
		Str("price", alert.Price.String()).
		Msg("alert delivered via email")
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
