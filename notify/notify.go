// Package notify delivers price alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/pricewatch/config"
)

// Alert is raised when a refreshed price reaches the item's target.
type Alert struct {
	Title       string `json:"title"`
	NewPrice    int    `json:"new_price"`
	TargetPrice int    `json:"target_price"`
	URL         string `json:"url"`
}

// Subject is the one-line summary used by mail and logs.
func (a Alert) Subject() string {
	return "Price Alert: " + a.Title
}

// Body is the plain text message body.
func (a Alert) Body() string {
	return fmt.Sprintf("The price of %s dropped to $%d (target $%d).\n\nCheck it out: %s\n",
		a.Title, a.NewPrice, a.TargetPrice, a.URL)
}

// Notifier delivers an alert to one channel.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Multi fans an alert out to every notifier. All notifiers are tried; the
// returned error joins every failure.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes alerts to the structured log. It is the fallback when no
// delivery channel is configured.
type Log struct{}

func (Log) Notify(_ context.Context, alert Alert) error {
	slog.Info("price alert",
		"title", alert.Title,
		"price", alert.NewPrice,
		"target", alert.TargetPrice,
		"url", alert.URL,
	)
	return nil
}

// FromConfig builds the notifier for every configured channel. With no
// channel configured it returns Log.
func FromConfig(cfg config.NotifyConfig) (Notifier, error) {
	var channels Multi

	if cfg.SMTPHost != "" {
		if cfg.AlertTo == "" {
			return nil, errors.New("notify: PRICEWATCH_ALERT_TO is required with SMTP")
		}
		from := cfg.SMTPFrom
		if from == "" {
			from = cfg.SMTPUser
		}
		mailer, err := NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, from, cfg.AlertTo)
		if err != nil {
			return nil, err
		}
		channels = append(channels, mailer)
	}

	if cfg.WebhookURL != "" {
		channels = append(channels, NewWebhook(cfg.WebhookURL, cfg.WebhookSecret))
	}

	switch len(channels) {
	case 0:
		return Log{}, nil
	case 1:
		return channels[0], nil
	default:
		return channels, nil
	}
}
