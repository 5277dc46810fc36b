package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Pricewatch-Signature"

// Event is the JSON body posted to webhook endpoints.
type Event struct {
	Type      string `json:"type"` // "price.alert"
	Timestamp int64  `json:"timestamp"`
	Alert     Alert  `json:"alert"`
}

// Webhook posts alerts to an HTTP endpoint, retrying transient failures.
type Webhook struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second},
	}
}

// Notify delivers the alert, retrying with backoff until an attempt
// succeeds, the retries run out or ctx is done.
func (w *Webhook) Notify(ctx context.Context, alert Alert) error {
	event := &Event{
		Type:      "price.alert",
		Timestamp: time.Now().Unix(),
		Alert:     alert,
	}

	var err error
	for attempt, delay := range w.delays {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = w.deliver(ctx, event); err == nil {
			slog.Info("webhook delivered", "url", w.url, "event", event.Type, "attempt", attempt+1)
			return nil
		}
		slog.Warn("webhook delivery failed",
			"url", w.url,
			"event", event.Type,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return err
}

// deliver sends one event. The body is signed when a secret is set:
// X-Pricewatch-Signature: sha256=<hex>
func (w *Webhook) deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pricewatch-Webhook/1.0")
	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
