package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Sink receives payloads. Deliver may be called more than once per call
// (on confirm and again on hang-up), so receivers must tolerate repeats.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, p *Payload) error
}

const (
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second
	defaultTimeout  = 10 * time.Second
)

// Webhook POSTs payloads as JSON.
type Webhook struct {
	url      string
	attempts int
	backoff  time.Duration
	client   *http.Client
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithAttempts sets how many times a payload is sent before giving up.
func WithAttempts(n int) WebhookOption {
	return func(w *Webhook) {
		if n > 0 {
			w.attempts = n
		}
	}
}

// WithBackoff sets the fixed wait between attempts.
func WithBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d >= 0 {
			w.backoff = d
		}
	}
}

// WithTimeout bounds a single attempt. The client passed to WithHTTPClient
// is copied, never modified.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			c := *w.client
			c.Timeout = d
			w.client = &c
		}
	}
}

// WithHTTPClient replaces the client, keeping any timeout already set on it.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// NewWebhook returns a sink posting to url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:      url,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Name returns the sink identifier.
func (w *Webhook) Name() string { return "webhook" }

// Deliver posts p, retrying non-2xx answers and transport errors.
func (w *Webhook) Deliver(ctx context.Context, p *Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook delivery cancelled after %d attempts: %w", attempt-1, ctx.Err())
			case <-time.After(w.backoff):
			}
		}

		lastErr = w.post(ctx, body)
		if lastErr == nil {
			slog.Info("order delivered", "call_id", p.CallID, "attempt", attempt, "items", len(p.OrderDetails.Items))
			return nil
		}
		slog.Warn("webhook attempt failed", "call_id", p.CallID, "attempt", attempt, "error", lastErr)
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", w.attempts, lastErr)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// LogSink only logs the payload. It stands in when no webhook is configured.
type LogSink struct{}

// Name returns the sink identifier.
func (LogSink) Name() string { return "log" }

// Deliver logs p at warn level so a missing webhook is noticed.
func (LogSink) Deliver(_ context.Context, p *Payload) error {
	slog.Warn("no webhook configured, order not forwarded",
		"call_id", p.CallID,
		"closed", p.Closed,
		"customer_name", p.OrderDetails.CustomerName,
		"pickup_time", p.OrderDetails.PickupTime,
		"items", len(p.OrderDetails.Items),
	)
	return nil
}
