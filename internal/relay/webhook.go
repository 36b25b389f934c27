package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/matheus3301/wppbot/internal/bus"
)

// WebhookPublisher POSTs each event as JSON to a fixed URL.
type WebhookPublisher struct {
	client *resty.Client
	url    string
}

// NewWebhook creates a webhook publisher. Requests are never retried.
func NewWebhook(url string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "wppbot")
	return &WebhookPublisher{client: client, url: url}
}

func (w *WebhookPublisher) Name() string { return "webhook" }

// Publish posts evt and treats any non-2xx answer as a failure.
func (w *WebhookPublisher) Publish(ctx context.Context, evt bus.Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-WPPBot-Event", evt.Kind).
		SetBody(evt).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}
	return nil
}

func (w *WebhookPublisher) Close() error { return nil }
