package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookChannel posts deliveries as JSON to the watchlist's webhook URL.
// The URL travels on the delivery itself since every watchlist configures
// its own.
type WebhookChannel struct {
	client *http.Client
	logger logging.Logger
}

// NewWebhookChannel builds the channel with the given per-attempt timeout.
func NewWebhookChannel(timeout time.Duration, logger logging.Logger) *WebhookChannel {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &WebhookChannel{
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("webhook"),
	}
}

// Type reports the channel medium.
func (c *WebhookChannel) Type() mtypes.ChannelType { return mtypes.ChannelWebhook }

// Send posts the delivery to its target URL.  Any non-2xx response is a
// delivery failure.
func (c *WebhookChannel) Send(ctx context.Context, d monitoring.Delivery) error {
	if d.Target == "" {
		return errors.Delivery("webhook: delivery has no target URL", nil)
	}
	return postJSON(ctx, c.client, d.Target, toPayload(d))
}

func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "notification: encode payload failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "notification: build request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Delivery("notification: post failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Delivery(fmt.Sprintf("notification: target returned %d", resp.StatusCode), nil)
	}
	return nil
}
