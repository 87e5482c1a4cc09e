package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// PushChannel posts deliveries to a fixed push-gateway endpoint, which fans
// them out to subscribed devices.
type PushChannel struct {
	endpoint string
	client   *http.Client
	logger   logging.Logger
}

// NewPushChannel builds the channel for the given gateway endpoint.
func NewPushChannel(endpoint string, timeout time.Duration, logger logging.Logger) *PushChannel {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PushChannel{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("push"),
	}
}

// Type reports the channel medium.
func (c *PushChannel) Type() mtypes.ChannelType { return mtypes.ChannelPush }

// Send posts the delivery to the push gateway.
func (c *PushChannel) Send(ctx context.Context, d monitoring.Delivery) error {
	if c.endpoint == "" {
		return errors.Delivery("push: no gateway endpoint configured", nil)
	}
	return postJSON(ctx, c.client, c.endpoint, toPayload(d))
}
