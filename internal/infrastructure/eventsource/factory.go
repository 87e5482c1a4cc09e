package eventsource

import (
	"fmt"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

// New builds the configured event source.  The returned stop function is safe
// to call even for providers without background machinery.
func New(cfg config.Config, logger logging.Logger) (event.Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.EventSource.Provider {
	case "kafka":
		src := NewKafkaSource(cfg.Kafka, logger)
		if err := src.Start(); err != nil {
			return nil, nil, err
		}
		return src, src.Stop, nil
	case "http":
		return NewHTTPSource(cfg.EventSource, logger), noop, nil
	case "static":
		src, err := NewStaticSource(cfg.EventSource.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("eventsource: unknown provider %q", cfg.EventSource.Provider))
	}
}
