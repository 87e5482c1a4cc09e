package notification

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

// Writer abstracts kafka.Writer so publishing can be tested without a
// broker.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mirrors every stored alert onto the alert topic so
// downstream consumers (BI, SIEM, archival) see the full stream regardless
// of per-watchlist notification settings.
type KafkaPublisher struct {
	writer Writer
	logger logging.Logger
}

// NewKafkaPublisher builds a publisher writing to cfg.AlertTopic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisherWith(writer, logger)
}

func newKafkaPublisherWith(writer Writer, logger logging.Logger) *KafkaPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &KafkaPublisher{writer: writer, logger: logger.Named("alert-publisher")}
}

// Publish writes one alert, keyed by watchlist so per-watchlist ordering is
// preserved across partitions.
func (p *KafkaPublisher) Publish(ctx context.Context, a *alert.Alert) error {
	value, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "publisher: encode alert failed")
	}
	msg := kafka.Message{
		Key:   []byte(a.WatchlistID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Delivery("publisher: write alert failed", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
