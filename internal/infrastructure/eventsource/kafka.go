// Package eventsource provides the adapters behind event.Source: a Kafka
// consumer for streaming deployments, an HTTP poller for registry APIs, and
// a static fixture replayer for demos and integration tests.
package eventsource

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

const (
	defaultBufferSize = 1024

	// defaultRetention bounds how long a buffered event stays pollable.
	// It must exceed the longest watchlist poll interval so every loop
	// sees each event at least once.
	defaultRetention = 24 * time.Hour
)

// Reader abstracts kafka.Reader so the consume loop can be tested without a
// broker.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource consumes the patent-event topic in the background and retains
// decoded events for a bounded window.  Polls are non-destructive: every
// watchlist loop answers against the shared buffer using its own since
// cursor, so one loop reading an event never hides it from the others.
type KafkaSource struct {
	reader    Reader
	logger    logging.Logger
	retention time.Duration
	now       func() time.Time

	mu  sync.Mutex
	buf []bufferedEvent
	cap int

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// bufferedEvent pairs an event with its arrival time; retention pruning is
// by arrival so late-delivered events still reach every poller.
type bufferedEvent struct {
	evt     event.PatentEvent
	arrived time.Time
}

// NewKafkaSource builds a source reading cfg.EventTopic with a consumer-group
// reader.
func NewKafkaSource(cfg config.KafkaConfig, logger logging.Logger) *KafkaSource {
	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.EventTopic,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	})
	return newKafkaSourceWith(reader, defaultBufferSize, logger)
}

func newKafkaSourceWith(reader Reader, bufferSize int, logger logging.Logger) *KafkaSource {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &KafkaSource{
		reader:    reader,
		logger:    logger.Named("kafka-source"),
		retention: defaultRetention,
		now:       time.Now,
		cap:       bufferSize,
	}
}

// Start launches the background consume loop.
func (s *KafkaSource) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCodeConflict, "eventsource: kafka consumer already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.consume(ctx)
	return nil
}

// Stop halts consumption and closes the reader.  Buffered events remain
// pollable until their retention window lapses.
func (s *KafkaSource) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return s.reader.Close()
}

func (s *KafkaSource) consume(ctx context.Context) {
	defer s.wg.Done()
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("fetch failed", logging.Err(err))
			continue
		}

		var evt event.PatentEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			// Malformed payloads are committed so they do not wedge the
			// partition.
			s.logger.Warn("undecodable event dropped",
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
		} else if !evt.Kind.IsValid() {
			s.logger.Warn("event with unknown kind dropped",
				logging.String("event_id", evt.ID),
				logging.String("kind", string(evt.Kind)))
		} else {
			s.enqueue(evt)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			s.logger.Warn("commit failed", logging.Err(err))
		}
	}
}

func (s *KafkaSource) enqueue(evt event.PatentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) >= s.cap {
		// Oldest-first eviction keeps the freshest events pollable.
		s.buf = s.buf[1:]
		s.logger.Warn("event buffer full, oldest event evicted")
	}
	s.buf = append(s.buf, bufferedEvent{evt: evt, arrived: s.now()})
}

// Poll returns buffered events that occurred strictly after since, without
// removing them: concurrent watchlist loops each read the full buffer
// against their own cursor.  Entries older than the retention window are
// pruned first.  Broker order is preserved, which for the event topic is
// oldest first.
func (s *KafkaSource) Poll(ctx context.Context, since time.Time) ([]event.PatentEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	horizon := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for pruned < len(s.buf) && s.buf[pruned].arrived.Before(horizon) {
		pruned++
	}
	if pruned > 0 {
		s.buf = append(s.buf[:0:0], s.buf[pruned:]...)
	}

	var out []event.PatentEvent
	for _, be := range s.buf {
		if be.evt.OccurredAt.After(since) {
			out = append(out, be.evt)
		}
	}
	return out, nil
}
