package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_PublishesKeyedByWatchlist(t *testing.T) {
	writer := &fakeWriter{}
	pub := newKafkaPublisherWith(writer, logging.NewNopLogger())

	a := testAlertFor("New Patent Filed: Solid-State Battery", mtypes.SeverityHigh)
	require.NoError(t, pub.Publish(context.Background(), a))

	require.Len(t, writer.msgs, 1)
	assert.Equal(t, []byte("wl-1"), writer.msgs[0].Key)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &decoded))
	assert.Equal(t, "New Patent Filed: Solid-State Battery", decoded["title"])
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	pub := newKafkaPublisherWith(&fakeWriter{err: assert.AnError}, logging.NewNopLogger())
	err := pub.Publish(context.Background(), testAlertFor("x", mtypes.SeverityLow))
	assert.Error(t, err)
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := &fakeWriter{}
	pub := newKafkaPublisherWith(writer, logging.NewNopLogger())
	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}
