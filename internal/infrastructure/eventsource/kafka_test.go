package eventsource

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
)

// fakeReader serves a fixed message list, then blocks until the context is
// cancelled the way a real reader would.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		msg := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) committedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func mustMessage(t *testing.T, offset int64, evt event.PatentEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: data}
}

func TestKafkaSource_BuffersAndPolls(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{msgs: []kafka.Message{
		mustMessage(t, 1, event.PatentEvent{ID: "e1", Kind: event.KindFiling, PatentID: "US1", OccurredAt: base.Add(time.Minute)}),
		mustMessage(t, 2, event.PatentEvent{ID: "e2", Kind: event.KindGrant, PatentID: "US2", OccurredAt: base.Add(2 * time.Minute)}),
	}}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, time.Second, 5*time.Millisecond)

	events, err := src.Poll(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)

	// Polling is non-destructive: another loop with the same cursor sees
	// the same events.
	events, err = src.Poll(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// A cursor past the newest event sees nothing.
	events, err = src.Poll(context.Background(), base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestKafkaSource_EventReachesEveryWatchlistLoop(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{msgs: []kafka.Message{
		mustMessage(t, 1, event.PatentEvent{ID: "e1", Kind: event.KindFiling, PatentID: "US1", OccurredAt: base.Add(time.Minute)}),
	}}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 1
	}, time.Second, 5*time.Millisecond)

	// Two watchlist loops share the source; each polls with its own cursor
	// and both must receive the event.
	for i := 0; i < 2; i++ {
		events, err := src.Poll(context.Background(), base)
		require.NoError(t, err)
		require.Len(t, events, 1, "loop %d missed the event", i)
		assert.Equal(t, "e1", events[0].ID)
	}
}

func TestKafkaSource_PrunesBeyondRetention(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{msgs: []kafka.Message{
		mustMessage(t, 1, event.PatentEvent{ID: "e1", Kind: event.KindFiling, OccurredAt: base.Add(time.Minute)}),
	}}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())

	current := base
	src.now = func() time.Time { return current }
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 1
	}, time.Second, 5*time.Millisecond)

	events, err := src.Poll(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, events, 1)

	current = base.Add(defaultRetention + time.Minute)
	events, err = src.Poll(context.Background(), base)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestKafkaSource_PollFiltersBySince(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{msgs: []kafka.Message{
		mustMessage(t, 1, event.PatentEvent{ID: "old", Kind: event.KindFiling, OccurredAt: base.Add(-time.Hour)}),
		mustMessage(t, 2, event.PatentEvent{ID: "new", Kind: event.KindFiling, OccurredAt: base.Add(time.Hour)}),
	}}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, time.Second, 5*time.Millisecond)

	events, err := src.Poll(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].ID)
}

func TestKafkaSource_SkipsMalformedButCommits(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("not json")},
		mustMessage(t, 2, event.PatentEvent{ID: "bad-kind", Kind: event.Kind("mystery"), OccurredAt: base.Add(time.Minute)}),
		mustMessage(t, 3, event.PatentEvent{ID: "good", Kind: event.KindFiling, OccurredAt: base.Add(time.Minute)}),
	}}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 3
	}, time.Second, 5*time.Millisecond)

	events, err := src.Poll(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "good", events[0].ID)
}

func TestKafkaSource_StartTwiceFails(t *testing.T) {
	reader := &fakeReader{}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	defer func() { _ = src.Stop() }()

	assert.Error(t, src.Start())
}

func TestKafkaSource_StopClosesReader(t *testing.T) {
	reader := &fakeReader{}
	src := newKafkaSourceWith(reader, 16, logging.NewNopLogger())
	require.NoError(t, src.Start())
	require.NoError(t, src.Stop())

	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.True(t, reader.closed)
}
