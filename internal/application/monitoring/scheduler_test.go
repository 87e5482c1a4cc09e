package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// recordSink captures forwarded batches.
type recordSink struct {
	mu      sync.Mutex
	batches map[common.ID]int
	events  int
}

func newRecordSink() *recordSink {
	return &recordSink{batches: make(map[common.ID]int)}
}

func (s *recordSink) HandleBatch(_ context.Context, id common.ID, events []event.PatentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[id]++
	s.events += len(events)
}

func (s *recordSink) batchCount(id common.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

func fastConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		DefaultInterval:    20 * time.Millisecond,
		MaxConcurrentPolls: 4,
		PollTimeout:        time.Second,
	}
}

func schedulerWatchlist(t *testing.T, name string) *watchlist.Watchlist {
	t.Helper()
	w, err := watchlist.NewWatchlist(name, "user-1", watchlist.FilterCriteria{}, watchlist.AlertSettings{})
	require.NoError(t, err)
	return w
}

func TestSupervisor_PollsAndForwards(t *testing.T) {
	source := &stubSource{fn: func(poll int, _ time.Time) ([]event.PatentEvent, error) {
		if poll == 1 {
			return []event.PatentEvent{filingEvent("1", "Neural Network Accelerator", "Acme")}, nil
		}
		return nil, nil
	}}
	sink := newRecordSink()
	sup := NewSupervisor(source, sink, fastConfig(), nil, logging.NewNopLogger(), nil)

	w := schedulerWatchlist(t, "w")
	sup.Start(w)
	defer sup.StopAll()

	assert.Eventually(t, func() bool { return sink.batchCount(w.ID) >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, sup.Running(w.ID))
}

func TestSupervisor_PollFailureIsTransient(t *testing.T) {
	source := &stubSource{fn: func(poll int, _ time.Time) ([]event.PatentEvent, error) {
		if poll <= 2 {
			return nil, assert.AnError
		}
		if poll == 3 {
			return []event.PatentEvent{filingEvent("1", "Battery Separator", "Acme")}, nil
		}
		return nil, nil
	}}
	sink := newRecordSink()
	sup := NewSupervisor(source, sink, fastConfig(), nil, logging.NewNopLogger(), nil)

	w := schedulerWatchlist(t, "w")
	sup.Start(w)
	defer sup.StopAll()

	// The loop survives the failed polls and forwards the later batch.
	assert.Eventually(t, func() bool { return sink.batchCount(w.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisor_StopPreventsFurtherTicks(t *testing.T) {
	source := &stubSource{}
	sink := newRecordSink()
	sup := NewSupervisor(source, sink, fastConfig(), nil, logging.NewNopLogger(), nil)

	w := schedulerWatchlist(t, "w")
	sup.Start(w)
	assert.Eventually(t, func() bool { return source.pollCount() >= 1 }, 2*time.Second, 10*time.Millisecond)

	sup.Stop(w.ID)
	assert.False(t, sup.Running(w.ID))

	after := source.pollCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, source.pollCount(), "no tick fires after stop")
}

func TestSupervisor_StartReplacesRunningLoop(t *testing.T) {
	source := &stubSource{}
	sink := newRecordSink()
	sup := NewSupervisor(source, sink, fastConfig(), nil, logging.NewNopLogger(), nil)

	w := schedulerWatchlist(t, "w")
	sup.Start(w)
	sup.Start(w)
	defer sup.StopAll()

	assert.Equal(t, 1, sup.Count(), "restart never leaves two loops for one watchlist")
}

func TestSupervisor_IndependentLoops(t *testing.T) {
	source := &stubSource{}
	sink := newRecordSink()
	sup := NewSupervisor(source, sink, fastConfig(), nil, logging.NewNopLogger(), nil)

	a := schedulerWatchlist(t, "a")
	b := schedulerWatchlist(t, "b")
	sup.Start(a)
	sup.Start(b)
	assert.Equal(t, 2, sup.Count())

	sup.Stop(a.ID)
	assert.False(t, sup.Running(a.ID))
	assert.True(t, sup.Running(b.ID), "stopping one loop leaves the other running")
	sup.StopAll()
	assert.Zero(t, sup.Count())
}
