package monitoring

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// PollSink consumes the events of one successful poll.  Implementations must
// process the batch in order and must contain their own failures: a sink
// error for one watchlist must never reach another watchlist's loop.
type PollSink interface {
	HandleBatch(ctx context.Context, watchlistID common.ID, events []event.PatentEvent)
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor runs one independent, cancellable polling loop per active
// watchlist.  Loops never share failures: a slow or broken poll for one
// watchlist does not delay another's.  A global semaphore bounds how many
// polls hit the event source at once.
type Supervisor struct {
	source  event.Source
	sink    PollSink
	cfg     config.SchedulerConfig
	clock   common.Clock
	logger  logging.Logger
	metrics Metrics
	sem     *semaphore.Weighted

	mu   sync.Mutex
	jobs map[common.ID]*job
}

// NewSupervisor builds a Supervisor.  The sink is usually the engine itself.
func NewSupervisor(source event.Source, sink PollSink, cfg config.SchedulerConfig,
	clock common.Clock, logger logging.Logger, metrics Metrics) *Supervisor {
	if clock == nil {
		clock = common.SystemClock()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	concurrency := int64(cfg.MaxConcurrentPolls)
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Supervisor{
		source:  source,
		sink:    sink,
		cfg:     cfg,
		clock:   clock,
		logger:  logger.Named("scheduler"),
		metrics: metrics,
		sem:     semaphore.NewWeighted(concurrency),
		jobs:    make(map[common.ID]*job),
	}
}

// Start launches the polling loop for the watchlist.  If a loop is already
// running for the same id it is stopped first, so a restart picks up new
// filters and cadence without ever running two loops for one watchlist.
func (s *Supervisor) Start(w *watchlist.Watchlist) {
	interval := w.Interval(s.cfg.DefaultInterval)
	if s.cfg.MinInterval > 0 && interval < s.cfg.MinInterval {
		interval = s.cfg.MinInterval
	}

	s.mu.Lock()
	if existing, ok := s.jobs[w.ID]; ok {
		existing.cancel()
		s.mu.Unlock()
		<-existing.done
		s.mu.Lock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}
	s.jobs[w.ID] = j
	count := len(s.jobs)
	s.mu.Unlock()

	s.metrics.SetActiveSchedulers(count)
	s.logger.Info("monitoring started",
		logging.String("watchlist_id", string(w.ID)),
		logging.String("watchlist", w.Name),
		logging.Duration("interval", interval))

	go s.run(ctx, j, w.ID, interval)
}

// Stop cancels the watchlist's polling loop and waits for it to exit.  After
// Stop returns, no further tick fires for that watchlist; a poll already in
// flight may complete but its batch is dropped by the cancelled context.
func (s *Supervisor) Stop(id common.ID) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	count := len(s.jobs)
	s.mu.Unlock()
	if !ok {
		return
	}
	j.cancel()
	<-j.done
	s.metrics.SetActiveSchedulers(count)
	s.logger.Info("monitoring stopped", logging.String("watchlist_id", string(id)))
}

// StopAll cancels every loop; used on shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[common.ID]*job)
	s.mu.Unlock()
	for _, j := range jobs {
		j.cancel()
	}
	for _, j := range jobs {
		<-j.done
	}
	s.metrics.SetActiveSchedulers(0)
}

// Running reports whether a loop exists for the watchlist.
func (s *Supervisor) Running(id common.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	return ok
}

// Count returns the number of running loops.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Supervisor) run(ctx context.Context, j *job, id common.ID, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Monitoring resumes from the current time; no backfill of events that
	// occurred while the watchlist was inactive.
	lastPoll := s.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, id, &lastPoll)
		}
	}
}

// tick performs one poll cycle.  Poll failures are transient: they are
// logged and retried on the next tick, and lastPoll stays unchanged so the
// missed interval is re-requested.
func (s *Supervisor) tick(ctx context.Context, id common.ID, lastPoll *time.Time) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	pollCtx := ctx
	if s.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, s.cfg.PollTimeout)
		defer cancel()
	}

	started := s.clock.Now()
	events, err := s.source.Poll(pollCtx, *lastPoll)
	s.metrics.ObservePoll(id, s.clock.Now().Sub(started), err)
	if err != nil {
		s.logger.Warn("event source poll failed, retrying next tick",
			logging.String("watchlist_id", string(id)),
			logging.Err(err))
		return
	}
	*lastPoll = started

	if len(events) == 0 {
		return
	}
	if ctx.Err() != nil {
		// Cancelled while the poll was in flight; drop the batch so no
		// alert is created after stop.
		return
	}
	s.sink.HandleBatch(ctx, id, events)
}
