package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/memory"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/internal/testutil"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// stubSource serves canned events or errors per poll.
type stubSource struct {
	mu    sync.Mutex
	polls int
	fn    func(poll int, since time.Time) ([]event.PatentEvent, error)
}

func (s *stubSource) Poll(_ context.Context, since time.Time) ([]event.PatentEvent, error) {
	s.mu.Lock()
	s.polls++
	n := s.polls
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(n, since)
}

func (s *stubSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// recordChannel captures deliveries for assertions.
type recordChannel struct {
	channel mtypes.ChannelType
	mu      sync.Mutex
	sent    []Delivery
	fail    error
}

func (c *recordChannel) Type() mtypes.ChannelType { return c.channel }

func (c *recordChannel) Send(_ context.Context, d Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, d)
	return nil
}

func (c *recordChannel) deliveries() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Delivery(nil), c.sent...)
}

// testRig bundles an engine over in-memory stores.
type testRig struct {
	engine *Engine
	source *stubSource
	clock  *testutil.FakeClock
	email  *recordChannel
	ledger *memory.DeliveryLedger
	stores rigStores
}

type rigStores struct {
	watchlists  *memory.WatchlistRepo
	rules       *memory.RuleRepo
	competitors *memory.CompetitorRepo
	alerts      *memory.AlertRepo
}

func newTestRig(cfg config.SchedulerConfig) *testRig {
	clock := testutil.NewFakeClock(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	logger := logging.NewNopLogger()

	stores := rigStores{
		watchlists:  memory.NewWatchlistRepo(),
		rules:       memory.NewRuleRepo(),
		competitors: memory.NewCompetitorRepo(),
		alerts:      memory.NewAlertRepo(clock),
	}
	email := &recordChannel{channel: mtypes.ChannelEmail}
	ledger := memory.NewDeliveryLedger()
	dispatcher := NewDispatcher([]Channel{email}, ledger, clock, logger, nil, 0)
	source := &stubSource{}

	engine := NewEngine(Dependencies{
		Watchlists:  stores.watchlists,
		Rules:       stores.rules,
		Competitors: stores.competitors,
		Alerts:      stores.alerts,
		Source:      source,
		Dispatcher:  dispatcher,
		Dedup:       memory.NewDedupIndex(24 * time.Hour),
		Clock:       clock,
		Logger:      logger,
		Scheduler:   cfg,
	})
	return &testRig{
		engine: engine,
		source: source,
		clock:  clock,
		email:  email,
		ledger: ledger,
		stores: stores,
	}
}

func filingEvent(id, title, applicant string) event.PatentEvent {
	return event.PatentEvent{
		ID:           "evt-" + id,
		Kind:         event.KindFiling,
		PatentID:     "pat-" + id,
		PatentNumber: "US" + id,
		Title:        title,
		Applicants:   []string{applicant},
		Jurisdiction: "US",
		Status:       "pending",
		ClaimCount:   10,
		OccurredAt:   time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
	}
}
