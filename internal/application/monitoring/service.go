// Package monitoring is the application layer of the patent monitoring
// engine.  It orchestrates watchlist, rule, competitor and alert operations
// over the domain repositories, supervises the per-watchlist polling loops,
// applies the notification delivery policy, and serves the dashboard
// aggregation.  Domain rules live in internal/domain; this package only
// coordinates them.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// DedupIndex remembers (watchlist, patent) pairs so the same patent does not
// alert the same watchlist twice within the dedup window.
type DedupIndex interface {
	// Seen records the pair at now and reports whether it was already
	// present within the window.
	Seen(ctx context.Context, watchlistID common.ID, patentID string, now time.Time) (bool, error)
}

// AlertPublisher mirrors stored alerts onto a downstream stream (the Kafka
// alert topic).  Publish failures are logged, never surfaced: the stored
// alert is the source of truth.
type AlertPublisher interface {
	Publish(ctx context.Context, a *alert.Alert) error
}

// Dependencies collects the engine's injected collaborators.
type Dependencies struct {
	Watchlists  watchlist.Repository
	Rules       watchlist.RuleRepository
	Competitors watchlist.CompetitorRepository
	Alerts      alert.Repository
	Source      event.Source
	Dispatcher  *Dispatcher
	Dedup       DedupIndex     // nil disables deduplication
	Publisher   AlertPublisher // nil disables downstream mirroring
	Clock       common.Clock
	Logger      logging.Logger
	Metrics     Metrics
	Scheduler   config.SchedulerConfig
}

// Engine is the monitoring engine service.  It is safe for concurrent use:
// request-path operations (CRUD, dashboard) may run alongside any number of
// polling loops.
type Engine struct {
	watchlists  watchlist.Repository
	rules       watchlist.RuleRepository
	competitors watchlist.CompetitorRepository
	alerts      alert.Repository
	dispatcher  *Dispatcher
	dedup       DedupIndex
	publisher   AlertPublisher
	supervisor  *Supervisor
	clock       common.Clock
	logger      logging.Logger
	metrics     Metrics
	cfg         config.SchedulerConfig
}

// NewEngine wires an Engine and its polling supervisor.
func NewEngine(deps Dependencies) *Engine {
	if deps.Clock == nil {
		deps.Clock = common.SystemClock()
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	e := &Engine{
		watchlists:  deps.Watchlists,
		rules:       deps.Rules,
		competitors: deps.Competitors,
		alerts:      deps.Alerts,
		dispatcher:  deps.Dispatcher,
		dedup:       deps.Dedup,
		publisher:   deps.Publisher,
		clock:       deps.Clock,
		logger:      deps.Logger.Named("engine"),
		metrics:     deps.Metrics,
		cfg:         deps.Scheduler,
	}
	e.supervisor = NewSupervisor(deps.Source, e, deps.Scheduler, deps.Clock, deps.Logger, deps.Metrics)
	return e
}

// CreateWatchlistInput carries the fields of a watchlist creation request.
type CreateWatchlistInput struct {
	Name         string
	Description  string
	OwnerID      common.UserID
	Filters      watchlist.FilterCriteria
	Settings     *watchlist.AlertSettings
	PollInterval time.Duration
	// Active defaults to true when nil.
	Active *bool
}

// CreateWatchlist creates a watchlist and, when it is active, starts its
// polling loop.
func (e *Engine) CreateWatchlist(ctx context.Context, input CreateWatchlistInput) (*watchlist.Watchlist, error) {
	settings := watchlist.AlertSettings{}
	if input.Settings != nil {
		settings = *input.Settings
	}
	w, err := watchlist.NewWatchlist(input.Name, input.OwnerID, input.Filters, settings)
	if err != nil {
		return nil, err
	}
	w.Description = input.Description
	if input.PollInterval < 0 {
		return nil, errors.Validation("poll interval must be >= 0")
	}
	w.PollInterval = input.PollInterval
	if input.Active != nil {
		w.Active = *input.Active
	}

	if err := e.watchlists.Create(ctx, w); err != nil {
		return nil, err
	}
	e.drainEvents(w)

	if w.Active {
		e.supervisor.Start(w)
	}
	e.logger.Info("watchlist created",
		logging.String("watchlist_id", string(w.ID)),
		logging.String("name", w.Name),
		logging.Bool("active", w.Active))
	return w, nil
}

// GetWatchlist loads one watchlist.
func (e *Engine) GetWatchlist(ctx context.Context, id common.ID) (*watchlist.Watchlist, error) {
	return e.watchlists.Get(ctx, id)
}

// ListWatchlists returns every watchlist, or only the owner's when ownerID
// is non-empty.
func (e *Engine) ListWatchlists(ctx context.Context, ownerID common.UserID) ([]*watchlist.Watchlist, error) {
	if ownerID != "" {
		return e.watchlists.ListByOwner(ctx, ownerID)
	}
	return e.watchlists.List(ctx)
}

// UpdateWatchlist merges a partial update.  A validation failure leaves the
// stored configuration untouched.  When the update activates the watchlist
// or changes its behaviour while active, the polling loop restarts so the
// new configuration takes effect atomically; deactivation stops the loop.
func (e *Engine) UpdateWatchlist(ctx context.Context, id common.ID, u watchlist.Update) (*watchlist.Watchlist, error) {
	w, err := e.watchlists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	restart, err := w.Apply(u)
	if err != nil {
		return nil, err
	}
	if err := e.watchlists.Update(ctx, w); err != nil {
		return nil, err
	}
	e.drainEvents(w)

	switch {
	case restart:
		e.supervisor.Start(w)
	case !w.Active:
		e.supervisor.Stop(w.ID)
	}
	return w, nil
}

// DeleteWatchlist removes a watchlist and cascades: its polling loop stops
// first (so no alert can be created afterwards, even if the event source
// replays matching events), then its alerts and rules are removed.
func (e *Engine) DeleteWatchlist(ctx context.Context, id common.ID) error {
	w, err := e.watchlists.Get(ctx, id)
	if err != nil {
		return err
	}

	e.supervisor.Stop(id)

	removedAlerts, err := e.alerts.DeleteByWatchlist(ctx, id)
	if err != nil {
		return err
	}
	removedRules, err := e.rules.DeleteByWatchlist(ctx, id)
	if err != nil {
		return err
	}
	if err := e.watchlists.Delete(ctx, id); err != nil {
		return err
	}
	w.MarkDeleted()
	e.drainEvents(w)

	e.logger.Info("watchlist deleted",
		logging.String("watchlist_id", string(id)),
		logging.Int("alerts_removed", removedAlerts),
		logging.Int("rules_removed", removedRules))
	return nil
}

// StartMonitoring is the manual override: it starts the polling loop for an
// existing watchlist regardless of prior scheduler state and flips the
// active flag on.
func (e *Engine) StartMonitoring(ctx context.Context, id common.ID) error {
	w, err := e.watchlists.Get(ctx, id)
	if err != nil {
		return err
	}
	if !w.Active {
		active := true
		if _, err := w.Apply(watchlist.Update{Active: &active}); err != nil {
			return err
		}
		if err := e.watchlists.Update(ctx, w); err != nil {
			return err
		}
		e.drainEvents(w)
	}
	e.supervisor.Start(w)
	return nil
}

// StopMonitoring is the manual override: it stops the polling loop and flips
// the active flag off, keeping all stored state.
func (e *Engine) StopMonitoring(ctx context.Context, id common.ID) error {
	w, err := e.watchlists.Get(ctx, id)
	if err != nil {
		return err
	}
	if w.Active {
		active := false
		if _, err := w.Apply(watchlist.Update{Active: &active}); err != nil {
			return err
		}
		if err := e.watchlists.Update(ctx, w); err != nil {
			return err
		}
		e.drainEvents(w)
	}
	e.supervisor.Stop(id)
	return nil
}

// MonitoringActive reports whether a polling loop is running for the
// watchlist.
func (e *Engine) MonitoringActive(id common.ID) bool {
	return e.supervisor.Running(id)
}

// ResumeAll starts polling loops for every active watchlist; called once on
// process start.
func (e *Engine) ResumeAll(ctx context.Context) error {
	active, err := e.watchlists.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, w := range active {
		e.supervisor.Start(w)
	}
	e.logger.Info("monitoring resumed", logging.Int("watchlists", len(active)))
	return nil
}

// Shutdown stops every polling loop and the dispatcher's flush loop.
func (e *Engine) Shutdown() {
	e.supervisor.StopAll()
	if e.dispatcher != nil {
		e.dispatcher.Stop()
	}
}

// drainEvents consumes accumulated domain events.  They currently feed the
// debug log; a platform event bus can subscribe here later.
func (e *Engine) drainEvents(w *watchlist.Watchlist) {
	for _, evt := range w.Events() {
		e.logger.Debug("domain event",
			logging.String("type", fmt.Sprintf("%T", evt)),
			logging.String("aggregate_id", evt.AggregateID()))
	}
}
