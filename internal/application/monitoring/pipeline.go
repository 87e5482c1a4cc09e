package monitoring

import (
	"context"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// HandleBatch processes one successful poll for one watchlist: filter match,
// rule evaluation, alert creation, statistics, dispatch.  Events are handled
// in the order received.  Every failure is contained here; nothing escapes
// to the polling loop or to other watchlists.
func (e *Engine) HandleBatch(ctx context.Context, watchlistID common.ID, events []event.PatentEvent) {
	w, err := e.watchlists.Get(ctx, watchlistID)
	if err != nil {
		e.logger.Warn("poll batch dropped, watchlist unavailable",
			logging.String("watchlist_id", string(watchlistID)),
			logging.Err(err))
		return
	}
	if !w.Active {
		return
	}

	rules, err := e.rules.ListByWatchlist(ctx, watchlistID)
	if err != nil {
		e.logger.Error("rule load failed, proceeding without rules",
			logging.String("watchlist_id", string(watchlistID)),
			logging.Err(err))
		rules = nil
	}
	var activeRules []*watchlist.AlertRule
	for _, r := range rules {
		if r.Active {
			activeRules = append(activeRules, r)
		}
	}

	matcher := watchlist.NewMatcher(e.aliasDirectory(ctx))

	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		if !matcher.Matches(w.Filters, ev) {
			continue
		}

		// With active rules attached, at least one must trigger for the
		// event to produce an alert; a bare filter match is enough when no
		// rule is active.
		if len(activeRules) > 0 {
			triggered := e.evaluateRules(ctx, activeRules, ev)
			if len(triggered) == 0 {
				continue
			}
			if a := e.createAlert(ctx, w, matcher, ev); a != nil {
				for _, r := range triggered {
					e.dispatchRule(ctx, r, a)
				}
			}
			continue
		}

		e.createAlert(ctx, w, matcher, ev)
	}
}

// evaluateRules returns the rules the event triggers, with trigger
// bookkeeping persisted.  Persistence failures are logged; the trigger still
// counts for this batch.
func (e *Engine) evaluateRules(ctx context.Context, rules []*watchlist.AlertRule, ev event.PatentEvent) []*watchlist.AlertRule {
	var triggered []*watchlist.AlertRule
	now := e.clock.Now()
	for _, r := range rules {
		if !watchlist.Evaluate(r, ev) {
			continue
		}
		r.RecordTrigger(now)
		if err := e.rules.Update(ctx, r); err != nil {
			e.logger.Error("rule trigger bookkeeping failed",
				logging.String("rule_id", string(r.ID)),
				logging.Err(err))
		}
		triggered = append(triggered, r)
	}
	return triggered
}

// createAlert builds, deduplicates, persists and dispatches one alert.
// Returns nil when the event was deduplicated or persistence failed.
func (e *Engine) createAlert(ctx context.Context, w *watchlist.Watchlist, matcher *watchlist.Matcher, ev event.PatentEvent) *alert.Alert {
	now := e.clock.Now()

	if e.dedup != nil && ev.PatentID != "" {
		seen, err := e.dedup.Seen(ctx, w.ID, ev.PatentID, now)
		if err != nil {
			e.logger.Warn("dedup index unavailable, alerting anyway", logging.Err(err))
		} else if seen {
			e.logger.Debug("duplicate alert suppressed",
				logging.String("watchlist_id", string(w.ID)),
				logging.String("patent_id", ev.PatentID))
			return nil
		}
	}

	competitorMatch := len(w.Filters.Competitors) > 0 &&
		matcher.CompetitorMatch(w.Filters.Competitors, ev.Applicants)

	a, err := alert.FromEvent(ev, w.ID, w.Name, competitorMatch)
	if err != nil {
		e.logger.Error("alert construction failed",
			logging.String("event_id", ev.ID),
			logging.Err(err))
		return nil
	}
	if err := e.alerts.Save(ctx, a); err != nil {
		e.logger.Error("alert persistence failed",
			logging.String("watchlist_id", string(w.ID)),
			logging.Err(err))
		return nil
	}

	// The statistics write goes through the repository's atomic increment
	// rather than a full aggregate save, so a user update landing mid-batch
	// is never overwritten with this loop's stale snapshot.
	if err := e.watchlists.RecordAlert(ctx, w.ID, a.Type, a.PatentID, now); err != nil {
		e.logger.Error("statistics update failed",
			logging.String("watchlist_id", string(w.ID)),
			logging.Err(err))
	}
	e.metrics.AlertCreated(a.Type, a.Severity)

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, a); err != nil {
			e.logger.Warn("alert stream publish failed",
				logging.String("alert_id", string(a.ID)),
				logging.Err(err))
		}
	}

	if e.dispatcher != nil {
		e.dispatcher.Dispatch(ctx, a, w.Settings)
	}
	return a
}

// dispatchRule runs a triggered rule's actions.
func (e *Engine) dispatchRule(ctx context.Context, r *watchlist.AlertRule, a *alert.Alert) {
	if e.dispatcher == nil || len(r.Actions) == 0 {
		return
	}
	e.dispatcher.DispatchActions(ctx, r.Actions, a)
}

// aliasDirectory snapshots the competitor profiles into an alias directory
// for this batch.  A load failure degrades to exact-name matching.
func (e *Engine) aliasDirectory(ctx context.Context) watchlist.AliasDirectory {
	if e.competitors == nil {
		return nil
	}
	profiles, err := e.competitors.List(ctx)
	if err != nil {
		e.logger.Warn("competitor directory unavailable", logging.Err(err))
		return nil
	}
	return watchlist.NewDirectory(profiles)
}
