// Package watchlist implements the Watchlist bounded context: the aggregate
// root, its filter criteria and delivery settings, alert rules, competitor
// profiles, and the pure matcher/evaluator services.  All business rules
// about what a watchlist monitors and how it alerts live here; polling,
// persistence and delivery are handled by outer layers.
package watchlist

import (
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Watchlist is the aggregate root: a named, persistent monitoring definition
// owned by one user.  Mutations must go through the exported methods so that
// invariants, statistics and domain events stay consistent.
type Watchlist struct {
	common.BaseEntity
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	OwnerID     common.UserID `json:"owner_id"`
	Active      bool          `json:"active"`

	Filters  FilterCriteria `json:"filters"`
	Settings AlertSettings  `json:"settings"`
	Stats    Stats          `json:"stats"`

	// PollInterval overrides the engine's default cadence when positive.
	PollInterval time.Duration `json:"poll_interval,omitempty"`

	events []common.DomainEvent
}

// NewWatchlist creates a Watchlist with zeroed statistics.  The competitor
// counter on the statistics is derived from the filter criteria.  Settings
// left zero-valued fall back to DefaultAlertSettings.
func NewWatchlist(name string, ownerID common.UserID, filters FilterCriteria, settings AlertSettings) (*Watchlist, error) {
	if name == "" {
		return nil, errors.Validation("watchlist name must not be empty")
	}
	if ownerID == "" {
		return nil, errors.Validation("watchlist owner id must not be empty")
	}
	if settings.IsZero() {
		settings = DefaultAlertSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w := &Watchlist{
		BaseEntity: common.BaseEntity{
			ID:        common.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
		Name:     name,
		OwnerID:  ownerID,
		Active:   true,
		Filters:  filters,
		Settings: settings,
		Stats:    NewStats(len(filters.Competitors)),
	}
	w.recordEvent(NewWatchlistCreatedEvent(w))
	return w, nil
}

// Update describes a partial mutation of a watchlist.  Nil fields are left
// unchanged.
type Update struct {
	Name         *string
	Description  *string
	Active       *bool
	Filters      *FilterCriteria
	Settings     *AlertSettings
	PollInterval *time.Duration
}

// Apply merges the update into the watchlist.  It returns restart=true when
// the monitoring scheduler must be restarted for the change to take effect:
// an activation, or a filter/settings/interval change while active.
// Validation failures leave the watchlist untouched.
func (w *Watchlist) Apply(u Update) (restart bool, err error) {
	if u.Name != nil && *u.Name == "" {
		return false, errors.Validation("watchlist name must not be empty")
	}
	if u.Settings != nil {
		if err := u.Settings.Validate(); err != nil {
			return false, err
		}
	}
	if u.PollInterval != nil && *u.PollInterval < 0 {
		return false, errors.Validation(fmt.Sprintf("poll interval must be >= 0, got %s", *u.PollInterval))
	}

	wasActive := w.Active
	changedBehaviour := false

	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.Description != nil {
		w.Description = *u.Description
	}
	if u.Filters != nil {
		w.Filters = *u.Filters
		w.Stats.CompetitorsTracked = len(u.Filters.Competitors)
		changedBehaviour = true
	}
	if u.Settings != nil {
		w.Settings = *u.Settings
		changedBehaviour = true
	}
	if u.PollInterval != nil {
		w.PollInterval = *u.PollInterval
		changedBehaviour = true
	}
	if u.Active != nil {
		w.Active = *u.Active
	}

	w.touch()
	w.recordEvent(NewWatchlistUpdatedEvent(w))

	switch {
	case !wasActive && w.Active:
		// Reactivation resumes from the current time; no backfill.
		return true, nil
	case wasActive && !w.Active:
		// Deactivation stops the scheduler; the supervisor handles it from
		// the returned restart=false plus the Active flag.
		return false, nil
	case w.Active && changedBehaviour:
		return true, nil
	default:
		return false, nil
	}
}

// RecordAlert folds one created alert into the watchlist statistics.
func (w *Watchlist) RecordAlert(alertType mtypes.AlertType, patentID string, now time.Time) {
	w.Stats.RecordAlert(alertType, patentID, now)
	w.touch()
}

// MarkDeleted records the deletion domain event.  Cascading removal of
// alerts, rules and the scheduler is orchestrated by the application layer.
func (w *Watchlist) MarkDeleted() {
	w.recordEvent(NewWatchlistDeletedEvent(w))
}

// Interval returns the effective poll cadence given the engine default.
func (w *Watchlist) Interval(engineDefault time.Duration) time.Duration {
	if w.PollInterval > 0 {
		return w.PollInterval
	}
	return engineDefault
}

// Events drains and returns the accumulated domain events.
func (w *Watchlist) Events() []common.DomainEvent {
	evts := w.events
	w.events = nil
	return evts
}

func (w *Watchlist) recordEvent(evt common.DomainEvent) {
	w.events = append(w.events, evt)
}

func (w *Watchlist) touch() {
	w.UpdatedAt = time.Now().UTC()
	w.Version++
}
