package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/database/memory"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/internal/testutil"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func slowConfig() config.SchedulerConfig {
	// Interval long enough that no tick fires during a test; batches are
	// injected through HandleBatch directly.
	return config.SchedulerConfig{
		DefaultInterval:    time.Hour,
		MaxConcurrentPolls: 4,
		PollTimeout:        time.Second,
	}
}

func TestEngine_CreateWatchlist(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "Battery Watch",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.True(t, rig.engine.MonitoringActive(w.ID), "active watchlist gets a polling loop")

	inactive := false
	w2, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "Parked",
		OwnerID: "user-1",
		Active:  &inactive,
	})
	require.NoError(t, err)
	assert.False(t, rig.engine.MonitoringActive(w2.ID))
}

func TestEngine_UpdateWatchlist_LifecycleTransitions(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "w", OwnerID: "user-1"})
	require.NoError(t, err)

	off := false
	_, err = rig.engine.UpdateWatchlist(ctx, w.ID, watchlist.Update{Active: &off})
	require.NoError(t, err)
	assert.False(t, rig.engine.MonitoringActive(w.ID), "deactivation stops the loop")

	on := true
	_, err = rig.engine.UpdateWatchlist(ctx, w.ID, watchlist.Update{Active: &on})
	require.NoError(t, err)
	assert.True(t, rig.engine.MonitoringActive(w.ID), "reactivation restarts the loop")

	bad := ""
	_, err = rig.engine.UpdateWatchlist(ctx, w.ID, watchlist.Update{Name: &bad})
	require.Error(t, err)
	stored, err := rig.engine.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "w", stored.Name, "failed update leaves prior configuration in effect")
}

func TestEngine_DeleteWatchlist_Cascades(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)

	_, err = rig.engine.CreateRule(ctx, CreateRuleInput{
		WatchlistID: w.ID,
		Name:        "high claims",
		Conditions: []watchlist.RuleCondition{
			{Field: "claim_count", Operator: mtypes.OperatorGreaterThan, Value: "5"},
		},
	})
	require.NoError(t, err)

	events := []event.PatentEvent{
		filingEvent("1", "Battery Electrode", "Acme"),
		filingEvent("2", "Battery Separator", "Acme"),
		filingEvent("3", "Battery Cathode", "Acme"),
	}
	rig.engine.HandleBatch(ctx, w.ID, events)

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	require.NoError(t, rig.engine.DeleteWatchlist(ctx, w.ID))

	_, err = rig.engine.GetWatchlist(ctx, w.ID)
	assert.True(t, errors.IsNotFound(err))
	_, total, err = rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Zero(t, total, "alerts removed with the watchlist")
	rules, err := rig.stores.rules.ListByWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, rules, "rules removed with the watchlist")
	assert.False(t, rig.engine.MonitoringActive(w.ID))

	// A replayed batch after deletion creates nothing.
	rig.engine.HandleBatch(ctx, w.ID, events)
	_, total, err = rig.engine.ListAlerts(ctx, alert.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEngine_HandleBatch_BasicMatch(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "AI Watch",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"neural network"}},
	})
	require.NoError(t, err)

	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{
		filingEvent("1", "Neural Network Accelerator Patent", "Acme"),
		filingEvent("2", "Hydraulic Pump", "Acme"),
	})

	alerts, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, mtypes.AlertNewPatent, alerts[0].Type)
	assert.Equal(t, mtypes.SeverityMedium, alerts[0].Severity)

	stored, err := rig.engine.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Stats.TotalAlerts)
	assert.Equal(t, int64(1), stored.Stats.PatentsMonitored)
}

// hookedAlertRepo runs a callback before delegating Save, to interleave a
// concurrent mutation mid-batch.
type hookedAlertRepo struct {
	alert.Repository
	beforeSave func()
}

func (h *hookedAlertRepo) Save(ctx context.Context, a *alert.Alert) error {
	if h.beforeSave != nil {
		h.beforeSave()
	}
	return h.Repository.Save(ctx, a)
}

func TestEngine_HandleBatch_UserUpdateMidBatchIsPreserved(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	watchlists := memory.NewWatchlistRepo()
	alerts := &hookedAlertRepo{Repository: memory.NewAlertRepo(clock)}

	engine := NewEngine(Dependencies{
		Watchlists:  watchlists,
		Rules:       memory.NewRuleRepo(),
		Competitors: memory.NewCompetitorRepo(),
		Alerts:      alerts,
		Source:      &stubSource{},
		Clock:       clock,
		Logger:      logging.NewNopLogger(),
		Scheduler:   slowConfig(),
	})
	defer engine.Shutdown()
	ctx := context.Background()

	w, err := engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "AI Patents",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"neural"}},
	})
	require.NoError(t, err)

	// A rename plus deactivation lands after the batch takes its snapshot
	// but before the alert's statistics are recorded.
	alerts.beforeSave = func() {
		upd, err := watchlists.Get(ctx, w.ID)
		require.NoError(t, err)
		upd.Name = "Renamed"
		upd.Active = false
		require.NoError(t, watchlists.Update(ctx, upd))
	}

	engine.HandleBatch(ctx, w.ID, []event.PatentEvent{
		filingEvent("1", "Neural Accelerator", "Acme"),
	})

	stored, err := watchlists.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name, "user rename survives the batch")
	assert.False(t, stored.Active, "deactivation survives the batch")
	assert.Equal(t, int64(1), stored.Stats.TotalAlerts, "statistics increment still lands")
}

func TestEngine_HandleBatch_ExcludeWins(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{
			Keywords:        []string{"vehicle"},
			ExcludeKeywords: []string{"toy"},
		},
	})
	require.NoError(t, err)

	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{
		filingEvent("1", "Toy Vehicle Patent", "Acme"),
	})

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEngine_HandleBatch_Dedup(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)

	e := filingEvent("1", "Battery Electrode", "Acme")
	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{e})
	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{e})

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "same patent within the window alerts once")

	rig.clock.Advance(25 * time.Hour)
	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{e})
	_, total, err = rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "suppression expires with the window")
}

func TestEngine_HandleBatch_CompetitorRefinement(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	_, err := rig.engine.CreateCompetitor(ctx, CreateCompetitorInput{
		Name:    "Acme Semiconductors",
		Aliases: []string{"Acme Semi"},
	})
	require.NoError(t, err)

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Competitors: []string{"Acme Semiconductors"}},
	})
	require.NoError(t, err)

	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{
		filingEvent("1", "Chip Package", "Acme Semi"),
	})

	alerts, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total, "alias matches the tracked competitor")
	assert.Equal(t, mtypes.AlertCompetitorFiling, alerts[0].Type)
	assert.Equal(t, mtypes.SeverityHigh, alerts[0].Severity)
}

func TestEngine_HandleBatch_RulesGateAlerts(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)

	r, err := rig.engine.CreateRule(ctx, CreateRuleInput{
		WatchlistID: w.ID,
		Name:        "many claims",
		Conditions: []watchlist.RuleCondition{
			{Field: "claim_count", Operator: mtypes.OperatorGreaterThan, Value: "15"},
		},
	})
	require.NoError(t, err)

	few := filingEvent("1", "Battery Electrode", "Acme") // 10 claims
	many := filingEvent("2", "Battery Separator", "Acme")
	many.ClaimCount = 20

	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{few, many})

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "with active rules, only triggering events alert")

	stored, err := rig.engine.GetRule(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TriggerCount)
	assert.NotNil(t, stored.LastTriggeredAt)
}

func TestEngine_HandleBatch_FailureContainment(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	b, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "b",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)

	// A batch for an unknown watchlist is dropped without panicking and
	// without touching other watchlists.
	rig.engine.HandleBatch(ctx, "no-such-watchlist", []event.PatentEvent{
		filingEvent("1", "Battery Electrode", "Acme"),
	})
	rig.engine.HandleBatch(ctx, b.ID, []event.PatentEvent{
		filingEvent("2", "Battery Separator", "Acme"),
	})

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestEngine_MarkAlertRead_Idempotent(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Filters: watchlist.FilterCriteria{Keywords: []string{"battery"}},
	})
	require.NoError(t, err)
	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{
		filingEvent("1", "Battery Electrode", "Acme"),
	})
	alerts, _, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	read, err := rig.engine.MarkAlertRead(ctx, alerts[0].ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	stamp := *read.ReadAt

	rig.clock.Advance(time.Hour)
	again, err := rig.engine.MarkAlertRead(ctx, alerts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, stamp, *again.ReadAt)

	// Read state never feeds statistics.
	stored, err := rig.engine.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Stats.TotalAlerts)
}

func TestEngine_ManualStartStop(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	inactive := false
	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:    "w",
		OwnerID: "user-1",
		Active:  &inactive,
	})
	require.NoError(t, err)
	require.False(t, rig.engine.MonitoringActive(w.ID))

	require.NoError(t, rig.engine.StartMonitoring(ctx, w.ID))
	assert.True(t, rig.engine.MonitoringActive(w.ID))
	stored, err := rig.engine.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active, "manual start flips the active flag")

	require.NoError(t, rig.engine.StopMonitoring(ctx, w.ID))
	assert.False(t, rig.engine.MonitoringActive(w.ID))
	stored, err = rig.engine.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestEngine_SeverityGating_StoredButNotDelivered(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	settings := watchlist.DefaultAlertSettings()
	settings.SeverityThreshold = mtypes.SeverityHigh

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{
		Name:     "w",
		OwnerID:  "user-1",
		Filters:  watchlist.FilterCriteria{Keywords: []string{"trend"}},
		Settings: &settings,
	})
	require.NoError(t, err)

	trend := filingEvent("1", "Trend Report", "Acme")
	trend.Kind = event.KindTrend // low severity
	rig.engine.HandleBatch(ctx, w.ID, []event.PatentEvent{trend})

	_, total, err := rig.engine.ListAlerts(ctx, alert.ListFilter{WatchlistID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "alert is stored and listable")
	assert.Empty(t, rig.email.deliveries(), "but never reaches a channel")
}
