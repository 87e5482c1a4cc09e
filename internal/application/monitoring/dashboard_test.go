package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// seedAlert stores an alert with a fixed creation time and technology tag.
func seedAlert(t *testing.T, rig *testRig, w *watchlist.Watchlist, tech string,
	severity mtypes.AlertSeverity, createdAt time.Time) *alert.Alert {
	t.Helper()
	a, err := alert.New(w.ID, w.Name, "t", "d", mtypes.AlertNewPatent, severity)
	require.NoError(t, err)
	a.Technology = tech
	a.CreatedAt = createdAt
	require.NoError(t, rig.stores.alerts.Save(context.Background(), a))
	return a
}

func TestDashboard_GlobalStats(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	active, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "a", OwnerID: "u"})
	require.NoError(t, err)
	inactive := false
	_, err = rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "b", OwnerID: "u", Active: &inactive})
	require.NoError(t, err)

	now := rig.clock.Now()
	seedAlert(t, rig, active, "batteries", mtypes.SeverityLow, now.Add(-time.Hour))
	seedAlert(t, rig, active, "batteries", mtypes.SeverityCritical, now.Add(-2*time.Hour))
	read := seedAlert(t, rig, active, "batteries", mtypes.SeverityHigh, now.Add(-3*time.Hour))
	_, err = rig.engine.MarkAlertRead(ctx, read.ID)
	require.NoError(t, err)

	db, err := rig.engine.Dashboard(ctx, DashboardOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), db.Stats.TotalAlerts)
	assert.Equal(t, int64(2), db.Stats.UnreadAlerts)
	assert.Equal(t, 1, db.Stats.ActiveWatchlists)
	assert.Equal(t, int64(2), db.Stats.HighSeverityAlerts)
	assert.Len(t, db.Watchlists, 2)
	require.NotEmpty(t, db.RecentAlerts)
	assert.True(t, db.RecentAlerts[0].CreatedAt.After(db.RecentAlerts[1].CreatedAt),
		"recent alerts are newest first")
}

func TestDashboard_TrendingTopics(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "w", OwnerID: "u"})
	require.NoError(t, err)

	now := rig.clock.Now()
	week := 7 * 24 * time.Hour

	// "batteries": 3 this window vs 1 previous -> up.
	for i := 0; i < 3; i++ {
		seedAlert(t, rig, w, "batteries", mtypes.SeverityMedium, now.Add(-time.Duration(i+1)*time.Hour))
	}
	seedAlert(t, rig, w, "batteries", mtypes.SeverityMedium, now.Add(-week-time.Hour))

	// "solar": 1 this window vs 3 previous -> down.
	seedAlert(t, rig, w, "solar", mtypes.SeverityMedium, now.Add(-time.Hour))
	for i := 0; i < 3; i++ {
		seedAlert(t, rig, w, "solar", mtypes.SeverityMedium, now.Add(-week-time.Duration(i+1)*time.Hour))
	}

	// "fuel cells": 2 vs 2 -> stable.
	for i := 0; i < 2; i++ {
		seedAlert(t, rig, w, "fuel cells", mtypes.SeverityMedium, now.Add(-time.Duration(i+1)*time.Hour))
		seedAlert(t, rig, w, "fuel cells", mtypes.SeverityMedium, now.Add(-week-time.Duration(i+1)*time.Hour))
	}

	// "quantum": new this window -> up, 100%.
	seedAlert(t, rig, w, "quantum", mtypes.SeverityMedium, now.Add(-time.Hour))

	db, err := rig.engine.Dashboard(ctx, DashboardOptions{TopTopics: 10})
	require.NoError(t, err)

	byTopic := make(map[string]TrendingTopic)
	for _, tt := range db.TrendingTopics {
		byTopic[tt.Topic] = tt
	}

	require.Contains(t, byTopic, "batteries")
	assert.Equal(t, mtypes.TrendUp, byTopic["batteries"].Direction)
	assert.Equal(t, 3, byTopic["batteries"].AlertCount)

	require.Contains(t, byTopic, "solar")
	assert.Equal(t, mtypes.TrendDown, byTopic["solar"].Direction)

	require.Contains(t, byTopic, "fuel cells")
	assert.Equal(t, mtypes.TrendStable, byTopic["fuel cells"].Direction)

	require.Contains(t, byTopic, "quantum")
	assert.Equal(t, mtypes.TrendUp, byTopic["quantum"].Direction)
	assert.Equal(t, float64(100), byTopic["quantum"].ChangePct)

	assert.Equal(t, "batteries", db.TrendingTopics[0].Topic, "ranked by current-window volume")
}

func TestDashboard_RecentActivity(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "w", OwnerID: "u"})
	require.NoError(t, err)

	now := rig.clock.Now()
	seedAlert(t, rig, w, "batteries", mtypes.SeverityMedium, now.Add(-time.Minute))

	db, err := rig.engine.Dashboard(ctx, DashboardOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, db.RecentActivity)
	kinds := make(map[string]bool)
	for _, entry := range db.RecentActivity {
		kinds[entry.Kind] = true
	}
	assert.True(t, kinds["alert_created"])
	assert.True(t, kinds["watchlist_created"])

	for i := 1; i < len(db.RecentActivity); i++ {
		assert.False(t, db.RecentActivity[i].OccurredAt.After(db.RecentActivity[i-1].OccurredAt),
			"activity feed is time-sorted, newest first")
	}
}

func TestDashboard_LimitsApplied(t *testing.T) {
	rig := newTestRig(slowConfig())
	defer rig.engine.Shutdown()
	ctx := context.Background()

	w, err := rig.engine.CreateWatchlist(ctx, CreateWatchlistInput{Name: "w", OwnerID: "u"})
	require.NoError(t, err)

	now := rig.clock.Now()
	for i := 0; i < 15; i++ {
		seedAlert(t, rig, w, "batteries", mtypes.SeverityMedium, now.Add(-time.Duration(i)*time.Minute))
	}

	db, err := rig.engine.Dashboard(ctx, DashboardOptions{RecentAlerts: 5, ActivityFeed: 4})
	require.NoError(t, err)
	assert.Len(t, db.RecentAlerts, 5)
	assert.Len(t, db.RecentActivity, 4)
	assert.Equal(t, int64(15), db.Stats.TotalAlerts)
}
