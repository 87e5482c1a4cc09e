package monitoring

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// GlobalStats is the cross-watchlist headline of the dashboard.
type GlobalStats struct {
	TotalAlerts        int64 `json:"total_alerts"`
	UnreadAlerts       int64 `json:"unread_alerts"`
	ActiveWatchlists   int   `json:"active_watchlists"`
	HighSeverityAlerts int64 `json:"high_severity_alerts"`
}

// TrendingTopic is one technology tag ranked by alert volume, annotated with
// its direction versus the immediately preceding window of equal length.
type TrendingTopic struct {
	Topic      string                `json:"topic"`
	AlertCount int                   `json:"alert_count"`
	Direction  mtypes.TrendDirection `json:"direction"`
	// ChangePct is the percent change versus the preceding window; 100 when
	// the topic is new in this window.
	ChangePct float64 `json:"change_pct"`
}

// ActivityEntry is one item of the merged recent-activity feed.
type ActivityEntry struct {
	Kind          string               `json:"kind"` // alert_created | watchlist_created | watchlist_updated
	OccurredAt    time.Time            `json:"occurred_at"`
	WatchlistID   common.ID            `json:"watchlist_id"`
	WatchlistName string               `json:"watchlist_name"`
	AlertID       common.ID            `json:"alert_id,omitempty"`
	Title         string               `json:"title"`
	Severity      mtypes.AlertSeverity `json:"severity,omitempty"`
}

// Dashboard is the read-only aggregate view.  It is derived on demand and
// never persisted.
type Dashboard struct {
	Stats          GlobalStats            `json:"stats"`
	RecentAlerts   []*alert.Alert         `json:"recent_alerts"`
	Watchlists     []*watchlist.Watchlist `json:"watchlists"`
	TrendingTopics []TrendingTopic        `json:"trending_topics"`
	RecentActivity []ActivityEntry        `json:"recent_activity"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// DashboardOptions tunes the aggregation.  Zero values fall back to the
// defaults below.
type DashboardOptions struct {
	RecentAlerts int           // default 10
	TopTopics    int           // default 5
	TrendWindow  time.Duration // default 7 days
	ActivityFeed int           // default 10
}

const (
	defaultRecentAlerts = 10
	defaultTopTopics    = 5
	defaultTrendWindow  = 7 * 24 * time.Hour
	defaultActivityFeed = 10
	// trendStableBandPct is the percent-change band treated as stable.
	trendStableBandPct = 10.0
)

// Dashboard assembles the aggregate view.  Watchlists and alerts are read
// concurrently as consistent snapshots; the computation itself holds no
// locks and tolerates mutation happening behind the repositories.
func (e *Engine) Dashboard(ctx context.Context, opts DashboardOptions) (*Dashboard, error) {
	if opts.RecentAlerts <= 0 {
		opts.RecentAlerts = defaultRecentAlerts
	}
	if opts.TopTopics <= 0 {
		opts.TopTopics = defaultTopTopics
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = defaultTrendWindow
	}
	if opts.ActivityFeed <= 0 {
		opts.ActivityFeed = defaultActivityFeed
	}

	var (
		watchlists []*watchlist.Watchlist
		alerts     []*alert.Alert
		totalCount int64
		unread     int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		watchlists, err = e.watchlists.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, totalCount, err = e.alerts.List(gctx, alert.ListFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = e.alerts.CountUnread(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := e.clock.Now()

	stats := GlobalStats{
		TotalAlerts:  totalCount,
		UnreadAlerts: unread,
	}
	for _, w := range watchlists {
		if w.Active {
			stats.ActiveWatchlists++
		}
	}
	for _, a := range alerts {
		if a.Severity == mtypes.SeverityHigh || a.Severity == mtypes.SeverityCritical {
			stats.HighSeverityAlerts++
		}
	}

	recent := alerts
	if len(recent) > opts.RecentAlerts {
		recent = recent[:opts.RecentAlerts]
	}

	return &Dashboard{
		Stats:          stats,
		RecentAlerts:   recent,
		Watchlists:     watchlists,
		TrendingTopics: trendingTopics(alerts, now, opts.TrendWindow, opts.TopTopics),
		RecentActivity: recentActivity(alerts, watchlists, opts.ActivityFeed),
		GeneratedAt:    now,
	}, nil
}

// trendingTopics ranks technology tags by alert count over the trailing
// window and annotates each with its direction versus the preceding window
// of equal length.
func trendingTopics(alerts []*alert.Alert, now time.Time, window time.Duration, topN int) []TrendingTopic {
	currentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	current := make(map[string]int)
	previous := make(map[string]int)
	display := make(map[string]string)
	for _, a := range alerts {
		if a.Technology == "" {
			continue
		}
		key := strings.ToLower(a.Technology)
		display[key] = a.Technology
		switch {
		case a.CreatedAt.After(currentStart):
			current[key]++
		case a.CreatedAt.After(previousStart):
			previous[key]++
		}
	}

	topics := make([]TrendingTopic, 0, len(current))
	for key, count := range current {
		prev := previous[key]
		var direction mtypes.TrendDirection
		var pct float64
		switch {
		case prev == 0:
			direction = mtypes.TrendUp
			pct = 100
		default:
			pct = (float64(count) - float64(prev)) / float64(prev) * 100
			switch {
			case pct > trendStableBandPct:
				direction = mtypes.TrendUp
			case pct < -trendStableBandPct:
				direction = mtypes.TrendDown
			default:
				direction = mtypes.TrendStable
			}
		}
		topics = append(topics, TrendingTopic{
			Topic:      display[key],
			AlertCount: count,
			Direction:  direction,
			ChangePct:  pct,
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].AlertCount != topics[j].AlertCount {
			return topics[i].AlertCount > topics[j].AlertCount
		}
		return topics[i].Topic < topics[j].Topic
	})
	if len(topics) > topN {
		topics = topics[:topN]
	}
	return topics
}

// recentActivity merges alert creations with watchlist lifecycle changes
// into one feed, newest first.
func recentActivity(alerts []*alert.Alert, watchlists []*watchlist.Watchlist, limit int) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(alerts)+2*len(watchlists))
	for _, a := range alerts {
		entries = append(entries, ActivityEntry{
			Kind:          "alert_created",
			OccurredAt:    a.CreatedAt,
			WatchlistID:   a.WatchlistID,
			WatchlistName: a.WatchlistName,
			AlertID:       a.ID,
			Title:         a.Title,
			Severity:      a.Severity,
		})
	}
	for _, w := range watchlists {
		entries = append(entries, ActivityEntry{
			Kind:          "watchlist_created",
			OccurredAt:    w.CreatedAt,
			WatchlistID:   w.ID,
			WatchlistName: w.Name,
			Title:         w.Name,
		})
		if w.UpdatedAt.After(w.CreatedAt) {
			entries = append(entries, ActivityEntry{
				Kind:          "watchlist_updated",
				OccurredAt:    w.UpdatedAt,
				WatchlistID:   w.ID,
				WatchlistName: w.Name,
				Title:         w.Name,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
