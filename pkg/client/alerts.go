package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// AlertsClient calls the alert and dashboard endpoints.
type AlertsClient struct {
	client *Client
}

// Alert is one stored alert as returned by the API.
type Alert struct {
	ID            string     `json:"id"`
	WatchlistID   string     `json:"watchlist_id"`
	WatchlistName string     `json:"watchlist_name,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Severity      string     `json:"severity"`
	PatentID      string     `json:"patent_id,omitempty"`
	PatentNumber  string     `json:"patent_number,omitempty"`
	Applicant     string     `json:"applicant,omitempty"`
	Technology    string     `json:"technology,omitempty"`
	Jurisdiction  string     `json:"jurisdiction,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AlertListOptions filters the alert listing.  Zero values are omitted.
type AlertListOptions struct {
	WatchlistID string
	UnreadOnly  bool
	Severity    string
	Type        string
	Limit       int
	Offset      int
}

func (o AlertListOptions) query() string {
	q := url.Values{}
	if o.WatchlistID != "" {
		q.Set("watchlist_id", o.WatchlistID)
	}
	if o.UnreadOnly {
		q.Set("unread", "true")
	}
	if o.Severity != "" {
		q.Set("severity", o.Severity)
	}
	if o.Type != "" {
		q.Set("type", o.Type)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// List returns alerts newest first.
func (a *AlertsClient) List(ctx context.Context, opts AlertListOptions) (*List[Alert], error) {
	var out List[Alert]
	if err := a.client.do(ctx, http.MethodGet, "/api/v1/alerts"+opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one alert by id.
func (a *AlertsClient) Get(ctx context.Context, id string) (*Alert, error) {
	var out Alert
	if err := a.client.do(ctx, http.MethodGet, "/api/v1/alerts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead marks one alert read; repeating it is a no-op.
func (a *AlertsClient) MarkRead(ctx context.Context, id string) (*Alert, error) {
	var out Alert
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/alerts/"+url.PathEscape(id)+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAllRead marks every unread alert read, optionally scoped to one
// watchlist, and returns how many changed.
func (a *AlertsClient) MarkAllRead(ctx context.Context, watchlistID string) (int, error) {
	path := "/api/v1/alerts/read-all"
	if watchlistID != "" {
		path += "?watchlist_id=" + url.QueryEscape(watchlistID)
	}
	var out struct {
		Marked int `json:"marked"`
	}
	if err := a.client.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Marked, nil
}

// UnreadCount returns the number of unread alerts, optionally scoped to one
// watchlist.
func (a *AlertsClient) UnreadCount(ctx context.Context, watchlistID string) (int64, error) {
	path := "/api/v1/alerts/unread-count"
	if watchlistID != "" {
		path += "?watchlist_id=" + url.QueryEscape(watchlistID)
	}
	var out struct {
		Unread int64 `json:"unread"`
	}
	if err := a.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Unread, nil
}

// Delete removes one alert.
func (a *AlertsClient) Delete(ctx context.Context, id string) error {
	return a.client.do(ctx, http.MethodDelete, "/api/v1/alerts/"+url.PathEscape(id), nil, nil)
}

// DashboardStats is the global counters block of the dashboard.
type DashboardStats struct {
	TotalAlerts        int64 `json:"total_alerts"`
	UnreadAlerts       int64 `json:"unread_alerts"`
	ActiveWatchlists   int   `json:"active_watchlists"`
	HighSeverityAlerts int64 `json:"high_severity_alerts"`
}

// TrendingTopic is one technology tag ranked by alert volume.
type TrendingTopic struct {
	Topic      string `json:"topic"`
	AlertCount int    `json:"alert_count"`
	Direction  string `json:"direction"`
}

// Dashboard is the aggregated monitoring view.
type Dashboard struct {
	Stats          DashboardStats  `json:"stats"`
	RecentAlerts   []Alert         `json:"recent_alerts"`
	Watchlists     []Watchlist     `json:"watchlists"`
	TrendingTopics []TrendingTopic `json:"trending_topics"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Dashboard fetches the aggregated view.  trendWindowDays <= 0 uses the
// server default.
func (a *AlertsClient) Dashboard(ctx context.Context, trendWindowDays int) (*Dashboard, error) {
	path := "/api/v1/dashboard"
	if trendWindowDays > 0 {
		path += "?trend_window_days=" + strconv.Itoa(trendWindowDays)
	}
	var out Dashboard
	if err := a.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
