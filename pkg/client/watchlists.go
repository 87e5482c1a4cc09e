package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// WatchlistsClient calls the watchlist endpoints.
type WatchlistsClient struct {
	client *Client
}

// QuietHours is a daily delivery blackout window.
type QuietHours struct {
	Start    string `json:"start"` // "HH:MM"
	End      string `json:"end"`   // "HH:MM"
	Timezone string `json:"timezone,omitempty"`
}

// AlertSettings controls how a watchlist's alerts are delivered.
type AlertSettings struct {
	EmailEnabled      bool        `json:"email_enabled"`
	PushEnabled       bool        `json:"push_enabled"`
	WebhookEnabled    bool        `json:"webhook_enabled"`
	WebhookURL        string      `json:"webhook_url,omitempty"`
	Frequency         string      `json:"frequency"`
	AlertTypes        []string    `json:"alert_types,omitempty"`
	SeverityThreshold string      `json:"severity_threshold"`
	MaxAlertsPerDay   int         `json:"max_alerts_per_day"`
	QuietHours        *QuietHours `json:"quiet_hours,omitempty"`
}

// FilterCriteria selects which patent events a watchlist matches.
type FilterCriteria struct {
	Keywords        []string   `json:"keywords,omitempty"`
	ExcludeKeywords []string   `json:"exclude_keywords,omitempty"`
	Competitors     []string   `json:"competitors,omitempty"`
	Assignees       []string   `json:"assignees,omitempty"`
	Inventors       []string   `json:"inventors,omitempty"`
	Classifications []string   `json:"classifications,omitempty"`
	Jurisdictions   []string   `json:"jurisdictions,omitempty"`
	Technologies    []string   `json:"technologies,omitempty"`
	Statuses        []string   `json:"statuses,omitempty"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	DateField       string     `json:"date_field,omitempty"`
	MinClaims       int        `json:"min_claims,omitempty"`
}

// WatchlistStats is the read-side statistics block.
type WatchlistStats struct {
	TotalAlerts      int64            `json:"total_alerts"`
	AlertsLast30Days int64            `json:"alerts_last_30_days"`
	ByType           map[string]int64 `json:"by_type,omitempty"`
	AvgAlertsPerDay  float64          `json:"avg_alerts_per_day"`
	LastAlertAt      *time.Time       `json:"last_alert_at,omitempty"`
	PatentsMonitored int64            `json:"patents_monitored"`
}

// Watchlist is a monitoring definition as returned by the API.
type Watchlist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	OwnerID      string         `json:"owner_id"`
	Active       bool           `json:"active"`
	Filters      FilterCriteria `json:"filters"`
	Settings     AlertSettings  `json:"settings"`
	Stats        WatchlistStats `json:"stats"`
	PollInterval time.Duration  `json:"poll_interval,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateWatchlistRequest creates a watchlist.
type CreateWatchlistRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	OwnerID      string         `json:"owner_id"`
	Filters      FilterCriteria `json:"filters"`
	Settings     *AlertSettings `json:"settings,omitempty"`
	PollInterval *time.Duration `json:"poll_interval,omitempty"`
	Active       *bool          `json:"active,omitempty"`
}

// UpdateWatchlistRequest applies a partial update; nil fields are left
// unchanged.
type UpdateWatchlistRequest struct {
	Name         *string         `json:"name,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Active       *bool           `json:"active,omitempty"`
	Filters      *FilterCriteria `json:"filters,omitempty"`
	Settings     *AlertSettings  `json:"settings,omitempty"`
	PollInterval *time.Duration  `json:"poll_interval,omitempty"`
}

// Create creates a watchlist.
func (w *WatchlistsClient) Create(ctx context.Context, req CreateWatchlistRequest) (*Watchlist, error) {
	var out Watchlist
	if err := w.client.do(ctx, http.MethodPost, "/api/v1/watchlists", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one watchlist by id.
func (w *WatchlistsClient) Get(ctx context.Context, id string) (*Watchlist, error) {
	var out Watchlist
	if err := w.client.do(ctx, http.MethodGet, "/api/v1/watchlists/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns watchlists, optionally filtered to one owner.
func (w *WatchlistsClient) List(ctx context.Context, ownerID string) (*List[Watchlist], error) {
	path := "/api/v1/watchlists"
	if ownerID != "" {
		path += "?owner_id=" + url.QueryEscape(ownerID)
	}
	var out List[Watchlist]
	if err := w.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update.
func (w *WatchlistsClient) Update(ctx context.Context, id string, req UpdateWatchlistRequest) (*Watchlist, error) {
	var out Watchlist
	if err := w.client.do(ctx, http.MethodPut, "/api/v1/watchlists/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a watchlist along with its rules and alerts.
func (w *WatchlistsClient) Delete(ctx context.Context, id string) error {
	return w.client.do(ctx, http.MethodDelete, "/api/v1/watchlists/"+url.PathEscape(id), nil, nil)
}

// Start begins monitoring the watchlist.
func (w *WatchlistsClient) Start(ctx context.Context, id string) error {
	return w.client.do(ctx, http.MethodPost,
		fmt.Sprintf("/api/v1/watchlists/%s/start", url.PathEscape(id)), nil, nil)
}

// Stop halts monitoring without deactivating the watchlist definition.
func (w *WatchlistsClient) Stop(ctx context.Context, id string) error {
	return w.client.do(ctx, http.MethodPost,
		fmt.Sprintf("/api/v1/watchlists/%s/stop", url.PathEscape(id)), nil, nil)
}

// RuleCondition is one predicate of an alert rule.
type RuleCondition struct {
	Field         string `json:"field"`
	Operator      string `json:"operator"`
	Value         string `json:"value"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// RuleAction is one side effect of a triggered rule.
type RuleAction struct {
	Type   string            `json:"type"`
	Target string            `json:"target,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

// AlertRule is a fine-grained trigger attached to a watchlist.
type AlertRule struct {
	ID              string          `json:"id"`
	WatchlistID     string          `json:"watchlist_id"`
	Name            string          `json:"name"`
	Active          bool            `json:"active"`
	Conditions      []RuleCondition `json:"conditions"`
	Actions         []RuleAction    `json:"actions,omitempty"`
	TriggerCount    int64           `json:"trigger_count"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateRuleRequest attaches a rule to a watchlist.
type CreateRuleRequest struct {
	Name       string          `json:"name"`
	Conditions []RuleCondition `json:"conditions"`
	Actions    []RuleAction    `json:"actions,omitempty"`
	Active     *bool           `json:"active,omitempty"`
}

// CreateRule attaches an alert rule to the watchlist.
func (w *WatchlistsClient) CreateRule(ctx context.Context, watchlistID string, req CreateRuleRequest) (*AlertRule, error) {
	var out AlertRule
	path := fmt.Sprintf("/api/v1/watchlists/%s/rules", url.PathEscape(watchlistID))
	if err := w.client.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRules returns the watchlist's rules, oldest first.
func (w *WatchlistsClient) ListRules(ctx context.Context, watchlistID string) (*List[AlertRule], error) {
	var out List[AlertRule]
	path := fmt.Sprintf("/api/v1/watchlists/%s/rules", url.PathEscape(watchlistID))
	if err := w.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRule removes one rule.
func (w *WatchlistsClient) DeleteRule(ctx context.Context, ruleID string) error {
	return w.client.do(ctx, http.MethodDelete, "/api/v1/rules/"+url.PathEscape(ruleID), nil, nil)
}
