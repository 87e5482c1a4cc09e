package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CompetitorsClient calls the competitor profile endpoints.
type CompetitorsClient struct {
	client *Client
}

// TrackingSettings selects which competitor activities generate alerts.
type TrackingSettings struct {
	NewFilings bool `json:"new_filings"`
	Grants     bool `json:"grants"`
	Litigation bool `json:"litigation"`
	Licensing  bool `json:"licensing"`
}

// Competitor is a tracked organization whose aliases feed applicant
// matching.
type Competitor struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Aliases       []string         `json:"aliases,omitempty"`
	PortfolioSize int              `json:"portfolio_size,omitempty"`
	Tracking      TrackingSettings `json:"tracking"`
	Priority      string           `json:"priority"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CreateCompetitorRequest registers a competitor profile.
type CreateCompetitorRequest struct {
	Name          string            `json:"name"`
	Aliases       []string          `json:"aliases,omitempty"`
	Priority      string            `json:"priority,omitempty"`
	PortfolioSize int               `json:"portfolio_size,omitempty"`
	Tracking      *TrackingSettings `json:"tracking,omitempty"`
}

// UpdateCompetitorRequest applies a partial update; nil fields are left
// unchanged.
type UpdateCompetitorRequest struct {
	Name          *string           `json:"name,omitempty"`
	Aliases       []string          `json:"aliases,omitempty"`
	Priority      *string           `json:"priority,omitempty"`
	PortfolioSize *int              `json:"portfolio_size,omitempty"`
	Tracking      *TrackingSettings `json:"tracking,omitempty"`
}

// Create registers a competitor profile.
func (cc *CompetitorsClient) Create(ctx context.Context, req CreateCompetitorRequest) (*Competitor, error) {
	var out Competitor
	if err := cc.client.do(ctx, http.MethodPost, "/api/v1/competitors", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one competitor by id.
func (cc *CompetitorsClient) Get(ctx context.Context, id string) (*Competitor, error) {
	var out Competitor
	if err := cc.client.do(ctx, http.MethodGet, "/api/v1/competitors/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns all competitor profiles sorted by name.
func (cc *CompetitorsClient) List(ctx context.Context) (*List[Competitor], error) {
	var out List[Competitor]
	if err := cc.client.do(ctx, http.MethodGet, "/api/v1/competitors", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update.
func (cc *CompetitorsClient) Update(ctx context.Context, id string, req UpdateCompetitorRequest) (*Competitor, error) {
	var out Competitor
	if err := cc.client.do(ctx, http.MethodPut, "/api/v1/competitors/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a competitor profile.
func (cc *CompetitorsClient) Delete(ctx context.Context, id string) error {
	return cc.client.do(ctx, http.MethodDelete, "/api/v1/competitors/"+url.PathEscape(id), nil, nil)
}
