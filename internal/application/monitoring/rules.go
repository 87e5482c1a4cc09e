package monitoring

import (
	"context"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// CreateRuleInput carries the fields of a rule creation request.
type CreateRuleInput struct {
	WatchlistID common.ID
	Name        string
	Conditions  []watchlist.RuleCondition
	Actions     []watchlist.RuleAction
	// Active defaults to true when nil.
	Active *bool
}

// CreateRule attaches an alert rule to an existing watchlist.  Validation
// failures (empty condition list, unknown operator or action) reject the
// write without side effects.
func (e *Engine) CreateRule(ctx context.Context, input CreateRuleInput) (*watchlist.AlertRule, error) {
	if _, err := e.watchlists.Get(ctx, input.WatchlistID); err != nil {
		return nil, err
	}
	r, err := watchlist.NewAlertRule(input.WatchlistID, input.Name, input.Conditions, input.Actions)
	if err != nil {
		return nil, err
	}
	if input.Active != nil {
		r.SetActive(*input.Active)
	}
	if err := e.rules.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRuleInput carries a partial rule mutation; nil fields stay unchanged.
type UpdateRuleInput struct {
	ID         common.ID
	Name       *string
	Active     *bool
	Conditions []watchlist.RuleCondition
	Actions    []watchlist.RuleAction
}

// UpdateRule merges a partial update.  A validation failure leaves the
// stored rule untouched.
func (e *Engine) UpdateRule(ctx context.Context, input UpdateRuleInput) (*watchlist.AlertRule, error) {
	r, err := e.rules.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Conditions != nil {
		if err := r.ReplaceConditions(input.Conditions); err != nil {
			return nil, err
		}
	}
	if input.Actions != nil {
		if err := r.ReplaceActions(input.Actions); err != nil {
			return nil, err
		}
	}
	if input.Name != nil && *input.Name != "" {
		r.Name = *input.Name
	}
	if input.Active != nil {
		r.SetActive(*input.Active)
	}
	if err := e.rules.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRule loads one rule.
func (e *Engine) GetRule(ctx context.Context, id common.ID) (*watchlist.AlertRule, error) {
	return e.rules.Get(ctx, id)
}

// ListRules returns the rules attached to a watchlist.
func (e *Engine) ListRules(ctx context.Context, watchlistID common.ID) ([]*watchlist.AlertRule, error) {
	return e.rules.ListByWatchlist(ctx, watchlistID)
}

// DeleteRule removes one rule.
func (e *Engine) DeleteRule(ctx context.Context, id common.ID) error {
	return e.rules.Delete(ctx, id)
}
