package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// RuleRepo is an in-memory watchlist.RuleRepository.
type RuleRepo struct {
	mu    sync.RWMutex
	items map[common.ID]*watchlist.AlertRule
}

// NewRuleRepo returns an empty repository.
func NewRuleRepo() *RuleRepo {
	return &RuleRepo{items: make(map[common.ID]*watchlist.AlertRule)}
}

func (r *RuleRepo) Create(_ context.Context, rule *watchlist.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[rule.ID]; exists {
		return errors.Conflict(fmt.Sprintf("rule %s already exists", rule.ID))
	}
	r.items[rule.ID] = cloneRule(rule)
	return nil
}

func (r *RuleRepo) Get(_ context.Context, id common.ID) (*watchlist.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", id))
	}
	return cloneRule(rule), nil
}

func (r *RuleRepo) Update(_ context.Context, rule *watchlist.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rule.ID]; !ok {
		return errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", rule.ID))
	}
	r.items[rule.ID] = cloneRule(rule)
	return nil
}

func (r *RuleRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", id))
	}
	delete(r.items, id)
	return nil
}

func (r *RuleRepo) ListByWatchlist(_ context.Context, watchlistID common.ID) ([]*watchlist.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*watchlist.AlertRule
	for _, rule := range r.items {
		if rule.WatchlistID == watchlistID {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RuleRepo) DeleteByWatchlist(_ context.Context, watchlistID common.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, rule := range r.items {
		if rule.WatchlistID == watchlistID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

func cloneRule(r *watchlist.AlertRule) *watchlist.AlertRule {
	c := *r
	if r.Conditions != nil {
		c.Conditions = append([]watchlist.RuleCondition(nil), r.Conditions...)
	}
	if r.Actions != nil {
		c.Actions = make([]watchlist.RuleAction, len(r.Actions))
		for i, a := range r.Actions {
			ca := a
			if a.Config != nil {
				ca.Config = make(map[string]string, len(a.Config))
				for k, v := range a.Config {
					ca.Config[k] = v
				}
			}
			c.Actions[i] = ca
		}
	}
	c.LastTriggeredAt = cloneTime(r.LastTriggeredAt)
	return &c
}
