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

// CompetitorRepo is an in-memory watchlist.CompetitorRepository.
type CompetitorRepo struct {
	mu    sync.RWMutex
	items map[common.ID]*watchlist.CompetitorProfile
}

// NewCompetitorRepo returns an empty repository.
func NewCompetitorRepo() *CompetitorRepo {
	return &CompetitorRepo{items: make(map[common.ID]*watchlist.CompetitorProfile)}
}

func (r *CompetitorRepo) Create(_ context.Context, c *watchlist.CompetitorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[c.ID]; exists {
		return errors.Conflict(fmt.Sprintf("competitor %s already exists", c.ID))
	}
	r.items[c.ID] = cloneCompetitor(c)
	return nil
}

func (r *CompetitorRepo) Get(_ context.Context, id common.ID) (*watchlist.CompetitorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", id))
	}
	return cloneCompetitor(c), nil
}

func (r *CompetitorRepo) Update(_ context.Context, c *watchlist.CompetitorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", c.ID))
	}
	r.items[c.ID] = cloneCompetitor(c)
	return nil
}

func (r *CompetitorRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", id))
	}
	delete(r.items, id)
	return nil
}

func (r *CompetitorRepo) List(_ context.Context) ([]*watchlist.CompetitorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*watchlist.CompetitorProfile, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, cloneCompetitor(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneCompetitor(c *watchlist.CompetitorProfile) *watchlist.CompetitorProfile {
	cp := *c
	cp.Aliases = cloneStrings(c.Aliases)
	return &cp
}
