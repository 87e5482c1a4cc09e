package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// AlertRepo is an in-memory alert.Repository.
type AlertRepo struct {
	mu    sync.RWMutex
	items map[common.ID]*alert.Alert
	clock common.Clock
}

// NewAlertRepo returns an empty repository.  clock stamps MarkAllRead; nil
// falls back to the system clock.
func NewAlertRepo(clock common.Clock) *AlertRepo {
	if clock == nil {
		clock = common.SystemClock()
	}
	return &AlertRepo{items: make(map[common.ID]*alert.Alert), clock: clock}
}

func (r *AlertRepo) Save(_ context.Context, a *alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[a.ID]; exists {
		return errors.Conflict(fmt.Sprintf("alert %s already exists", a.ID))
	}
	r.items[a.ID] = cloneAlert(a)
	return nil
}

func (r *AlertRepo) FindByID(_ context.Context, id common.ID) (*alert.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", id))
	}
	return cloneAlert(a), nil
}

func (r *AlertRepo) List(_ context.Context, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*alert.Alert
	for _, a := range r.items {
		if !matchesFilter(a, f) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]*alert.Alert, len(matched))
	for i, a := range matched {
		out[i] = cloneAlert(a)
	}
	return out, total, nil
}

func (r *AlertRepo) Update(_ context.Context, a *alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", a.ID))
	}
	r.items[a.ID] = cloneAlert(a)
	return nil
}

func (r *AlertRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", id))
	}
	delete(r.items, id)
	return nil
}

func (r *AlertRepo) DeleteByWatchlist(_ context.Context, watchlistID common.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, a := range r.items {
		if a.WatchlistID == watchlistID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

func (r *AlertRepo) MarkAllRead(_ context.Context, watchlistID common.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	changed := 0
	for _, a := range r.items {
		if watchlistID != "" && a.WatchlistID != watchlistID {
			continue
		}
		if a.IsRead() {
			continue
		}
		a.MarkRead(now)
		changed++
	}
	return changed, nil
}

func (r *AlertRepo) CountUnread(_ context.Context, watchlistID common.ID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, a := range r.items {
		if watchlistID != "" && a.WatchlistID != watchlistID {
			continue
		}
		if !a.IsRead() {
			count++
		}
	}
	return count, nil
}

func matchesFilter(a *alert.Alert, f alert.ListFilter) bool {
	if f.WatchlistID != "" && a.WatchlistID != f.WatchlistID {
		return false
	}
	if f.UnreadOnly && a.IsRead() {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}

func cloneAlert(a *alert.Alert) *alert.Alert {
	c := *a
	c.ReadAt = cloneTime(a.ReadAt)
	c.Metadata.FilingDate = cloneTime(a.Metadata.FilingDate)
	c.Metadata.PublicationDate = cloneTime(a.Metadata.PublicationDate)
	c.Metadata.Inventors = cloneStrings(a.Metadata.Inventors)
	if a.Metadata.Extra != nil {
		c.Metadata.Extra = make(map[string]string, len(a.Metadata.Extra))
		for k, v := range a.Metadata.Extra {
			c.Metadata.Extra[k] = v
		}
	}
	return &c
}
