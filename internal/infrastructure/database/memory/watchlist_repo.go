// Package memory provides in-process repository implementations.  They are
// the default backing store for development and tests, and the reference for
// the concurrency contract: every mutation is atomic with respect to
// concurrent readers, and reads return snapshots the caller may mutate
// freely before saving back.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// WatchlistRepo is an in-memory watchlist.Repository.
type WatchlistRepo struct {
	mu    sync.RWMutex
	items map[common.ID]*watchlist.Watchlist
}

// NewWatchlistRepo returns an empty repository.
func NewWatchlistRepo() *WatchlistRepo {
	return &WatchlistRepo{items: make(map[common.ID]*watchlist.Watchlist)}
}

func (r *WatchlistRepo) Create(_ context.Context, w *watchlist.Watchlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[w.ID]; exists {
		return errors.Conflict(fmt.Sprintf("watchlist %s already exists", w.ID))
	}
	r.items[w.ID] = cloneWatchlist(w)
	return nil
}

func (r *WatchlistRepo) Get(_ context.Context, id common.ID) (*watchlist.Watchlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", id))
	}
	return cloneWatchlist(w), nil
}

func (r *WatchlistRepo) Update(_ context.Context, w *watchlist.Watchlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[w.ID]; !ok {
		return errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", w.ID))
	}
	r.items[w.ID] = cloneWatchlist(w)
	return nil
}

func (r *WatchlistRepo) Delete(_ context.Context, id common.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", id))
	}
	delete(r.items, id)
	return nil
}

// RecordAlert mutates the stored aggregate under the store lock, so a
// concurrent Update never loses the statistics increment and the increment
// never resurrects state the update replaced.
func (r *WatchlistRepo) RecordAlert(_ context.Context, id common.ID, alertType mtypes.AlertType, patentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", id))
	}
	w.RecordAlert(alertType, patentID, at)
	return nil
}

func (r *WatchlistRepo) ListByOwner(_ context.Context, ownerID common.UserID) ([]*watchlist.Watchlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*watchlist.Watchlist
	for _, w := range r.items {
		if w.OwnerID == ownerID {
			out = append(out, cloneWatchlist(w))
		}
	}
	sortWatchlists(out)
	return out, nil
}

func (r *WatchlistRepo) List(_ context.Context) ([]*watchlist.Watchlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*watchlist.Watchlist, 0, len(r.items))
	for _, w := range r.items {
		out = append(out, cloneWatchlist(w))
	}
	sortWatchlists(out)
	return out, nil
}

func (r *WatchlistRepo) ListActive(_ context.Context) ([]*watchlist.Watchlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*watchlist.Watchlist
	for _, w := range r.items {
		if w.Active {
			out = append(out, cloneWatchlist(w))
		}
	}
	sortWatchlists(out)
	return out, nil
}

func sortWatchlists(ws []*watchlist.Watchlist) {
	sort.Slice(ws, func(i, j int) bool {
		if !ws[i].CreatedAt.Equal(ws[j].CreatedAt) {
			return ws[i].CreatedAt.After(ws[j].CreatedAt)
		}
		return ws[i].ID < ws[j].ID
	})
}

// cloneWatchlist deep-copies the aggregate so stored state and returned
// snapshots never share mutable structures.
func cloneWatchlist(w *watchlist.Watchlist) *watchlist.Watchlist {
	c := *w
	c.Filters = cloneCriteria(w.Filters)
	c.Settings = cloneSettings(w.Settings)
	c.Stats = cloneStats(w.Stats)
	return &c
}

func cloneCriteria(f watchlist.FilterCriteria) watchlist.FilterCriteria {
	c := f
	c.Keywords = cloneStrings(f.Keywords)
	c.ExcludeKeywords = cloneStrings(f.ExcludeKeywords)
	c.Competitors = cloneStrings(f.Competitors)
	c.Assignees = cloneStrings(f.Assignees)
	c.Inventors = cloneStrings(f.Inventors)
	c.Classifications = cloneStrings(f.Classifications)
	c.Jurisdictions = cloneStrings(f.Jurisdictions)
	c.Technologies = cloneStrings(f.Technologies)
	c.Statuses = cloneStrings(f.Statuses)
	c.DateFrom = cloneTime(f.DateFrom)
	c.DateTo = cloneTime(f.DateTo)
	return c
}

func cloneSettings(s watchlist.AlertSettings) watchlist.AlertSettings {
	c := s
	if s.AlertTypes != nil {
		c.AlertTypes = append([]mtypes.AlertType(nil), s.AlertTypes...)
	}
	if s.QuietHours != nil {
		qh := *s.QuietHours
		c.QuietHours = &qh
	}
	return c
}

func cloneStats(s watchlist.Stats) watchlist.Stats {
	c := s
	if s.ByType != nil {
		c.ByType = make(map[mtypes.AlertType]int64, len(s.ByType))
		for k, v := range s.ByType {
			c.ByType[k] = v
		}
	}
	if s.RecentAlertTimes != nil {
		c.RecentAlertTimes = append([]time.Time(nil), s.RecentAlertTimes...)
	}
	if s.SeenPatents != nil {
		c.SeenPatents = make(map[string]struct{}, len(s.SeenPatents))
		for k := range s.SeenPatents {
			c.SeenPatents[k] = struct{}{}
		}
	}
	c.LastAlertAt = cloneTime(s.LastAlertAt)
	c.FirstAlertAt = cloneTime(s.FirstAlertAt)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
