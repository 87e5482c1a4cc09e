package memory

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// DeliveryLedger is an in-process rolling delivery counter for
// single-instance deployments and tests.  The redis ledger replaces it when
// caps must survive restarts.
type DeliveryLedger struct {
	mu      sync.Mutex
	entries map[common.ID][]time.Time
}

// NewDeliveryLedger returns an empty ledger.
func NewDeliveryLedger() *DeliveryLedger {
	return &DeliveryLedger{entries: make(map[common.ID][]time.Time)}
}

// Record notes one delivery for the watchlist at the given time.
func (l *DeliveryLedger) Record(_ context.Context, watchlistID common.ID, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[watchlistID] = append(l.entries[watchlistID], at)
	return nil
}

// CountSince counts deliveries at or after since, evicting older entries.
func (l *DeliveryLedger) CountSince(_ context.Context, watchlistID common.ID, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[watchlistID][:0]
	for _, at := range l.entries[watchlistID] {
		if !at.Before(since) {
			kept = append(kept, at)
		}
	}
	l.entries[watchlistID] = kept
	return len(kept), nil
}

// DedupIndex is an in-process (watchlist, patent) suppression index.
type DedupIndex struct {
	window time.Duration
	mu     sync.Mutex
	seen   map[string]time.Time
}

// NewDedupIndex returns an index with the given suppression window.
func NewDedupIndex(window time.Duration) *DedupIndex {
	return &DedupIndex{window: window, seen: make(map[string]time.Time)}
}

// Seen records the pair at now and reports whether it was already present
// within the window.
func (d *DedupIndex) Seen(_ context.Context, watchlistID common.ID, patentID string, now time.Time) (bool, error) {
	key := string(watchlistID) + "\x00" + patentID
	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true, nil
	}
	d.seen[key] = now

	// Opportunistic eviction keeps the map from growing without bound.
	for k, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, k)
		}
	}
	return false, nil
}
