package redis

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// DedupIndex suppresses repeat alerts for a (watchlist, patent) pair within a
// rolling window.  Each pair is a SET NX key whose TTL is the window, so
// expiry needs no sweeper.
type DedupIndex struct {
	client *Client
	window time.Duration
}

// NewDedupIndex returns an index keyed under "<prefix>:dedup:".  A window of
// zero or less disables deduplication: Seen always reports false.
func NewDedupIndex(client *Client, window time.Duration) *DedupIndex {
	return &DedupIndex{client: client, window: window}
}

// Seen records the pair and reports whether it was already present within
// the window.
func (d *DedupIndex) Seen(ctx context.Context, watchlistID common.ID, patentID string, _ time.Time) (bool, error) {
	if d.window <= 0 {
		return false, nil
	}
	key := d.client.key("dedup", string(watchlistID), patentID)
	created, err := d.client.rdb.SetNX(ctx, key, "1", d.window).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "redis: dedup check failed")
	}
	return !created, nil
}
