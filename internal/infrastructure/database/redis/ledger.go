package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// ledgerTTL bounds how long a per-watchlist ledger key may live without new
// deliveries.  It only has to outlast the longest rolling cap window (24h).
const ledgerTTL = 48 * time.Hour

// DeliveryLedger records notification deliveries in a per-watchlist sorted
// set scored by delivery time, so CountSince is a single ZCOUNT over the
// rolling window.
type DeliveryLedger struct {
	client *Client
}

// NewDeliveryLedger returns a ledger keyed under "<prefix>:ledger:".
func NewDeliveryLedger(client *Client) *DeliveryLedger {
	return &DeliveryLedger{client: client}
}

func (l *DeliveryLedger) ledgerKey(watchlistID common.ID) string {
	return l.client.key("ledger", string(watchlistID))
}

// Record appends a delivery at the given instant.  Deliveries landing on the
// same nanosecond collapse into one member; at poll cadence that cannot
// happen for real traffic.
func (l *DeliveryLedger) Record(ctx context.Context, watchlistID common.ID, at time.Time) error {
	key := l.ledgerKey(watchlistID)
	member := strconv.FormatInt(at.UnixNano(), 10)
	pipe := l.client.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: member})
	pipe.Expire(ctx, key, ledgerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: record delivery failed")
	}
	return nil
}

// CountSince reports deliveries at or after since, evicting entries that
// have aged out of any possible cap window.
func (l *DeliveryLedger) CountSince(ctx context.Context, watchlistID common.ID, since time.Time) (int, error) {
	key := l.ledgerKey(watchlistID)
	min := strconv.FormatInt(since.UnixNano(), 10)

	if err := l.client.rdb.ZRemRangeByScore(ctx, key, "-inf", "("+min).Err(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeCacheError, "redis: evict ledger entries failed")
	}
	n, err := l.client.rdb.ZCount(ctx, key, min, "+inf").Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeCacheError, "redis: count deliveries failed")
	}
	return int(n), nil
}
