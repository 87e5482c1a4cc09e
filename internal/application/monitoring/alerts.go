package monitoring

import (
	"context"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// ListAlerts returns alerts matching the filter, newest first, plus the
// total count before limit/offset.
func (e *Engine) ListAlerts(ctx context.Context, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	return e.alerts.List(ctx, f)
}

// GetAlert loads one alert.
func (e *Engine) GetAlert(ctx context.Context, id common.ID) (*alert.Alert, error) {
	return e.alerts.FindByID(ctx, id)
}

// MarkAlertRead stamps the alert's read time.  Idempotent: re-reading an
// already-read alert keeps the original timestamp.  Read state never feeds
// back into watchlist statistics.
func (e *Engine) MarkAlertRead(ctx context.Context, id common.ID) (*alert.Alert, error) {
	a, err := e.alerts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsRead() {
		return a, nil
	}
	a.MarkRead(e.clock.Now())
	if err := e.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// MarkAllAlertsRead stamps every unread alert, scoped to one watchlist when
// watchlistID is non-empty.  Returns how many alerts changed state.
func (e *Engine) MarkAllAlertsRead(ctx context.Context, watchlistID common.ID) (int, error) {
	return e.alerts.MarkAllRead(ctx, watchlistID)
}

// DeleteAlert removes one alert.
func (e *Engine) DeleteAlert(ctx context.Context, id common.ID) error {
	return e.alerts.Delete(ctx, id)
}

// UnreadAlertCount reports unread alerts, optionally scoped to a watchlist.
func (e *Engine) UnreadAlertCount(ctx context.Context, watchlistID common.ID) (int64, error) {
	return e.alerts.CountUnread(ctx, watchlistID)
}
