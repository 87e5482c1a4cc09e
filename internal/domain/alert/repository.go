package alert

import (
	"context"

	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// ListFilter narrows alert queries.  Zero values mean "no constraint";
// results are always ordered newest first.
type ListFilter struct {
	WatchlistID common.ID
	UnreadOnly  bool
	Severity    mtypes.AlertSeverity
	Type        mtypes.AlertType
	Limit       int
	Offset      int
}

// Repository persists alerts.
type Repository interface {
	Save(ctx context.Context, a *Alert) error
	FindByID(ctx context.Context, id common.ID) (*Alert, error)
	List(ctx context.Context, f ListFilter) ([]*Alert, int64, error)
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id common.ID) error
	// DeleteByWatchlist removes all alerts of a deleted watchlist and
	// reports how many were removed.
	DeleteByWatchlist(ctx context.Context, watchlistID common.ID) (int, error)
	// MarkAllRead stamps every unread alert of the watchlist (all
	// watchlists when watchlistID is empty) and reports the count.
	MarkAllRead(ctx context.Context, watchlistID common.ID) (int, error)
	CountUnread(ctx context.Context, watchlistID common.ID) (int64, error)
}
