package watchlist

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// Repository is the persistence contract for watchlists.  Implementations
// must make every mutation atomic with respect to concurrent readers, and
// reads must return consistent snapshots (callers may mutate returned
// aggregates freely before saving them back).
type Repository interface {
	Create(ctx context.Context, w *Watchlist) error
	Get(ctx context.Context, id common.ID) (*Watchlist, error)
	Update(ctx context.Context, w *Watchlist) error
	Delete(ctx context.Context, id common.ID) error
	ListByOwner(ctx context.Context, ownerID common.UserID) ([]*Watchlist, error)
	List(ctx context.Context) ([]*Watchlist, error)
	ListActive(ctx context.Context) ([]*Watchlist, error)
	// RecordAlert applies one alert to the stored statistics against the
	// aggregate's current state, atomically with respect to concurrent
	// full-aggregate updates.
	RecordAlert(ctx context.Context, id common.ID, alertType mtypes.AlertType, patentID string, at time.Time) error
}

// RuleRepository is the persistence contract for alert rules.
type RuleRepository interface {
	Create(ctx context.Context, r *AlertRule) error
	Get(ctx context.Context, id common.ID) (*AlertRule, error)
	Update(ctx context.Context, r *AlertRule) error
	Delete(ctx context.Context, id common.ID) error
	ListByWatchlist(ctx context.Context, watchlistID common.ID) ([]*AlertRule, error)
	// DeleteByWatchlist removes every rule of the watchlist; used by the
	// cascade on watchlist deletion.
	DeleteByWatchlist(ctx context.Context, watchlistID common.ID) (int, error)
}

// CompetitorRepository is the persistence contract for competitor profiles.
type CompetitorRepository interface {
	Create(ctx context.Context, c *CompetitorProfile) error
	Get(ctx context.Context, id common.ID) (*CompetitorProfile, error)
	Update(ctx context.Context, c *CompetitorProfile) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context) ([]*CompetitorProfile, error)
}
