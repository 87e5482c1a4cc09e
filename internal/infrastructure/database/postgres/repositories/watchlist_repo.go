package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

const watchlistColumns = `id, name, description, owner_id, active,
	filters, settings, stats, poll_interval, created_at, updated_at, version`

// WatchlistRepository is the PostgreSQL implementation of
// watchlist.Repository.  Nested criteria, settings, and statistics are
// stored as JSONB.
type WatchlistRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewWatchlistRepository constructs a ready-to-use repository.
func NewWatchlistRepository(pool *pgxpool.Pool, logger logging.Logger) *WatchlistRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &WatchlistRepository{pool: pool, logger: logger.Named("watchlist-repo")}
}

// Create inserts a new watchlist.
func (r *WatchlistRepository) Create(ctx context.Context, w *watchlist.Watchlist) error {
	filters, settings, stats, err := encodeWatchlist(w)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO watchlists (`+watchlistColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		w.ID, w.Name, w.Description, w.OwnerID, w.Active,
		filters, settings, stats, int64(w.PollInterval),
		w.CreatedAt, w.UpdatedAt, w.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict(fmt.Sprintf("watchlist %s already exists", w.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: insert watchlist failed")
	}
	return nil
}

// Get loads one watchlist by id.
func (r *WatchlistRepository) Get(ctx context.Context, id common.ID) (*watchlist.Watchlist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+watchlistColumns+` FROM watchlists WHERE id = $1`, id)
	w, err := scanWatchlist(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: load watchlist failed")
	}
	return w, nil
}

// Update persists the full aggregate state.
func (r *WatchlistRepository) Update(ctx context.Context, w *watchlist.Watchlist) error {
	filters, settings, stats, err := encodeWatchlist(w)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE watchlists
		SET name = $2, description = $3, owner_id = $4, active = $5,
		    filters = $6, settings = $7, stats = $8, poll_interval = $9,
		    updated_at = $10, version = $11
		WHERE id = $1`,
		w.ID, w.Name, w.Description, w.OwnerID, w.Active,
		filters, settings, stats, int64(w.PollInterval),
		w.UpdatedAt, w.Version,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: update watchlist failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", w.ID))
	}
	return nil
}

// Delete removes the watchlist; its rules cascade at the schema level.
func (r *WatchlistRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlists WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete watchlist failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeWatchlistNotFound,
			fmt.Sprintf("watchlist %s not found", id))
	}
	return nil
}

// recordAlertAttempts bounds the optimistic-lock retry loop.
const recordAlertAttempts = 5

// RecordAlert applies one alert to the stored statistics.  The write is
// guarded by the aggregate's version, so a full Update landing between the
// read and the write loses nothing: the increment retries against the
// fresh row instead of overwriting it.
func (r *WatchlistRepository) RecordAlert(ctx context.Context, id common.ID, alertType mtypes.AlertType, patentID string, at time.Time) error {
	for attempt := 0; attempt < recordAlertAttempts; attempt++ {
		w, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		expected := w.Version
		w.RecordAlert(alertType, patentID, at)

		stats, err := encodeStats(w.Stats)
		if err != nil {
			return err
		}
		tag, err := r.pool.Exec(ctx, `
			UPDATE watchlists
			SET stats = $2, updated_at = $3, version = $4
			WHERE id = $1 AND version = $5`,
			id, stats, w.UpdatedAt, w.Version, expected,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: record alert failed")
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		// Lost the version race; reload and retry.
	}
	return errors.Conflict(fmt.Sprintf("watchlist %s statistics contended, giving up after %d attempts", id, recordAlertAttempts))
}

// ListByOwner returns the owner's watchlists, newest first.
func (r *WatchlistRepository) ListByOwner(ctx context.Context, ownerID common.UserID) ([]*watchlist.Watchlist, error) {
	return r.list(ctx, `
		SELECT `+watchlistColumns+` FROM watchlists
		WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// List returns every watchlist, newest first.
func (r *WatchlistRepository) List(ctx context.Context) ([]*watchlist.Watchlist, error) {
	return r.list(ctx, `
		SELECT `+watchlistColumns+` FROM watchlists ORDER BY created_at DESC`)
}

// ListActive returns watchlists with monitoring enabled, newest first.
func (r *WatchlistRepository) ListActive(ctx context.Context) ([]*watchlist.Watchlist, error) {
	return r.list(ctx, `
		SELECT `+watchlistColumns+` FROM watchlists
		WHERE active ORDER BY created_at DESC`)
}

func (r *WatchlistRepository) list(ctx context.Context, query string, args ...interface{}) ([]*watchlist.Watchlist, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: list watchlists failed")
	}
	defer rows.Close()

	var out []*watchlist.Watchlist
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: scan watchlist failed")
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: iterate watchlists failed")
	}
	return out, nil
}

func encodeWatchlist(w *watchlist.Watchlist) (filters, settings, stats []byte, err error) {
	if filters, err = json.Marshal(w.Filters); err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode filters failed")
	}
	if settings, err = json.Marshal(w.Settings); err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode settings failed")
	}
	if stats, err = encodeStats(w.Stats); err != nil {
		return nil, nil, nil, err
	}
	return filters, settings, stats, nil
}

func scanWatchlist(row pgx.Row) (*watchlist.Watchlist, error) {
	var (
		w            watchlist.Watchlist
		filtersJSON  []byte
		settingsJSON []byte
		statsJSON    []byte
		pollInterval int64
	)
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.OwnerID, &w.Active,
		&filtersJSON, &settingsJSON, &statsJSON, &pollInterval,
		&w.CreatedAt, &w.UpdatedAt, &w.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(filtersJSON, &w.Filters); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settingsJSON, &w.Settings); err != nil {
		return nil, err
	}
	if w.Stats, err = decodeStats(statsJSON); err != nil {
		return nil, err
	}
	w.PollInterval = time.Duration(pollInterval)
	return &w, nil
}
