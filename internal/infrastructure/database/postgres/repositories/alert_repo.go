package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

const alertColumns = `id, watchlist_id, watchlist_name, title, description,
	type, severity, patent_id, patent_number, applicant, technology,
	jurisdiction, read_at, metadata, created_at, updated_at, version`

// AlertRepository is the PostgreSQL implementation of alert.Repository.
type AlertRepository struct {
	pool   *pgxpool.Pool
	clock  common.Clock
	logger logging.Logger
}

// NewAlertRepository constructs a ready-to-use repository.  The clock stamps
// bulk mark-read operations.
func NewAlertRepository(pool *pgxpool.Pool, clock common.Clock, logger logging.Logger) *AlertRepository {
	if clock == nil {
		clock = common.SystemClock()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AlertRepository{pool: pool, clock: clock, logger: logger.Named("alert-repo")}
}

// Save inserts a new alert.
func (r *AlertRepository) Save(ctx context.Context, a *alert.Alert) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode alert metadata failed")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		a.ID, a.WatchlistID, a.WatchlistName, a.Title, a.Description,
		a.Type, a.Severity, a.PatentID, a.PatentNumber, a.Applicant, a.Technology,
		a.Jurisdiction, a.ReadAt, metadata, a.CreatedAt, a.UpdatedAt, a.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict(fmt.Sprintf("alert %s already exists", a.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: insert alert failed")
	}
	return nil
}

// FindByID loads one alert by id.
func (r *AlertRepository) FindByID(ctx context.Context, id common.ID) (*alert.Alert, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: load alert failed")
	}
	return a, nil
}

// List returns matching alerts newest first plus the total match count
// before limit/offset.
func (r *AlertRepository) List(ctx context.Context, f alert.ListFilter) ([]*alert.Alert, int64, error) {
	where, args := buildAlertFilter(f)

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM alerts`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: count alerts failed")
	}

	query := `SELECT ` + alertColumns + ` FROM alerts` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: list alerts failed")
	}
	defer rows.Close()

	var out []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: scan alert failed")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: iterate alerts failed")
	}
	return out, total, nil
}

// Update persists the full alert state.
func (r *AlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode alert metadata failed")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts
		SET title = $2, description = $3, type = $4, severity = $5,
		    read_at = $6, metadata = $7, updated_at = $8, version = $9
		WHERE id = $1`,
		a.ID, a.Title, a.Description, a.Type, a.Severity,
		a.ReadAt, metadata, a.UpdatedAt, a.Version,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: update alert failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", a.ID))
	}
	return nil
}

// Delete removes one alert.
func (r *AlertRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete alert failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeAlertNotFound, fmt.Sprintf("alert %s not found", id))
	}
	return nil
}

// DeleteByWatchlist removes every alert of the watchlist.
func (r *AlertRepository) DeleteByWatchlist(ctx context.Context, watchlistID common.ID) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE watchlist_id = $1`, watchlistID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete alerts failed")
	}
	return int(tag.RowsAffected()), nil
}

// MarkAllRead stamps every unread alert of the watchlist, or of all
// watchlists when watchlistID is empty.
func (r *AlertRepository) MarkAllRead(ctx context.Context, watchlistID common.ID) (int, error) {
	now := r.clock.Now()
	query := `UPDATE alerts SET read_at = $1, updated_at = $1, version = version + 1
		WHERE read_at IS NULL`
	args := []interface{}{now}
	if watchlistID != "" {
		query += ` AND watchlist_id = $2`
		args = append(args, watchlistID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: mark alerts read failed")
	}
	return int(tag.RowsAffected()), nil
}

// CountUnread reports unread alerts for the watchlist, or globally when
// watchlistID is empty.
func (r *AlertRepository) CountUnread(ctx context.Context, watchlistID common.ID) (int64, error) {
	query := `SELECT count(*) FROM alerts WHERE read_at IS NULL`
	var args []interface{}
	if watchlistID != "" {
		query += ` AND watchlist_id = $1`
		args = append(args, watchlistID)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: count unread failed")
	}
	return n, nil
}

func buildAlertFilter(f alert.ListFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.WatchlistID != "" {
		add("watchlist_id = $%d", f.WatchlistID)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.UnreadOnly {
		clauses = append(clauses, "read_at IS NULL")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var (
		a            alert.Alert
		metadataJSON []byte
	)
	err := row.Scan(&a.ID, &a.WatchlistID, &a.WatchlistName, &a.Title, &a.Description,
		&a.Type, &a.Severity, &a.PatentID, &a.PatentNumber, &a.Applicant, &a.Technology,
		&a.Jurisdiction, &a.ReadAt, &metadataJSON, &a.CreatedAt, &a.UpdatedAt, &a.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataJSON, &a.Metadata); err != nil {
		return nil, err
	}
	return &a, nil
}
