package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

const competitorColumns = `id, name, aliases, portfolio_size, tracking,
	priority, created_at, updated_at, version`

// CompetitorRepository is the PostgreSQL implementation of
// watchlist.CompetitorRepository.  Competitor names are unique
// case-insensitively at the schema level.
type CompetitorRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewCompetitorRepository constructs a ready-to-use repository.
func NewCompetitorRepository(pool *pgxpool.Pool, logger logging.Logger) *CompetitorRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CompetitorRepository{pool: pool, logger: logger.Named("competitor-repo")}
}

// Create inserts a new competitor profile.
func (r *CompetitorRepository) Create(ctx context.Context, c *watchlist.CompetitorProfile) error {
	tracking, err := json.Marshal(c.Tracking)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode tracking failed")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO competitors (`+competitorColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Name, c.Aliases, c.PortfolioSize, tracking,
		c.Priority, c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict(fmt.Sprintf("competitor %q already exists", c.Name))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: insert competitor failed")
	}
	return nil
}

// Get loads one profile by id.
func (r *CompetitorRepository) Get(ctx context.Context, id common.ID) (*watchlist.CompetitorProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+competitorColumns+` FROM competitors WHERE id = $1`, id)
	c, err := scanCompetitor(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: load competitor failed")
	}
	return c, nil
}

// Update persists the full profile state.
func (r *CompetitorRepository) Update(ctx context.Context, c *watchlist.CompetitorProfile) error {
	tracking, err := json.Marshal(c.Tracking)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode tracking failed")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE competitors
		SET name = $2, aliases = $3, portfolio_size = $4, tracking = $5,
		    priority = $6, updated_at = $7, version = $8
		WHERE id = $1`,
		c.ID, c.Name, c.Aliases, c.PortfolioSize, tracking,
		c.Priority, c.UpdatedAt, c.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict(fmt.Sprintf("competitor %q already exists", c.Name))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: update competitor failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", c.ID))
	}
	return nil
}

// Delete removes one profile.
func (r *CompetitorRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete competitor failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeCompetitorNotFound,
			fmt.Sprintf("competitor %s not found", id))
	}
	return nil
}

// List returns every profile ordered by name.
func (r *CompetitorRepository) List(ctx context.Context) ([]*watchlist.CompetitorProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+competitorColumns+` FROM competitors ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: list competitors failed")
	}
	defer rows.Close()

	var out []*watchlist.CompetitorProfile
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: scan competitor failed")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: iterate competitors failed")
	}
	return out, nil
}

func scanCompetitor(row pgx.Row) (*watchlist.CompetitorProfile, error) {
	var (
		c            watchlist.CompetitorProfile
		trackingJSON []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Aliases, &c.PortfolioSize, &trackingJSON,
		&c.Priority, &c.CreatedAt, &c.UpdatedAt, &c.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(trackingJSON, &c.Tracking); err != nil {
		return nil, err
	}
	return &c, nil
}
