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

const ruleColumns = `id, watchlist_id, name, active, conditions, actions,
	trigger_count, last_triggered_at, created_at, updated_at, version`

// RuleRepository is the PostgreSQL implementation of
// watchlist.RuleRepository.
type RuleRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRuleRepository constructs a ready-to-use repository.
func NewRuleRepository(pool *pgxpool.Pool, logger logging.Logger) *RuleRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RuleRepository{pool: pool, logger: logger.Named("rule-repo")}
}

// Create inserts a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *watchlist.AlertRule) error {
	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO alert_rules (`+ruleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rule.ID, rule.WatchlistID, rule.Name, rule.Active, conditions, actions,
		rule.TriggerCount, rule.LastTriggeredAt, rule.CreatedAt, rule.UpdatedAt, rule.Version,
	)
	if isUniqueViolation(err) {
		return errors.Conflict(fmt.Sprintf("rule %s already exists", rule.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: insert rule failed")
	}
	return nil
}

// Get loads one rule by id.
func (r *RuleRepository) Get(ctx context.Context, id common.ID) (*watchlist.AlertRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM alert_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: load rule failed")
	}
	return rule, nil
}

// Update persists the full rule state including trigger bookkeeping.
func (r *RuleRepository) Update(ctx context.Context, rule *watchlist.AlertRule) error {
	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE alert_rules
		SET name = $2, active = $3, conditions = $4, actions = $5,
		    trigger_count = $6, last_triggered_at = $7, updated_at = $8, version = $9
		WHERE id = $1`,
		rule.ID, rule.Name, rule.Active, conditions, actions,
		rule.TriggerCount, rule.LastTriggeredAt, rule.UpdatedAt, rule.Version,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: update rule failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", rule.ID))
	}
	return nil
}

// Delete removes one rule.
func (r *RuleRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete rule failed")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeRuleNotFound, fmt.Sprintf("rule %s not found", id))
	}
	return nil
}

// ListByWatchlist returns the watchlist's rules, oldest first.
func (r *RuleRepository) ListByWatchlist(ctx context.Context, watchlistID common.ID) ([]*watchlist.AlertRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM alert_rules
		WHERE watchlist_id = $1 ORDER BY created_at`, watchlistID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: list rules failed")
	}
	defer rows.Close()

	var out []*watchlist.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: scan rule failed")
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: iterate rules failed")
	}
	return out, nil
}

// DeleteByWatchlist removes every rule of the watchlist.
func (r *RuleRepository) DeleteByWatchlist(ctx context.Context, watchlistID common.ID) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alert_rules WHERE watchlist_id = $1`, watchlistID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: delete rules failed")
	}
	return int(tag.RowsAffected()), nil
}

func encodeRule(rule *watchlist.AlertRule) (conditions, actions []byte, err error) {
	if conditions, err = json.Marshal(rule.Conditions); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode conditions failed")
	}
	if actions, err = json.Marshal(rule.Actions); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode actions failed")
	}
	return conditions, actions, nil
}

func scanRule(row pgx.Row) (*watchlist.AlertRule, error) {
	var (
		rule           watchlist.AlertRule
		conditionsJSON []byte
		actionsJSON    []byte
	)
	err := row.Scan(&rule.ID, &rule.WatchlistID, &rule.Name, &rule.Active,
		&conditionsJSON, &actionsJSON, &rule.TriggerCount, &rule.LastTriggeredAt,
		&rule.CreatedAt, &rule.UpdatedAt, &rule.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(actionsJSON, &rule.Actions); err != nil {
		return nil, err
	}
	return &rule, nil
}
