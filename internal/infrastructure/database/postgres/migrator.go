package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

const defaultMigrationPath = "migrations"

// Migrate applies all pending schema migrations from cfg.MigrationPath.
// A database already at the latest version is not an error.
func Migrate(cfg config.DatabaseConfig, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	path := cfg.MigrationPath
	if path == "" {
		path = defaultMigrationPath
	}

	// golang-migrate's pgx driver registers under the pgx5 URL scheme.
	dsn := "pgx5" + BuildDSN(cfg)[len("postgres"):]
	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: open migrator failed")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("migrator source close failed", logging.Err(srcErr))
		}
		if dbErr != nil {
			logger.Warn("migrator database close failed", logging.Err(dbErr))
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: apply migrations failed")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: read schema version failed")
	}
	logger.Info("schema migrations applied",
		logging.Int("version", int(version)),
		logging.Bool("dirty", dirty))
	return nil
}
