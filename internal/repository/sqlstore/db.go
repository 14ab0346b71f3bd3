// Package sqlstore implements the persistence ports on PostgreSQL (pgx) or
// SQLite (modernc) through sqlx. Queries are written with ? placeholders and
// rebound for the active driver.
package sqlstore

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"lawnorm/db/migrations"
	"lawnorm/internal/config"
	"lawnorm/internal/domain"
)

const (
	driverPgx    = "pgx"
	driverSQLite = "sqlite"
)

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// NewDB opens a connection pool for the configured driver.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlx.Connect(driverSQLite, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		// one writer; busy_timeout covers readers
		db.SetMaxOpenConns(1)
		return db, nil
	case config.DriverPostgres, "":
		db, err := sqlx.Connect(driverPgx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxIdle)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewMigrator returns a golang-migrate instance over the embedded migrations
// for the configured driver. The caller must Close it.
func NewMigrator(cfg *config.DBConfig) (*migrate.Migrate, error) {
	dir := "postgres"
	if cfg.Driver == config.DriverSQLite {
		dir = "sqlite"
	}
	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending up migrations.
func Migrate(cfg *config.DBConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func isPostgres(db *sqlx.DB) bool {
	return db.DriverName() == driverPgx
}

// jurisdictionConds turns a filter into case-insensitive column conditions
// over state_code and place_name.
func jurisdictionConds(filter domain.JurisdictionFilter) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.StateCode != "" {
		conds = append(conds, "UPPER(state_code) = UPPER(?)")
		args = append(args, filter.StateCode)
	}
	if filter.PlaceName != "" {
		conds = append(conds, "LOWER(place_name) = LOWER(?)")
		args = append(args, filter.PlaceName)
	}
	return conds, args
}
