package store

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/logger"
)

// NewPostgres opens a postgres-backed store using the given DSN.
func NewPostgres(dsn string, log *logger.Logger) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, apperrors.NewDatabaseError("opening postgres database", err, nil)
	}

	return &dbStore{
		db:  db,
		log: log,
		dialect: dialect{
			name: "postgres",
			insert: `INSERT INTO active
				(environment_group, environment, endpoint_group, endpoint, timestamp, message, url)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT DO NOTHING`,
			exists: `SELECT COUNT(*) FROM active
				WHERE environment_group = $1 AND environment = $2 AND endpoint_group = $3 AND endpoint = $4`,
			get: `SELECT environment_group, environment, endpoint_group, endpoint, timestamp, message, url
				FROM active
				WHERE environment_group = $1 AND environment = $2 AND endpoint_group = $3 AND endpoint = $4`,
			getAll: `SELECT environment_group, environment, endpoint_group, endpoint, timestamp, message, url
				FROM active
				ORDER BY environment_group, environment, endpoint_group, endpoint`,
			remove: `DELETE FROM active
				WHERE environment_group = $1 AND environment = $2 AND endpoint_group = $3 AND endpoint = $4`,
		},
		migrate: migratePostgres,
	}, nil
}

func migratePostgres(db *sql.DB) error {
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %v", err)
	}
	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("could not create iofs driver: %v", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %v", err)
	}
	return nil
}
