package store

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/logger"
)

// NewSQLite opens (or creates) a sqlite-backed store at path.
func NewSQLite(path string, log *logger.Logger) (Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, apperrors.NewDatabaseError("opening sqlite database", err, nil)
	}
	// sqlite handles one writer at a time.
	db.SetMaxOpenConns(1)

	return &dbStore{
		db:  db,
		log: log,
		dialect: dialect{
			name: "sqlite",
			insert: `INSERT OR IGNORE INTO active
				(environment_group, environment, endpoint_group, endpoint, timestamp, message, url)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			exists: `SELECT COUNT(*) FROM active
				WHERE environment_group = ? AND environment = ? AND endpoint_group = ? AND endpoint = ?`,
			get: `SELECT environment_group, environment, endpoint_group, endpoint, timestamp, message, url
				FROM active
				WHERE environment_group = ? AND environment = ? AND endpoint_group = ? AND endpoint = ?`,
			getAll: `SELECT environment_group, environment, endpoint_group, endpoint, timestamp, message, url
				FROM active
				ORDER BY environment_group, environment, endpoint_group, endpoint`,
			remove: `DELETE FROM active
				WHERE environment_group = ? AND environment = ? AND endpoint_group = ? AND endpoint = ?`,
		},
		migrate: migrateSQLite,
	}, nil
}

func migrateSQLite(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite driver: %v", err)
	}
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("could not create iofs driver: %v", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %v", err)
	}
	return nil
}
