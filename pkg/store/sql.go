package store

import (
	"context"
	"database/sql"
	"embed"

	apperrors "github.com/vigil-monitoring/vigil/pkg/errors"
	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// dialect carries the SQL text that differs between sqlite and postgres.
type dialect struct {
	name   string
	insert string
	exists string
	get    string
	getAll string
	remove string
}

// dbStore implements Store over database/sql with a dialect-specific query
// set and migration runner.
type dbStore struct {
	db      *sql.DB
	log     *logger.Logger
	dialect dialect
	migrate func(db *sql.DB) error
}

func (s *dbStore) Initialise(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseError("pinging database", err, nil)
	}
	if err := s.migrate(s.db); err != nil {
		return apperrors.NewDatabaseError("running migrations", err, nil)
	}
	s.log.Info("active incident store initialised", "dialect", s.dialect.name)
	return nil
}

func (s *dbStore) ActiveExists(ctx context.Context, id model.Identity) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.dialect.exists,
		id.EnvironmentGroup, id.Environment, id.EndpointGroup, id.Endpoint).Scan(&count)
	if err != nil {
		return false, apperrors.NewDatabaseError("checking active incident", err, nil)
	}
	return count > 0, nil
}

func (s *dbStore) GetActive(ctx context.Context, id model.Identity) (*model.ActiveRecord, error) {
	var rec model.ActiveRecord
	err := s.db.QueryRowContext(ctx, s.dialect.get,
		id.EnvironmentGroup, id.Environment, id.EndpointGroup, id.Endpoint).Scan(
		&rec.EnvironmentGroup, &rec.Environment, &rec.EndpointGroup, &rec.Endpoint,
		&rec.Timestamp, &rec.Message, &rec.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("loading active incident", err, nil)
	}
	return &rec, nil
}

func (s *dbStore) GetAllActives(ctx context.Context) ([]model.ActiveRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.getAll)
	if err != nil {
		return nil, apperrors.NewDatabaseError("listing active incidents", err, nil)
	}
	defer rows.Close()

	var records []model.ActiveRecord
	for rows.Next() {
		var rec model.ActiveRecord
		if err := rows.Scan(
			&rec.EnvironmentGroup, &rec.Environment, &rec.EndpointGroup, &rec.Endpoint,
			&rec.Timestamp, &rec.Message, &rec.URL); err != nil {
			return nil, apperrors.NewDatabaseError("scanning active incident", err, nil)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterating active incidents", err, nil)
	}
	return records, nil
}

func (s *dbStore) SaveActive(ctx context.Context, rec model.ActiveRecord) error {
	_, err := s.db.ExecContext(ctx, s.dialect.insert,
		rec.EnvironmentGroup, rec.Environment, rec.EndpointGroup, rec.Endpoint,
		rec.Timestamp, rec.Message, rec.URL)
	if err != nil {
		return apperrors.NewDatabaseError("saving active incident", err, nil)
	}
	return nil
}

func (s *dbStore) RemoveActive(ctx context.Context, id model.Identity) error {
	_, err := s.db.ExecContext(ctx, s.dialect.remove,
		id.EnvironmentGroup, id.Environment, id.EndpointGroup, id.Endpoint)
	if err != nil {
		return apperrors.NewDatabaseError("removing active incident", err, nil)
	}
	return nil
}

func (s *dbStore) Close() error {
	return s.db.Close()
}
