// Package store persists active incident records so incident state
// survives daemon restarts.
package store

import (
	"context"

	"github.com/vigil-monitoring/vigil/pkg/model"
)

// Store is the active-incident persistence contract. GetActive returns
// (nil, nil) when no record exists for the identity.
type Store interface {
	// Initialise creates or migrates the schema. Safe to call on every
	// startup.
	Initialise(ctx context.Context) error

	ActiveExists(ctx context.Context, id model.Identity) (bool, error)
	GetActive(ctx context.Context, id model.Identity) (*model.ActiveRecord, error)
	GetAllActives(ctx context.Context) ([]model.ActiveRecord, error)

	// SaveActive inserts the record. A record already present for the
	// identity is left untouched, preserving the original onset time.
	SaveActive(ctx context.Context, rec model.ActiveRecord) error

	// RemoveActive deletes the record for the identity. Removing an
	// identity with no record is not an error.
	RemoveActive(ctx context.Context, id model.Identity) error

	Close() error
}
