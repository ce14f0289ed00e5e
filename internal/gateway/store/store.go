package store

import (
	"context"
	"errors"

	"github.com/docbrief/docbrief/internal/gateway/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this.
type Store interface {
	Usage() Usage

	ApplyMigrations() error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Usage interface {
	// Insert stores a usage record.
	Insert(ctx context.Context, rec domain.UsageRecord) error

	// ListByUsername returns the newest records for one user, newest first.
	ListByUsername(ctx context.Context, username string, limit int) ([]domain.UsageRecord, error)

	// ListAll returns the newest records across all users, newest first.
	ListAll(ctx context.Context, limit int) ([]domain.UsageRecord, error)
}
