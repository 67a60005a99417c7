// Package persist saves the order-flow state to a local key-value store and
// loads it back on startup. Storage is best effort: anything unreadable loads
// as the empty state.
package persist

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is a minimal key-value store. Get returns ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// NewStore picks a backend by driver name. db is only used by the postgres
// driver and path only by the file driver.
func NewStore(driver, path string, db *sql.DB) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(path)
	case DriverPostgres:
		if db == nil {
			return nil, ErrNoDatabase
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
