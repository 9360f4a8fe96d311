package store

import (
	"context"
	"fmt"

	"github.com/lithicearth/lithicearth-server/internal/archive"
	"github.com/lithicearth/lithicearth-server/internal/state"
)

// ChangesChannel is the notification channel raised on archive_images writes.
const ChangesChannel = "archive_images_changes"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store defines the persistent storage backend: archive records plus the
// per-profile game state slots.
type Store interface {
	archive.Repository
	state.Slot
	// Close releases database resources and closes the change channel.
	Close() error
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverPostgres:
		s, err = NewPostgresStore(ctx, databaseURL)
	case DriverSQLite:
		s, err = NewSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
