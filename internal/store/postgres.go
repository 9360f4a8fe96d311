package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lithicearth/lithicearth-server/internal/archive"
)

const schema = `
CREATE TABLE IF NOT EXISTS archive_images (
    id TEXT PRIMARY KEY,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    elevation DOUBLE PRECISION,
    image_url TEXT NOT NULL,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location_name TEXT NOT NULL DEFAULT '',
    uploader_name TEXT NOT NULL DEFAULT '',
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    tags TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_archive_images_uploaded_at ON archive_images(uploaded_at DESC);

CREATE TABLE IF NOT EXISTS game_state_slots (
    slot_key TEXT PRIMARY KEY,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE OR REPLACE FUNCTION notify_archive_images_changes() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('archive_images_changes', TG_OP);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS archive_images_changes ON archive_images;
CREATE TRIGGER archive_images_changes
    AFTER INSERT OR UPDATE OR DELETE ON archive_images
    FOR EACH STATEMENT EXECUTE FUNCTION notify_archive_images_changes();
`

const listenRetryDelay = 2 * time.Second

// PostgresStore implements Store using PostgreSQL. Archive changes are
// delivered through LISTEN/NOTIFY.
type PostgresStore struct {
	pool    *pgxpool.Pool
	changes chan struct{}

	stopListen context.CancelFunc
	listenDone chan struct{}
	closeOnce  sync.Once
}

// NewPostgresStore connects to PostgreSQL, initializes the schema and starts
// listening for archive changes.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &PostgresStore{
		pool:       pool,
		changes:    make(chan struct{}, 1),
		stopListen: cancel,
		listenDone: make(chan struct{}),
	}
	go s.listen(listenCtx)

	return s, nil
}

// ListRecords returns all archive records, most recent upload first.
func (s *PostgresStore) ListRecords(ctx context.Context) ([]archive.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lat, lon, elevation, image_url, thumbnail_url, category, title,
		        description, location_name, uploader_name, uploaded_at, tags
		 FROM archive_images ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]archive.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// InsertRecord inserts a new archive record.
func (s *PostgresStore) InsertRecord(ctx context.Context, rec archive.Record) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO archive_images (id, lat, lon, elevation, image_url, thumbnail_url, category,
		    title, description, location_name, uploader_name, uploaded_at, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.Lat, rec.Lon, rec.Elevation, rec.ImageURL, rec.ThumbnailURL, string(rec.Category),
		rec.Title, rec.Description, rec.LocationName, rec.UploaderName, rec.UploadedAt, tags)
	return err
}

// Changes returns the archive change signal channel.
func (s *PostgresStore) Changes() <-chan struct{} {
	return s.changes
}

// Load reads a state slot. A missing slot returns nil data.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data::text FROM game_state_slots WHERE slot_key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return data, err
}

// Save writes a state slot.
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_state_slots (slot_key, data, updated_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (slot_key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key, string(data), time.Now())
	return err
}

// Close stops the listener and releases database resources.
func (s *PostgresStore) Close() error {
	s.closeOnce.Do(func() {
		s.stopListen()
		<-s.listenDone
		s.pool.Close()
	})
	return nil
}

// listen holds a dedicated connection subscribed to the change channel,
// reconnecting until ctx is cancelled.
func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.listenDone)
	defer close(s.changes)

	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("archive listener disconnected", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(listenRetryDelay):
		}
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		unlistenCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if _, err := conn.Exec(unlistenCtx, "UNLISTEN *"); err != nil {
			conn.Conn().Close(unlistenCtx)
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		return err
	}
	slog.Info("listening for archive changes", "channel", ChangesChannel)

	// Notifications may have been missed while disconnected.
	s.signal()

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}
		s.signal()
	}
}

// signal raises a change without blocking; pending signals coalesce.
func (s *PostgresStore) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func scanRecord(row pgx.Row) (*archive.Record, error) {
	var rec archive.Record
	var category string
	err := row.Scan(&rec.ID, &rec.Lat, &rec.Lon, &rec.Elevation, &rec.ImageURL, &rec.ThumbnailURL,
		&category, &rec.Title, &rec.Description, &rec.LocationName, &rec.UploaderName,
		&rec.UploadedAt, &rec.Tags)
	if err != nil {
		return nil, err
	}
	rec.Category = archive.Category(category)
	if len(rec.Tags) == 0 {
		rec.Tags = nil
	}
	return &rec, nil
}
