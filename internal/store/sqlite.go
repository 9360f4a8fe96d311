package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lithicearth/lithicearth-server/internal/archive"
)

type archiveImage struct {
	ID           string `gorm:"primaryKey;size:36"`
	Lat          float64
	Lon          float64
	Elevation    *float64
	ImageURL     string
	ThumbnailURL string
	Category     string `gorm:"size:32"`
	Title        string
	Description  string
	LocationName string    `gorm:"size:255"`
	UploaderName string    `gorm:"size:127"`
	UploadedAt   time.Time `gorm:"index:idx_archive_images_uploaded_at"`
	Tags         datatypes.JSON
}

func (archiveImage) TableName() string { return "archive_images" }

type stateSlot struct {
	SlotKey   string `gorm:"primaryKey;size:191"`
	Data      datatypes.JSON
	UpdatedAt time.Time
}

func (stateSlot) TableName() string { return "game_state_slots" }

// SQLiteStore implements Store on an embedded SQLite database. Archive
// changes are signalled in-process after each insert.
type SQLiteStore struct {
	db      *gorm.DB
	changes chan struct{}
	closed  bool
	mu      sync.Mutex
}

// NewSQLiteStore opens the database at path and migrates the schema. An
// empty path opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&archiveImage{}, &stateSlot{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	if path == "" {
		slog.Info("using in-memory SQLite store")
	} else {
		slog.Info("using SQLite store", "path", path)
	}

	return &SQLiteStore{
		db:      db,
		changes: make(chan struct{}, 1),
	}, nil
}

// ListRecords returns all archive records, most recent upload first.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]archive.Record, error) {
	var rows []archiveImage
	if err := s.db.WithContext(ctx).Order("uploaded_at desc, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]archive.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// InsertRecord inserts a new archive record and signals a change.
func (s *SQLiteStore) InsertRecord(ctx context.Context, rec archive.Record) error {
	row, err := fromRecord(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		select {
		case s.changes <- struct{}{}:
		default:
		}
	}
	return nil
}

// Changes returns the archive change signal channel.
func (s *SQLiteStore) Changes() <-chan struct{} {
	return s.changes
}

// Load reads a state slot. A missing slot returns nil data.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var slot stateSlot
	err := s.db.WithContext(ctx).Where(&stateSlot{SlotKey: key}).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(slot.Data), nil
}

// Save writes a state slot.
func (s *SQLiteStore) Save(ctx context.Context, key string, data []byte) error {
	slot := stateSlot{SlotKey: key, Data: datatypes.JSON(data), UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&slot).Error
}

// Close closes the change channel and the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.changes)
	s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromRecord(rec archive.Record) (archiveImage, error) {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return archiveImage{}, err
	}
	return archiveImage{
		ID:           rec.ID,
		Lat:          rec.Lat,
		Lon:          rec.Lon,
		Elevation:    rec.Elevation,
		ImageURL:     rec.ImageURL,
		ThumbnailURL: rec.ThumbnailURL,
		Category:     string(rec.Category),
		Title:        rec.Title,
		Description:  rec.Description,
		LocationName: rec.LocationName,
		UploaderName: rec.UploaderName,
		UploadedAt:   rec.UploadedAt.UTC(),
		Tags:         encoded,
	}, nil
}

func (row archiveImage) toRecord() (archive.Record, error) {
	var tags []string
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &tags); err != nil {
			return archive.Record{}, fmt.Errorf("decoding tags of %s: %w", row.ID, err)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}
	return archive.Record{
		ID:           row.ID,
		Lat:          row.Lat,
		Lon:          row.Lon,
		Elevation:    row.Elevation,
		ImageURL:     row.ImageURL,
		ThumbnailURL: row.ThumbnailURL,
		Category:     archive.Category(row.Category),
		Title:        row.Title,
		Description:  row.Description,
		LocationName: row.LocationName,
		UploaderName: row.UploaderName,
		UploadedAt:   row.UploadedAt.UTC(),
		Tags:         tags,
	}, nil
}
