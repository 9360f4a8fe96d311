package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ImagePrefix is the directory uploaded images are stored under.
const ImagePrefix = "archive-images"

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

// Repository is the archive backend holding records.
type Repository interface {
	// ListRecords returns all records, most recent upload first.
	ListRecords(ctx context.Context) ([]Record, error)
	// InsertRecord stores a new record.
	InsertRecord(ctx context.Context, rec Record) error
	// Changes delivers a signal whenever the record set may have changed.
	Changes() <-chan struct{}
}

// ImageStore persists uploaded image bytes and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

// Snapshot is one fully recomputed view of the archive.
type Snapshot struct {
	Records     []Record        `json:"records"`
	Sites       []SiteAggregate `json:"sites"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Records:     make([]Record, len(s.Records)),
		Sites:       append([]SiteAggregate{}, s.Sites...),
		RefreshedAt: s.RefreshedAt,
	}
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// Service loads archive records and keeps the derived views current.
type Service struct {
	repo   Repository
	images ImageStore
	now    func() time.Time

	snapshot Snapshot
	mu       sync.RWMutex

	// OnRefresh is called with a copy of every new snapshot.
	OnRefresh func(Snapshot)

	refreshes metric.Int64Counter
	uploads   metric.Int64Counter
	failures  metric.Int64Counter
}

// NewService creates a service over repo and images.
func NewService(repo Repository, images ImageStore) (*Service, error) {
	s := &Service{
		repo:   repo,
		images: images,
		now:    time.Now,
	}

	m := meter()
	var err error

	s.refreshes, err = m.Int64Counter(
		"archive.refreshes",
		metric.WithDescription("Total archive snapshot rebuilds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating refresh counter: %w", err)
	}

	s.uploads, err = m.Int64Counter(
		"archive.uploads",
		metric.WithDescription("Total archive records uploaded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating upload counter: %w", err)
	}

	s.failures, err = m.Int64Counter(
		"archive.upload.failures",
		metric.WithDescription("Total archive uploads that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	recordCount, err := m.Int64ObservableGauge(
		"archive.records",
		metric.WithDescription("Records in the current snapshot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating record gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			s.mu.RLock()
			defer s.mu.RUnlock()
			o.ObserveInt64(recordCount, int64(len(s.snapshot.Records)))
			return nil
		},
		recordCount,
	)
	if err != nil {
		return nil, fmt.Errorf("registering record callback: %w", err)
	}

	return s, nil
}

// Refresh reloads every record and rebuilds all derived views. Concurrent
// refreshes are allowed; the last one to finish wins.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	next := Snapshot{
		Records:     records,
		Sites:       AggregateSites(records),
		RefreshedAt: s.now(),
	}

	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	s.refreshes.Add(ctx, 1)
	slog.Debug("archive refreshed", "records", len(records), "sites", len(next.Sites))

	if s.OnRefresh != nil {
		s.OnRefresh(next.clone())
	}
	return nil
}

// Watch refreshes on every change signal until ctx is done or the change
// channel closes. Refresh failures are logged and do not stop the watch.
func (s *Service) Watch(ctx context.Context) error {
	changes := s.repo.Changes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := s.Refresh(ctx); err != nil {
				slog.Error("archive refresh failed", "error", err)
			}
		}
	}
}

// Upload stores the image, then inserts the record. If the insert fails the
// stored image is left in place.
func (s *Service) Upload(ctx context.Context, req UploadRequest, image io.Reader, filename string) (Record, error) {
	rec, err := s.upload(ctx, req, image, filename)
	if err != nil {
		s.failures.Add(ctx, 1)
		return Record{}, err
	}
	s.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("category", string(rec.Category))))
	return rec, nil
}

func (s *Service) upload(ctx context.Context, req UploadRequest, image io.Reader, filename string) (Record, error) {
	if err := req.Validate(); err != nil {
		return Record{}, err
	}
	if image == nil {
		return Record{}, ErrImageRequired
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if !imageExtensions[ext] {
		return Record{}, fmt.Errorf("%w: unsupported image type %q", ErrInvalidRecord, ext)
	}

	name := fmt.Sprintf("%s/%s.%s", ImagePrefix, uuid.New().String(), ext)
	url, err := s.images.Put(ctx, name, image)
	if err != nil {
		return Record{}, fmt.Errorf("storing image: %w", err)
	}

	rec := NewRecord(req, url, s.now())
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		slog.Warn("record insert failed, image left orphaned", "image", url, "error", err)
		return Record{}, fmt.Errorf("inserting record: %w", err)
	}

	slog.Info("archive record uploaded", "id", rec.ID, "category", rec.Category, "location", rec.LocationName)
	return rec, nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.clone()
}

// Recent returns the n most recent records.
func (s *Service) Recent(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 0 || n > len(s.snapshot.Records) {
		n = len(s.snapshot.Records)
	}
	out := make([]Record, n)
	for i := range out {
		out[i] = s.snapshot.Records[i].Clone()
	}
	return out
}

// Sites returns the first n site aggregates.
func (s *Service) Sites(n int) []SiteAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TopSites(s.snapshot.Sites, n)
}

// Nearby returns site aggregates within radiusKm of a point.
func (s *Service) Nearby(lat, lon, radiusKm float64) []NearbySite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NearbySites(s.snapshot.Sites, lat, lon, radiusKm)
}

// Markers returns the map markers visible at cameraHeight.
func (s *Service) Markers(cameraHeight float64) []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GroupMarkers(s.snapshot.Records, cameraHeight)
}

// Stats computes archive statistics as of now.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.snapshot.Records, s.now())
}
