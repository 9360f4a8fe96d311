package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records   []Record
	listErr   error
	insertErr error
	changes   chan struct{}
	mu        sync.Mutex
}

func newFakeRepo(records ...Record) *fakeRepo {
	return &fakeRepo{records: records, changes: make(chan struct{}, 8)}
}

func (f *fakeRepo) ListRecords(context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Record(nil), f.records...), nil
}

func (f *fakeRepo) InsertRecord(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append([]Record{rec}, f.records...)
	return nil
}

func (f *fakeRepo) Changes() <-chan struct{} {
	return f.changes
}

type fakeImages struct {
	stored map[string][]byte
	err    error
}

func (f *fakeImages) Put(_ context.Context, name string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.stored[name] = data
	return "https://cdn.test/" + name, nil
}

func newTestService(t *testing.T, repo *fakeRepo) (*Service, *fakeImages) {
	t.Helper()
	images := &fakeImages{stored: make(map[string][]byte)}
	s, err := NewService(repo, images)
	require.NoError(t, err)
	s.now = func() time.Time { return t0 }
	return s, images
}

func validRequest() UploadRequest {
	return UploadRequest{
		Lat:          29.9792,
		Lon:          31.1342,
		Category:     CategoryArchaeological,
		Title:        "Sunrise over Khufu",
		LocationName: "Giza",
		UploaderName: "ana",
		Tags:         []string{"pyramid", " ", "dawn "},
	}
}

func TestService_Refresh(t *testing.T) {
	repo := newFakeRepo(
		rec("Giza", 29.97, 31.13, CategoryArchaeological, t0),
		rec("Giza", 29.97, 31.13, CategoryArchaeological, t0.Add(-24*time.Hour)),
		rec("Stonehenge", 51.17, -1.82, CategoryArchaeological, t0),
	)
	s, _ := newTestService(t, repo)

	var notified []Snapshot
	s.OnRefresh = func(snap Snapshot) { notified = append(notified, snap) }

	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Records, 3)
	require.Len(t, snap.Sites, 2)
	assert.Equal(t, 2, snap.Sites[0].ImageCount)
	assert.Equal(t, t0, snap.RefreshedAt)
	require.Len(t, notified, 1)
	assert.Equal(t, snap, notified[0])

	stats := s.Stats()
	assert.Equal(t, 3, stats.TotalImages)
	assert.Equal(t, 2, stats.TodayUploads)
}

func TestService_RefreshIsTotal(t *testing.T) {
	repo := newFakeRepo(rec("Giza", 1, 1, CategoryUrban, t0))
	s, _ := newTestService(t, repo)
	require.NoError(t, s.Refresh(context.Background()))

	repo.mu.Lock()
	repo.records = []Record{rec("Avebury", 2, 2, CategoryUrban, t0)}
	repo.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))

	sites := s.Sites(20)
	require.Len(t, sites, 1)
	assert.Equal(t, "Avebury", sites[0].Key)
}

func TestService_RefreshErrorKeepsSnapshot(t *testing.T) {
	repo := newFakeRepo(rec("Giza", 1, 1, CategoryUrban, t0))
	s, _ := newTestService(t, repo)
	require.NoError(t, s.Refresh(context.Background()))

	repo.mu.Lock()
	repo.listErr = errors.New("backend down")
	repo.mu.Unlock()

	assert.Error(t, s.Refresh(context.Background()))
	assert.Len(t, s.Snapshot().Records, 1)
}

func TestService_SnapshotIsACopy(t *testing.T) {
	elevation := 100.0
	r := rec("Giza", 1, 1, CategoryUrban, t0)
	r.Elevation = &elevation
	r.Tags = []string{"a"}
	s, _ := newTestService(t, newFakeRepo(r))
	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	*snap.Records[0].Elevation = 5
	snap.Records[0].Tags[0] = "changed"
	snap.Sites[0].Name = "changed"

	again := s.Snapshot()
	assert.Equal(t, 100.0, *again.Records[0].Elevation)
	assert.Equal(t, "a", again.Records[0].Tags[0])
	assert.Equal(t, "Giza", again.Sites[0].Name)
}

func TestService_Upload(t *testing.T) {
	repo := newFakeRepo()
	s, images := newTestService(t, repo)

	got, err := s.Upload(context.Background(), validRequest(), strings.NewReader("jpegbytes"), "photo.JPG")
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.True(t, strings.HasPrefix(got.ImageURL, "https://cdn.test/archive-images/"))
	assert.True(t, strings.HasSuffix(got.ImageURL, ".jpg"))
	assert.Equal(t, "ana", got.UploaderName)
	assert.Equal(t, []string{"pyramid", "dawn"}, got.Tags)
	assert.Equal(t, t0, got.UploadedAt)
	assert.Len(t, images.stored, 1)

	records, _ := repo.ListRecords(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, got.ID, records[0].ID)
}

func TestService_UploadDefaultsUploader(t *testing.T) {
	s, _ := newTestService(t, newFakeRepo())
	req := validRequest()
	req.UploaderName = "  "

	got, err := s.Upload(context.Background(), req, bytes.NewReader([]byte{1}), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", got.UploaderName)
}

func TestService_UploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*UploadRequest)
		filename string
		image    io.Reader
		err      error
	}{
		{"bad latitude", func(r *UploadRequest) { r.Lat = 91 }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"bad longitude", func(r *UploadRequest) { r.Lon = -181 }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"NaN latitude", func(r *UploadRequest) { r.Lat = math.NaN() }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"infinite longitude", func(r *UploadRequest) { r.Lon = math.Inf(1) }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"NaN elevation", func(r *UploadRequest) { e := math.NaN(); r.Elevation = &e }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"bad category", func(r *UploadRequest) { r.Category = "food" }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"missing title", func(r *UploadRequest) { r.Title = " " }, "a.jpg", strings.NewReader("x"), ErrInvalidRecord},
		{"bad extension", func(*UploadRequest) {}, "a.exe", strings.NewReader("x"), ErrInvalidRecord},
		{"no image", func(*UploadRequest) {}, "a.jpg", nil, ErrImageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			s, images := newTestService(t, repo)
			req := validRequest()
			tt.mutate(&req)

			_, err := s.Upload(context.Background(), req, tt.image, tt.filename)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, images.stored)
			assert.Empty(t, repo.records)
		})
	}
}

func TestService_UploadInsertFailureLeavesImage(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = errors.New("constraint violation")
	s, images := newTestService(t, repo)

	_, err := s.Upload(context.Background(), validRequest(), strings.NewReader("x"), "a.webp")
	require.Error(t, err)
	assert.Len(t, images.stored, 1, "orphaned image is not rolled back")
	assert.Empty(t, repo.records)
}

func TestService_UploadImageFailureSkipsInsert(t *testing.T) {
	repo := newFakeRepo()
	s, images := newTestService(t, repo)
	images.err = errors.New("bucket unavailable")

	_, err := s.Upload(context.Background(), validRequest(), strings.NewReader("x"), "a.gif")
	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestService_WatchRefreshesOnChange(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(t, repo)

	refreshed := make(chan Snapshot, 4)
	s.OnRefresh = func(snap Snapshot) { refreshed <- snap }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	require.NoError(t, repo.InsertRecord(ctx, rec("Giza", 1, 1, CategoryUrban, t0)))
	repo.changes <- struct{}{}

	select {
	case snap := <-refreshed:
		assert.Len(t, snap.Records, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refresh")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestService_WatchStopsWhenChangesClose(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(t, repo)
	close(repo.changes)

	assert.NoError(t, s.Watch(context.Background()))
}

func TestService_Queries(t *testing.T) {
	repo := newFakeRepo(
		rec("Stonehenge", 51.1789, -1.8262, CategoryArchaeological, t0),
		rec("Avebury", 51.4286, -1.8544, CategoryCultural, t0.Add(-time.Minute)),
		rec("Giza", 29.9792, 31.1342, CategoryArchaeological, t0.Add(-time.Hour)),
	)
	s, _ := newTestService(t, repo)
	require.NoError(t, s.Refresh(context.Background()))

	assert.Len(t, s.Recent(2), 2)
	assert.Len(t, s.Recent(100), 3)
	assert.Len(t, s.Sites(1), 1)
	assert.Len(t, s.Nearby(51.4, -1.85, 50), 2)
	assert.Len(t, s.Markers(1000), 3)
	assert.Nil(t, s.Markers(MarkerRevealHeight))
}
