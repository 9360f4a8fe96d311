package handler

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lithicearth/lithicearth-server/internal/archive"
)

const (
	defaultRecentLimit = 15
	defaultSitesLimit  = 20
	defaultRadiusKm    = 500
	maxListLimit       = 500
)

// ArchiveService is the archive surface the HTTP API serves.
type ArchiveService interface {
	Upload(ctx context.Context, req archive.UploadRequest, image io.Reader, filename string) (archive.Record, error)
	Recent(n int) []archive.Record
	Sites(n int) []archive.SiteAggregate
	Nearby(lat, lon, radiusKm float64) []archive.NearbySite
	Markers(cameraHeight float64) []archive.Marker
	Stats() archive.Stats
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	MaxUploadBytes int64
	// ImageDir is served read-only under /files.
	ImageDir      string
	OriginAllowed func(origin string) bool
}

// ArchiveAPI serves the photo archive over HTTP.
type ArchiveAPI struct {
	svc ArchiveService
	cfg APIConfig
}

// NewArchiveAPI creates the archive HTTP handlers.
func NewArchiveAPI(svc ArchiveService, cfg APIConfig) *ArchiveAPI {
	if cfg.OriginAllowed == nil {
		cfg.OriginAllowed = func(string) bool { return true }
	}
	return &ArchiveAPI{svc: svc, cfg: cfg}
}

// Engine builds the gin engine with the archive routes mounted. Extra routes
// such as the websocket endpoint are added by the caller.
func (a *ArchiveAPI) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors(a.cfg.OriginAllowed))

	r.GET("/health", func(c *gin.Context) {
		success(c, gin.H{"status": "ok"})
	})

	if a.cfg.ImageDir != "" {
		r.Static("/files", a.cfg.ImageDir)
	}

	api := r.Group("/api/archive")
	{
		api.GET("/images", a.listImages)
		api.POST("/images", a.uploadImage)
		api.GET("/sites", a.listSites)
		api.GET("/sites/nearby", a.nearbySites)
		api.GET("/markers", a.markers)
		api.GET("/stats", a.stats)
	}
	return r
}

func (a *ArchiveAPI) listImages(c *gin.Context) {
	limit, ok := queryLimit(c, defaultRecentLimit)
	if !ok {
		return
	}
	success(c, a.svc.Recent(limit))
}

func (a *ArchiveAPI) listSites(c *gin.Context) {
	limit, ok := queryLimit(c, defaultSitesLimit)
	if !ok {
		return
	}
	success(c, a.svc.Sites(limit))
}

func (a *ArchiveAPI) nearbySites(c *gin.Context) {
	lat, ok := queryFloat(c, "lat", nil)
	if !ok {
		return
	}
	lon, ok := queryFloat(c, "lon", nil)
	if !ok {
		return
	}
	radius := float64(defaultRadiusKm)
	radiusKm, ok := queryFloat(c, "radius_km", &radius)
	if !ok {
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 || radiusKm <= 0 {
		badRequest(c, "coordinates or radius out of range")
		return
	}
	success(c, a.svc.Nearby(lat, lon, radiusKm))
}

func (a *ArchiveAPI) markers(c *gin.Context) {
	height := 0.0
	h, ok := queryFloat(c, "height", &height)
	if !ok {
		return
	}
	success(c, gin.H{
		"markers":         a.svc.Markers(h),
		"sidebar_visible": archive.SidebarVisible(h),
	})
}

func (a *ArchiveAPI) stats(c *gin.Context) {
	success(c, a.svc.Stats())
}

func (a *ArchiveAPI) uploadImage(c *gin.Context) {
	if a.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxUploadBytes)
	}

	var req archive.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			errorResponse(c, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		badRequest(c, "invalid upload form")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if tooLarge(err) {
			errorResponse(c, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		badRequest(c, archive.ErrImageRequired.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		internalError(c, "could not read image")
		return
	}
	defer f.Close()

	rec, err := a.svc.Upload(c.Request.Context(), req, f, fh.Filename)
	switch {
	case err == nil:
		created(c, rec)
	case errors.Is(err, archive.ErrInvalidRecord), errors.Is(err, archive.ErrImageRequired):
		badRequest(c, err.Error())
	default:
		_ = c.Error(err)
		internalError(c, "upload failed")
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// queryLimit parses the limit query parameter. It writes a 400 and returns
// false when the value is malformed.
func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		badRequest(c, "limit must be a positive integer")
		return 0, false
	}
	return min(n, maxListLimit), true
}

// queryFloat parses a float query parameter. A nil def makes it required.
func queryFloat(c *gin.Context, key string, def *float64) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		if def == nil {
			badRequest(c, key+" is required")
			return 0, false
		}
		return *def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		badRequest(c, key+" must be a number")
		return 0, false
	}
	return v, true
}
