package archive

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRecord = errors.New("invalid archive record")
	ErrImageRequired = errors.New("image is required")
)

type Category string

const (
	CategoryArchaeological Category = "archaeological"
	CategoryEnvironmental  Category = "environmental"
	CategoryGeological     Category = "geological"
	CategoryCultural       Category = "cultural"
	CategoryWildlife       Category = "wildlife"
	CategoryUrban          Category = "urban"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryArchaeological,
	CategoryEnvironmental,
	CategoryGeological,
	CategoryCultural,
	CategoryWildlife,
	CategoryUrban,
}

var categoryColors = map[Category]string{
	CategoryArchaeological: "#D4AF37",
	CategoryEnvironmental:  "#4A5F4D",
	CategoryGeological:     "#8B6F47",
	CategoryCultural:       "#6B7F99",
	CategoryWildlife:       "#5A7355",
	CategoryUrban:          "#73767A",
}

func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color returns the marker color for the category.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryArchaeological]
}

// Record is one uploaded archive photo. Records are immutable once stored.
type Record struct {
	ID           string    `json:"id"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Elevation    *float64  `json:"elevation,omitempty"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Category     Category  `json:"category"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LocationName string    `json:"location_name"`
	UploaderName string    `json:"uploader_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Tags         []string  `json:"tags,omitempty"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.Elevation != nil {
		e := *r.Elevation
		r.Elevation = &e
	}
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r
}

// UploadRequest carries the user-supplied fields of a new record.
type UploadRequest struct {
	Lat          float64  `json:"lat" form:"lat"`
	Lon          float64  `json:"lon" form:"lon"`
	Elevation    *float64 `json:"elevation,omitempty" form:"elevation"`
	Category     Category `json:"category" form:"category"`
	Title        string   `json:"title" form:"title"`
	Description  string   `json:"description" form:"description"`
	LocationName string   `json:"location_name" form:"location_name"`
	UploaderName string   `json:"uploader_name" form:"uploader_name"`
	Tags         []string `json:"tags,omitempty" form:"tags"`
}

// Validate checks the request fields.
func (r UploadRequest) Validate() error {
	if !finite(r.Lat) || !finite(r.Lon) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidRecord)
	}
	if r.Elevation != nil && !finite(*r.Elevation) {
		return fmt.Errorf("%w: elevation must be finite", ErrInvalidRecord)
	}
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidRecord, r.Lat)
	}
	if r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidRecord, r.Lon)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, r.Category)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewRecord builds a record from a validated request and the stored image URL.
func NewRecord(req UploadRequest, imageURL string, now time.Time) Record {
	uploader := strings.TrimSpace(req.UploaderName)
	if uploader == "" {
		uploader = "Anonymous"
	}

	var tags []string
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return Record{
		ID:           uuid.New().String(),
		Lat:          req.Lat,
		Lon:          req.Lon,
		Elevation:    req.Elevation,
		ImageURL:     imageURL,
		Category:     req.Category,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		LocationName: strings.TrimSpace(req.LocationName),
		UploaderName: uploader,
		UploadedAt:   now.UTC(),
		Tags:         tags,
	}
}
