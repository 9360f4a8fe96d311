package archive

import (
	"fmt"
	"time"
)

const (
	UnknownLocation = "Unknown Location"
	glowSaturation  = 20
)

// SiteAggregate summarizes the records sharing a location key.
type SiteAggregate struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ImageCount int       `json:"image_count"`
	Category   Category  `json:"category"`
	LastUpload time.Time `json:"last_upload"`
}

// SiteKey returns the grouping key of a record: its location name, or its
// coordinates rounded to two decimals when the name is empty.
func SiteKey(r Record) string {
	if r.LocationName != "" {
		return r.LocationName
	}
	return fmt.Sprintf("%.2f,%.2f", r.Lat, r.Lon)
}

// AggregateSites groups records by SiteKey. The first record of each group,
// in input order, supplies its name, coordinates and category. Output order
// is the order in which keys are first seen.
func AggregateSites(records []Record) []SiteAggregate {
	index := make(map[string]int)
	out := make([]SiteAggregate, 0)

	for _, r := range records {
		key := SiteKey(r)
		i, ok := index[key]
		if !ok {
			name := r.LocationName
			if name == "" {
				name = UnknownLocation
			}
			index[key] = len(out)
			out = append(out, SiteAggregate{
				Key:        key,
				Name:       name,
				Lat:        r.Lat,
				Lon:        r.Lon,
				Category:   r.Category,
				LastUpload: r.UploadedAt,
			})
			i = len(out) - 1
		}

		agg := &out[i]
		agg.ImageCount++
		if r.UploadedAt.After(agg.LastUpload) {
			agg.LastUpload = r.UploadedAt
		}
	}
	return out
}

// TopSites returns the first n aggregates in insertion order.
func TopSites(aggs []SiteAggregate, n int) []SiteAggregate {
	if n < 0 || n > len(aggs) {
		n = len(aggs)
	}
	return append([]SiteAggregate(nil), aggs[:n]...)
}

// GlowIntensity maps an image count to a marker glow in [0, 1].
func GlowIntensity(count int) float64 {
	return min(float64(count)/glowSaturation, 1)
}
