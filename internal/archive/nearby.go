package archive

import (
	"sort"

	"github.com/golang/geo/s2"
)

const EarthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

type NearbySite struct {
	SiteAggregate
	DistanceKm float64 `json:"distance_km"`
}

// NearbySites returns the aggregates within radiusKm of (lat, lon), nearest
// first. Equal distances keep aggregate order.
func NearbySites(aggs []SiteAggregate, lat, lon, radiusKm float64) []NearbySite {
	out := make([]NearbySite, 0)
	for _, a := range aggs {
		if d := DistanceKm(lat, lon, a.Lat, a.Lon); d <= radiusKm {
			out = append(out, NearbySite{SiteAggregate: a, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
