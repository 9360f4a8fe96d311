package archive

import "fmt"

const (
	// MarkerRevealHeight is the camera height in meters below which markers are shown.
	MarkerRevealHeight = 5_000_000
	// SidebarRevealHeight is the camera height in meters below which the sidebar is shown.
	SidebarRevealHeight = 10_000_000

	markerPreviews = 3
)

type Marker struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Category   Category `json:"category"`
	Color      string   `json:"color"`
	ImageCount int      `json:"image_count"`
	Glow       float64  `json:"glow"`
	Previews   []Record `json:"previews"`
	More       int      `json:"more"`
}

func markerKey(r Record) string {
	return fmt.Sprintf("%.3f,%.3f", r.Lat, r.Lon)
}

// GroupMarkers groups records into map markers on coordinates rounded to
// three decimals. Nothing is returned while the camera is at or above
// MarkerRevealHeight.
func GroupMarkers(records []Record, cameraHeight float64) []Marker {
	if cameraHeight >= MarkerRevealHeight {
		return nil
	}

	index := make(map[string]int)
	out := make([]Marker, 0)

	for _, r := range records {
		key := markerKey(r)
		i, ok := index[key]
		if !ok {
			name := r.LocationName
			if name == "" {
				name = UnknownLocation
			}
			index[key] = len(out)
			out = append(out, Marker{
				ID:       "site_" + key,
				Name:     name,
				Lat:      r.Lat,
				Lon:      r.Lon,
				Category: r.Category,
				Color:    r.Category.Color(),
			})
			i = len(out) - 1
		}

		m := &out[i]
		m.ImageCount++
		if len(m.Previews) < markerPreviews {
			m.Previews = append(m.Previews, r.Clone())
		} else {
			m.More++
		}
	}

	for i := range out {
		out[i].Glow = GlowIntensity(out[i].ImageCount)
	}
	return out
}

// SidebarVisible reports whether the site sidebar is shown at cameraHeight.
func SidebarVisible(cameraHeight float64) bool {
	return cameraHeight < SidebarRevealHeight
}
