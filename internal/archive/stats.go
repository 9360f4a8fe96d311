package archive

import (
	"fmt"
	"time"

	"github.com/zyedidia/generic/mapset"
)

type Stats struct {
	TotalImages        int `json:"total_images"`
	TodayUploads       int `json:"today_uploads"`
	ActiveContributors int `json:"active_contributors"`
}

// ComputeStats counts all records, the records uploaded since local midnight
// of now, and the distinct uploader names.
func ComputeStats(records []Record, now time.Time) Stats {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	contributors := mapset.New[string]()
	stats := Stats{TotalImages: len(records)}
	for _, r := range records {
		if !r.UploadedAt.Before(midnight) {
			stats.TodayUploads++
		}
		if r.UploaderName != "" {
			contributors.Put(r.UploaderName)
		}
	}
	stats.ActiveContributors = contributors.Size()
	return stats
}

// TimeAgo formats the age of t relative to now as minutes, hours or days.
func TimeAgo(t, now time.Time) string {
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
