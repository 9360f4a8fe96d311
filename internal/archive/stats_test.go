package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	records := []Record{
		{UploaderName: "ana", UploadedAt: now.Add(-time.Hour)},
		{UploaderName: "ben", UploadedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{UploaderName: "ana", UploadedAt: now.Add(-10 * time.Hour)},
		{UploaderName: "", UploadedAt: now.Add(-48 * time.Hour)},
	}

	stats := ComputeStats(records, now)
	assert.Equal(t, 4, stats.TotalImages)
	assert.Equal(t, 2, stats.TodayUploads)
	assert.Equal(t, 2, stats.ActiveContributors)
}

func TestComputeStats_UsesLocalMidnight(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 5, 2, 1, 0, 0, 0, zone)
	records := []Record{
		// 2024-05-01 16:00 UTC is 02:00 on May 2nd in UTC+10
		{UploadedAt: time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)},
		// 2024-05-01 13:00 UTC is 23:00 on May 1st in UTC+10
		{UploadedAt: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)},
	}

	assert.Equal(t, 1, ComputeStats(records, now).TodayUploads)
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil, time.Now()))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		age      time.Duration
		expected string
	}{
		{"just now", 0, "0m"},
		{"minutes", 5 * time.Minute, "5m"},
		{"under an hour", 59*time.Minute + 59*time.Second, "59m"},
		{"one hour", time.Hour, "1h"},
		{"under a day", 23*time.Hour + 59*time.Minute, "23h"},
		{"one day", 24 * time.Hour, "1d"},
		{"many days", 10*24*time.Hour + 5*time.Hour, "10d"},
		{"future", -time.Hour, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TimeAgo(now.Add(-tt.age), now))
		})
	}
}
