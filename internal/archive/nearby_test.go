package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Giza to Stonehenge is roughly 3,590 km.
	d := DistanceKm(29.9792, 31.1342, 51.1789, -1.8262)
	assert.InDelta(t, 3590, d, 30)
	assert.InDelta(t, 0, DistanceKm(10, 10, 10, 10), 1e-9)
}

func TestNearbySites(t *testing.T) {
	aggs := []SiteAggregate{
		{Key: "Stonehenge", Lat: 51.1789, Lon: -1.8262},
		{Key: "Avebury", Lat: 51.4286, Lon: -1.8544},
		{Key: "Giza", Lat: 29.9792, Lon: 31.1342},
	}

	near := NearbySites(aggs, 51.4, -1.85, 50)
	require.Len(t, near, 2)
	assert.Equal(t, "Avebury", near[0].Key)
	assert.Equal(t, "Stonehenge", near[1].Key)
	assert.Less(t, near[0].DistanceKm, near[1].DistanceKm)

	assert.Empty(t, NearbySites(aggs, 0, 0, 10))
}
