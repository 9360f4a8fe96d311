package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func rec(location string, lat, lon float64, cat Category, at time.Time) Record {
	return Record{
		ID:           location + at.String(),
		Lat:          lat,
		Lon:          lon,
		Category:     cat,
		LocationName: location,
		UploaderName: "tester",
		UploadedAt:   at,
	}
}

func TestSiteKey(t *testing.T) {
	assert.Equal(t, "Giza", SiteKey(Record{LocationName: "Giza", Lat: 1, Lon: 2}))
	assert.Equal(t, "29.98,31.13", SiteKey(Record{Lat: 29.9792, Lon: 31.1342}))
	assert.Equal(t, "-1.83,51.18", SiteKey(Record{Lat: -1.8262, Lon: 51.1789}))
}

func TestAggregateSites_GizaScenario(t *testing.T) {
	t1, t2, t3 := t0, t0.Add(time.Hour), t0.Add(2*time.Hour)
	records := []Record{
		rec("Giza", 29.97, 31.13, CategoryArchaeological, t2),
		rec("Giza", 29.98, 31.14, CategoryCultural, t3),
		rec("Giza", 29.99, 31.15, CategoryUrban, t1),
	}

	aggs := AggregateSites(records)
	require.Len(t, aggs, 1)

	giza := aggs[0]
	assert.Equal(t, "Giza", giza.Name)
	assert.Equal(t, 3, giza.ImageCount)
	assert.Equal(t, t3, giza.LastUpload)
	// first record seen wins
	assert.Equal(t, CategoryArchaeological, giza.Category)
	assert.Equal(t, 29.97, giza.Lat)
	assert.Equal(t, 31.13, giza.Lon)
}

func TestAggregateSites_UnnamedGroupsByRoundedCoordinates(t *testing.T) {
	records := []Record{
		rec("", 10.001, 20.004, CategoryWildlife, t0),
		rec("", 10.004, 20.001, CategoryGeological, t0),
		rec("", 10.02, 20.0, CategoryGeological, t0),
	}

	aggs := AggregateSites(records)
	require.Len(t, aggs, 2)
	assert.Equal(t, "10.00,20.00", aggs[0].Key)
	assert.Equal(t, UnknownLocation, aggs[0].Name)
	assert.Equal(t, 2, aggs[0].ImageCount)
	assert.Equal(t, CategoryWildlife, aggs[0].Category)
	assert.Equal(t, "10.02,20.00", aggs[1].Key)
}

func TestAggregateSites_FirstSeenOrder(t *testing.T) {
	records := []Record{
		rec("Stonehenge", 51.17, -1.82, CategoryArchaeological, t0),
		rec("Giza", 29.97, 31.13, CategoryArchaeological, t0),
		rec("Stonehenge", 51.17, -1.82, CategoryArchaeological, t0),
		rec("Avebury", 51.42, -1.85, CategoryArchaeological, t0),
	}

	aggs := AggregateSites(records)
	keys := make([]string, len(aggs))
	for i, a := range aggs {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{"Stonehenge", "Giza", "Avebury"}, keys)
}

func TestAggregateSites_Idempotent(t *testing.T) {
	var records []Record
	for i := 0; i < 50; i++ {
		name := []string{"Giza", "", "Stonehenge", "Göbekli Tepe"}[i%4]
		records = append(records, rec(name, float64(i%7), float64(i%5), Categories[i%len(Categories)], t0.Add(time.Duration(i)*time.Minute)))
	}

	assert.Equal(t, AggregateSites(records), AggregateSites(records))
}

func TestAggregateSites_Empty(t *testing.T) {
	assert.Empty(t, AggregateSites(nil))
}

func TestTopSites(t *testing.T) {
	aggs := []SiteAggregate{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	assert.Len(t, TopSites(aggs, 2), 2)
	assert.Equal(t, "a", TopSites(aggs, 2)[0].Key)
	assert.Len(t, TopSites(aggs, 20), 3)
	assert.Len(t, TopSites(aggs, -1), 3)

	top := TopSites(aggs, 1)
	top[0].Key = "changed"
	assert.Equal(t, "a", aggs[0].Key)
}

func TestGlowIntensity(t *testing.T) {
	tests := []struct {
		count    int
		expected float64
	}{
		{0, 0},
		{1, 0.05},
		{10, 0.5},
		{20, 1},
		{100, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, GlowIntensity(tt.count), 1e-9, "count %d", tt.count)
	}
}
