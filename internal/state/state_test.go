package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lithicearth/lithicearth-server/internal/game"
)

func heroPtr(h game.HeroID) *game.HeroID { return &h }
func strPtr(s string) *string { return &s }

func TestDefault(t *testing.T) {
	s := Default()
	assert.Nil(t, s.SelectedHero)
	assert.Nil(t, s.CurrentSite)
	assert.Equal(t, GlobeRealistic, s.GlobeMode)
	assert.Equal(t, []string{"gobekli-tepe", "giza", "stonehenge"}, s.UnlockedSites)
	assert.NoError(t, s.Validate())
}

func TestGlobeModeToggled(t *testing.T) {
	assert.Equal(t, GlobeRealistic, GlobeStylized.Toggled())
	assert.Equal(t, GlobeStylized, GlobeRealistic.Toggled())
}

func TestClone_NoAliasing(t *testing.T) {
	s := GameState{
		SelectedHero:  heroPtr(game.HeroZeus),
		GlobeMode:     GlobeStylized,
		UnlockedSites: []string{"giza"},
		CurrentSite:   strPtr("giza"),
	}
	c := s.Clone()
	*c.SelectedHero = game.HeroHercules
	*c.CurrentSite = "other"
	c.UnlockedSites[0] = "other"

	assert.Equal(t, game.HeroZeus, *s.SelectedHero)
	assert.Equal(t, "giza", *s.CurrentSite)
	assert.Equal(t, "giza", s.UnlockedSites[0])
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	states := []GameState{
		Default(),
		{
			SelectedHero:  heroPtr(game.HeroQuetzalcoatl),
			GlobeMode:     GlobeStylized,
			UnlockedSites: []string{"giza", "yonaguni"},
			CurrentSite:   strPtr("yonaguni"),
		},
	}

	for _, s := range states {
		data, err := Encode(s)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"array", `[]`},
		{"missing field", `{"selectedHero":null,"globeMode":"realistic","unlockedSites":["giza"]}`},
		{"null unlocked", `{"selectedHero":null,"globeMode":"realistic","unlockedSites":null,"currentSite":null}`},
		{"bad mode", `{"selectedHero":null,"globeMode":"flat","unlockedSites":[],"currentSite":null}`},
		{"unknown hero", `{"selectedHero":"odin","globeMode":"realistic","unlockedSites":[],"currentSite":null}`},
		{"unknown site", `{"selectedHero":null,"globeMode":"realistic","unlockedSites":["atlantis"],"currentSite":null}`},
		{"current not unlocked", `{"selectedHero":null,"globeMode":"realistic","unlockedSites":["giza"],"currentSite":"stonehenge"}`},
		{"wrong type", `{"selectedHero":3,"globeMode":"realistic","unlockedSites":[],"currentSite":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
