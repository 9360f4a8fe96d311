package flavor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_English(t *testing.T) {
	c := New("en")

	assert.Equal(t, "en", c.Locale())
	lines := c.BootLines()
	assert.Len(t, lines, 6)
	assert.Equal(t, "Establishing uplink to LithicNet…", lines[0])
	assert.Equal(t, "Warming render pipeline…", lines[5])
	assert.Equal(t, []string{"Choose a Hero", "Travel to a Site", "Decode Hidden Truth (SHIFT+Click)"}, c.Objectives())
	assert.Equal(t, "Type lithic while exploring", c.Tip())
}

func TestNew_Spanish(t *testing.T) {
	c := New("es")

	assert.Equal(t, "es", c.Locale())
	assert.Equal(t, "Elige un héroe", c.Objectives()[0])
	assert.Equal(t, "La verdad oculta de Giza", c.RevealHeader("Giza"))
}

func TestNew_UnknownLocaleFallsBack(t *testing.T) {
	c := New("tlh")

	assert.Equal(t, DefaultLocale, c.Locale())
	assert.Equal(t, "Hidden truth of Stonehenge", c.RevealHeader("Stonehenge"))
}

func TestGet_UnknownKey(t *testing.T) {
	c := New("en")
	assert.Equal(t, "NOT_A_KEY", c.Get("NOT_A_KEY"))
}
