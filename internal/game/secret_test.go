package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func press(d *SecretDetector, keys ...string) int {
	count := 0
	for _, k := range keys {
		if d.Press(k) {
			count++
		}
	}
	return count
}

func TestSecretDetector_DirectionalSequence(t *testing.T) {
	d := NewSecretDetector()
	assert.Equal(t, 1, press(d, DirectionalSequence...))
	assert.True(t, d.Unlocked())
}

func TestSecretDetector_WordSequence(t *testing.T) {
	d := NewSecretDetector()
	assert.Equal(t, 1, press(d, "L", "I", "T", "H", "I", "C"))
	assert.True(t, d.Unlocked())
}

func TestSecretDetector_AfterNoise(t *testing.T) {
	d := NewSecretDetector()
	assert.Equal(t, 1, press(d, "x", "l", "q", "l", "i", "t", "h", "i", "c"))
}

func TestSecretDetector_NearMissNeverTriggers(t *testing.T) {
	for i := range DirectionalSequence {
		seq := append([]string(nil), DirectionalSequence...)
		seq[i] = "b"
		d := NewSecretDetector()
		assert.Zero(t, press(d, seq...), "near miss at %d", i)
		assert.False(t, d.Unlocked())
	}

	for i := range WordSequence {
		seq := append([]string(nil), WordSequence...)
		seq[i] = "z"
		d := NewSecretDetector()
		assert.Zero(t, press(d, seq...), "near miss at %d", i)
	}
}

func TestSecretDetector_TriggersOnceUntilReset(t *testing.T) {
	d := NewSecretDetector()
	assert.Equal(t, 1, press(d, WordSequence...))
	assert.Zero(t, press(d, WordSequence...))
	assert.Zero(t, press(d, DirectionalSequence...))

	d.Reset()
	assert.False(t, d.Unlocked())
	assert.Equal(t, 1, press(d, DirectionalSequence...))
}

func TestSecretDetector_ResetClearsPartialInput(t *testing.T) {
	d := NewSecretDetector()
	press(d, "l", "i", "t")
	d.Reset()
	assert.Zero(t, press(d, "h", "i", "c"))
}

func TestSecretDetector_CustomSequence(t *testing.T) {
	d := NewSecretDetector([]string{"x", "y"})
	assert.Zero(t, press(d, WordSequence...))
	assert.Equal(t, 1, press(d, "x", "y"))
}
