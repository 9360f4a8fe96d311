package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextBootProgress(t *testing.T) {
	tests := []struct {
		in, out int
	}{
		{0, 3},
		{69, 72},
		{70, 72},
		{91, 93},
		{92, 93},
		{99, 100},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.out, NextBootProgress(tt.in), "from %d", tt.in)
	}
}

func TestBootSequence_RunsToCompletion(t *testing.T) {
	b := NewBootSequence(6)
	steps := 0
	last := 0
	for !b.Done() {
		p := b.Step()
		assert.Greater(t, p, last)
		last = p
		steps++
		assert.Less(t, steps, 100)
	}
	assert.Equal(t, BootComplete, b.Progress())
	assert.Equal(t, 5, b.LineIndex())
}

func TestBootSequence_LineIndex(t *testing.T) {
	b := NewBootSequence(6)
	assert.Equal(t, 0, b.LineIndex())

	for b.Progress() < 32 {
		b.Step()
	}
	assert.Equal(t, b.Progress()/16, b.LineIndex())

	short := NewBootSequence(2)
	for !short.Done() {
		short.Step()
	}
	assert.Equal(t, 1, short.LineIndex())
}
