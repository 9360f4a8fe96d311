package game

import "time"

// Frame timing
const (
	FrameRate     = 60 // reference frames per second
	FrameInterval = time.Second / FrameRate
	MaxCatchUp    = 6 // sub-steps replayed for one late tick
)

// Movement, in world units per reference frame
const (
	BaseSpeed     = 3.2
	RunMultiplier = 1.8
	Decay         = 0.82
	Gain          = 0.18
)

// Collision
const (
	EnterRadius = 44.0 // world units
)

// Secret sequences
const (
	PulseDuration = 360 * time.Millisecond
)

// Boot sequence
const (
	BootStepInterval = 70 * time.Millisecond
	BootReadyDelay   = 250 * time.Millisecond
)
