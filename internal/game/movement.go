package game

import (
	"math"
	"strings"
	"time"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Magnitude returns the length of the velocity vector.
func (v Velocity) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// HeldKeys maps a lower-cased key name to its held state.
type HeldKeys map[string]bool

var (
	keysLeft  = []string{"arrowleft", "a"}
	keysRight = []string{"arrowright", "d"}
	keysUp    = []string{"arrowup", "w"}
	keysDown  = []string{"arrowdown", "s"}
)

// NormalizeKey lower-cases a browser key name.
func NormalizeKey(key string) string {
	return strings.ToLower(key)
}

func (h HeldKeys) any(keys []string) bool {
	for _, k := range keys {
		if h[k] {
			return true
		}
	}
	return false
}

// Direction returns the acceleration axes in {-1, 0, 1}. Opposing keys cancel.
// Y grows downwards, matching screen space.
func (h HeldKeys) Direction() (ax, ay float64) {
	if h.any(keysRight) {
		ax++
	}
	if h.any(keysLeft) {
		ax--
	}
	if h.any(keysDown) {
		ay++
	}
	if h.any(keysUp) {
		ay--
	}
	return ax, ay
}

// Running reports whether the run modifier is held.
func (h HeldKeys) Running() bool {
	return h["shift"]
}

// Speed returns the target speed for the held modifier state.
func (h HeldKeys) Speed() float64 {
	if h.Running() {
		return BaseSpeed * RunMultiplier
	}
	return BaseSpeed
}

// MovementController owns the player's position and smoothed velocity.
type MovementController struct {
	pos Position
	vel Velocity
}

// NewMovementController creates a controller at rest at start.
func NewMovementController(start Position) *MovementController {
	return &MovementController{pos: start}
}

// Tick advances the controller by dt, replayed as fixed reference frames so the
// smoothing constants mean the same thing at any tick rate.
func (m *MovementController) Tick(dt time.Duration, held HeldKeys) Position {
	steps := int(math.Round(float64(dt) / float64(FrameInterval)))
	if steps < 1 {
		steps = 1
	} else if steps > MaxCatchUp {
		steps = MaxCatchUp
	}

	ax, ay := held.Direction()
	if n := math.Hypot(ax, ay); n > 1 {
		ax /= n
		ay /= n
	}
	speed := held.Speed()

	for i := 0; i < steps; i++ {
		m.step(ax, ay, speed)
	}
	return m.pos
}

// step applies one frame of the exponential smoothing filter. With
// Decay+Gain == 1 and |a| <= 1 the velocity stays within speed.
func (m *MovementController) step(ax, ay, speed float64) {
	m.vel.X = m.vel.X*Decay + ax*speed*Gain
	m.vel.Y = m.vel.Y*Decay + ay*speed*Gain
	m.pos.X += m.vel.X
	m.pos.Y += m.vel.Y
}

func (m *MovementController) Position() Position {
	return m.pos
}

func (m *MovementController) Velocity() Velocity {
	return m.vel
}

// Reset places the controller at pos with zero velocity.
func (m *MovementController) Reset(pos Position) {
	m.pos = pos
	m.vel = Velocity{}
}
