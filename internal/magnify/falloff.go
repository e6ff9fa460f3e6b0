package magnify

import (
	"math"
	"time"
)

// Unit is the coordinate unit shared by slot positions, the pointer position
// and the influence radius.
type Unit string

const (
	// UnitSlots places slot i at position i; the radius counts neighbors.
	UnitSlots Unit = "slots"
	// UnitPixels places each slot at its center offset in pixels.
	UnitPixels Unit = "pixels"
)

// ValidUnits returns all valid unit values.
func ValidUnits() []Unit {
	return []Unit{UnitSlots, UnitPixels}
}

// Config is the magnification configuration for one session.
// It is treated as an immutable snapshot; reloads replace it wholesale.
type Config struct {
	Enabled           bool
	MaxScale          float64       // Scale of the slot under the reference, > 1.0
	InfluenceRadius   float64       // Distance at which scale reaches 1.0
	AnimationDuration time.Duration // Time for displayed scales to settle
}

// DefaultConfig returns 150% magnification affecting two neighbors on each side.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		MaxScale:          1.5,
		InfluenceRadius:   2,
		AnimationDuration: 200 * time.Millisecond,
	}
}

// Active reports whether the config produces any magnification at all.
// Degenerate values (max scale <= 1, radius <= 0, NaN or Inf) disable the effect.
func (c Config) Active() bool {
	if !c.Enabled {
		return false
	}
	if !finite(c.MaxScale) || !finite(c.InfluenceRadius) {
		return false
	}
	return c.MaxScale > 1.0 && c.InfluenceRadius > 0
}

// Falloff returns the raised-cosine weight for a distance from the reference.
// It is 1 at distance 0, 0 at (and beyond) radius, and has zero slope at both ends.
func Falloff(distance, radius float64) float64 {
	if !finite(radius) || radius <= 0 || math.IsNaN(distance) {
		return 0
	}
	d := math.Abs(distance)
	if d >= radius {
		return 0
	}
	normalized := d / radius
	return (1 + math.Cos(math.Pi*normalized)) / 2
}

// Scale returns the magnification for a slot at the given distance from the reference.
// The result is always in [1.0, cfg.MaxScale]; inactive configs always give 1.0.
func Scale(distance float64, cfg Config) float64 {
	if !cfg.Active() {
		return 1.0
	}
	s := 1.0 + (cfg.MaxScale-1.0)*Falloff(distance, cfg.InfluenceRadius)
	return clamp(s, 1.0, cfg.MaxScale)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
