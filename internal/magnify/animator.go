package magnify

import (
	"math"
	"time"
)

// settleEpsilon is the distance at which a displayed scale snaps to its target.
const settleEpsilon = 1e-3

// Animator eases displayed scales toward target scales.
// Each value approaches its target exponentially, reaching ~98% of the way
// after the configured duration. A duration of zero snaps immediately.
type Animator struct {
	duration time.Duration
	values   []float64
	targets  []float64
}

// NewAnimator creates an animator with the given settle duration.
func NewAnimator(duration time.Duration) *Animator {
	return &Animator{duration: duration}
}

// SetDuration changes the settle duration for subsequent steps.
func (a *Animator) SetDuration(d time.Duration) {
	a.duration = d
}

// Step advances the animation by dt toward targets.
// It returns true if any displayed value changed.
func (a *Animator) Step(targets []float64, dt time.Duration) bool {
	a.resize(len(targets))
	copy(a.targets, targets)

	alpha := 1.0
	if a.duration > 0 {
		// Four time constants per duration leaves under 2% of the gap.
		tau := float64(a.duration) / 4
		alpha = 1 - math.Exp(-float64(dt)/tau)
	}

	changed := false
	for i, target := range a.targets {
		v := a.values[i]
		if v == target {
			continue
		}
		next := v + (target-v)*alpha
		if math.Abs(target-next) < settleEpsilon {
			next = target
		}
		if next != v {
			a.values[i] = next
			changed = true
		}
	}
	return changed
}

// Values returns a copy of the displayed scales.
func (a *Animator) Values() []float64 {
	return append([]float64(nil), a.values...)
}

// Value returns the displayed scale of slot index, or 1.0 if out of range.
func (a *Animator) Value(index int) float64 {
	if index < 0 || index >= len(a.values) {
		return 1.0
	}
	return a.values[index]
}

// Settled reports whether every displayed value has reached its target.
func (a *Animator) Settled() bool {
	for i, v := range a.values {
		if v != a.targets[i] {
			return false
		}
	}
	return true
}

// Reset snaps every displayed value back to 1.0.
func (a *Animator) Reset() {
	for i := range a.values {
		a.values[i] = 1.0
		a.targets[i] = 1.0
	}
}

// resize keeps existing values and starts new slots at 1.0.
func (a *Animator) resize(n int) {
	if len(a.values) == n {
		return
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = 1.0
	}
	copy(values, a.values)
	a.values = values
	a.targets = make([]float64, n)
}
