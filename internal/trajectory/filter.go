package trajectory

import (
	"gonum.org/v1/gonum/floats"

	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// LowPassFilter averages the last Size values it was given. A size of 1 or
// less passes values through.
type LowPassFilter struct {
	size   int
	values []float64
}

// NewLowPassFilter returns a filter over a window of size values.
func NewLowPassFilter(size int) *LowPassFilter {
	return &LowPassFilter{size: size}
}

// Size returns the window size.
func (f *LowPassFilter) Size() int { return f.size }

// SetSize changes the window size, dropping the oldest values that no
// longer fit.
func (f *LowPassFilter) SetSize(size int) {
	f.size = size
	if size > 0 && len(f.values) > size {
		f.values = append([]float64(nil), f.values[len(f.values)-size:]...)
	}
}

// Apply adds v to the window and returns the window average. Until the
// window is full the average is over the values seen so far.
func (f *LowPassFilter) Apply(v float64) float64 {
	if f.size <= 1 {
		return v
	}
	if len(f.values) == f.size {
		f.values = f.values[1:]
	}
	f.values = append(f.values, v)
	return floats.Sum(f.values) / float64(len(f.values))
}

// VelocityEstimator estimates the velocity of one coordinate by finite
// differences, smoothed by a LowPassFilter.
type VelocityEstimator struct {
	filter      LowPassFilter
	previous    float64
	initialized bool
}

// NewVelocityEstimator returns an estimator averaging over window samples.
func NewVelocityEstimator(window int) *VelocityEstimator {
	return &VelocityEstimator{filter: LowPassFilter{size: window}}
}

// Update returns the filtered velocity after moving to position, dt seconds
// after the previous call. The first call, and any call with dt <= 0,
// contributes a zero raw velocity.
func (e *VelocityEstimator) Update(dt, position float64) float64 {
	if !e.initialized {
		e.previous = position
		e.initialized = true
	}
	raw := 0.0
	if dt > 0 {
		raw = (position - e.previous) / dt
	}
	e.previous = position
	return e.filter.Apply(raw)
}

// Ball tracks the state of the ball from time-stamped positions, estimating
// one filtered velocity per position component.
type Ball struct {
	window     int
	estimators []*VelocityEstimator
	previous   uint64
	state      State
}

// NewBall returns a tracker whose velocities average over window samples.
func NewBall(window int) *Ball {
	return &Ball{window: window}
}

// Update records position at stampUS microseconds and returns the new state.
// Stamps must not decrease.
func (b *Ball) Update(stampUS uint64, position []float32) State {
	if b.estimators == nil {
		b.estimators = make([]*VelocityEstimator, len(position))
		for k := range b.estimators {
			b.estimators[k] = NewVelocityEstimator(b.window)
		}
		b.previous = stampUS
	}
	dt := 0.0
	if stampUS > b.previous {
		dt = units.MicrosToSeconds(stampUS - b.previous)
	}
	b.previous = stampUS

	velocity := make([]float32, len(b.estimators))
	for k, e := range b.estimators {
		var p float64
		if k < len(position) {
			p = float64(position[k])
		}
		velocity[k] = float32(e.Update(dt, p))
	}
	b.state = State{Position: append([]float32(nil), position...), Velocity: velocity}
	return b.state
}

// State returns the state computed by the latest Update.
func (b *Ball) State() State { return b.state }
