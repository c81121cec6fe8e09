package trajectory

import (
	"fmt"

	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// ToStamped converts a Duration trajectory to a Stamped one. The first stamp
// is 0 and stamp i is the sum of durations[0..i-1]; the last duration is not
// consumed. Positions are copied, velocities dropped.
func ToStamped(d Duration) Stamped {
	stamps := make([]uint64, len(d.Durations))
	for i := 1; i < len(stamps); i++ {
		stamps[i] = stamps[i-1] + d.Durations[i-1]
	}
	return Stamped{
		TimeStamps: stamps,
		Positions:  cloneRows(d.Positions),
	}
}

// ToDuration converts a Stamped trajectory to a Duration one, estimating
// velocities by finite differences:
//
//	velocity[i] = (position[i+1] - position[i]) / (Δt[i] · 1e-6)
//
// The result has one point fewer than the input. A zero Δt yields infinite
// (or NaN) velocity components, as the division is carried out unguarded.
func ToDuration(s Stamped) (Duration, error) {
	n := s.Len()
	if n < 2 {
		return Duration{}, fmt.Errorf("%w: got %d", ErrTooShort, n)
	}
	if err := s.Validate(); err != nil {
		return Duration{}, err
	}

	out := Duration{
		Durations:  make([]uint64, n-1),
		Positions:  make([][]float32, n-1),
		Velocities: make([][]float32, n-1),
	}
	for i := 0; i < n-1; i++ {
		dt := s.TimeStamps[i+1] - s.TimeStamps[i]
		seconds := float64(dt) * units.SecondsPerMicro
		p, next := s.Positions[i], s.Positions[i+1]

		v := make([]float32, len(p))
		for k := range p {
			v[k] = float32(float64(next[k]-p[k]) / seconds)
		}

		out.Durations[i] = dt
		out.Positions[i] = append([]float32(nil), p...)
		out.Velocities[i] = v
	}
	return out, nil
}
