package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// DefaultSamplingRate is the interval between generated points, in seconds.
const DefaultSamplingRate = 0.01

// VelocityLine returns the trajectory of a point moving from start to end in
// a straight line at constant speed (m/s), sampled every samplingRate seconds.
func VelocityLine(start, end r3.Vec, speed, samplingRate float64) (Duration, error) {
	if speed <= 0 {
		return Duration{}, fmt.Errorf("%w: speed must be positive, got %g", ErrInvalid, speed)
	}
	distance := r3.Norm(r3.Sub(end, start))
	if distance == 0 {
		return Duration{}, fmt.Errorf("%w: start and end coincide", ErrInvalid)
	}
	return line(start, end, distance/speed, samplingRate)
}

// DurationLine returns the trajectory of a point moving from start to end in
// a straight line over durationMS milliseconds, sampled every samplingRate
// seconds.
func DurationLine(start, end r3.Vec, durationMS, samplingRate float64) (Duration, error) {
	if durationMS <= 0 {
		return Duration{}, fmt.Errorf("%w: duration must be positive, got %g ms", ErrInvalid, durationMS)
	}
	return line(start, end, durationMS/1000.0, samplingRate)
}

// line samples a constant-velocity motion lasting duration seconds. The
// position advances by one displacement increment per step, so rounding
// error accumulates along the trajectory; the end point is reached only up
// to that error.
func line(start, end r3.Vec, duration, samplingRate float64) (Duration, error) {
	if samplingRate <= 0 {
		return Duration{}, fmt.Errorf("%w: sampling rate must be positive, got %g", ErrInvalid, samplingRate)
	}

	vector := r3.Sub(end, start)
	velocity := vec32(r3.Scale(1/duration, vector))

	nbSteps := int(duration/samplingRate + 0.5)
	if nbSteps == 0 {
		nbSteps = 1
	}
	step := r3.Scale(1/float64(nbSteps), vector)
	stepDuration := units.SecondsToMicros(samplingRate)

	out := Duration{
		Durations:  make([]uint64, nbSteps),
		Positions:  make([][]float32, nbSteps),
		Velocities: make([][]float32, nbSteps),
	}
	point := start
	for i := 0; i < nbSteps; i++ {
		point = r3.Add(point, step)
		out.Durations[i] = stepDuration
		out.Positions[i] = vec32(point)
		out.Velocities[i] = append([]float32(nil), velocity...)
	}
	return out, nil
}

func vec32(v r3.Vec) []float32 {
	return []float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
