package trajectory

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// Summary condenses a stamped trajectory for listings and filters.
type Summary struct {
	Points          int
	DurationSeconds float64
	First           []float32
	Last            []float32
	// MeanIntervalUS is the mean time between consecutive points.
	MeanIntervalUS float64
	// Speeds come from finite differences over the first three components;
	// both are 0 for trajectories shorter than two points.
	MeanSpeed float64
	MaxSpeed  float64
	MinZ      float64
	MaxZ      float64
}

// Summarize computes a Summary. Empty trajectories yield the zero Summary.
func Summarize(s Stamped) Summary {
	n := s.Len()
	if n == 0 || len(s.Positions) != n {
		return Summary{}
	}

	sum := Summary{
		Points:          n,
		DurationSeconds: units.MicrosToSeconds(s.TimeStamps[n-1] - s.TimeStamps[0]),
		First:           append([]float32(nil), s.Positions[0]...),
		Last:            append([]float32(nil), s.Positions[n-1]...),
		MinZ:            math.NaN(),
		MaxZ:            math.NaN(),
	}

	if s.Dim() >= 3 {
		zs := make([]float64, n)
		for i, p := range s.Positions {
			zs[i] = float64(p[2])
		}
		sum.MinZ = floats.Min(zs)
		sum.MaxZ = floats.Max(zs)
	}

	if n < 2 {
		return sum
	}
	intervals := make([]float64, n-1)
	for i := 1; i < n; i++ {
		intervals[i-1] = float64(s.TimeStamps[i] - s.TimeStamps[i-1])
	}
	sum.MeanIntervalUS = stat.Mean(intervals, nil)

	d, err := ToDuration(s)
	if err != nil || s.Dim() < 3 {
		return sum
	}
	speeds := make([]float64, 0, d.Len())
	for _, v := range d.Velocities {
		speed := floats.Norm([]float64{float64(v[0]), float64(v[1]), float64(v[2])}, 2)
		if !math.IsInf(speed, 0) && !math.IsNaN(speed) {
			speeds = append(speeds, speed)
		}
	}
	if len(speeds) > 0 {
		sum.MeanSpeed = stat.Mean(speeds, nil)
		sum.MaxSpeed = floats.Max(speeds)
	}
	return sum
}
