// Package trajectory defines the two in-memory encodings of a recorded ball
// trajectory and the conversions between them.
//
// A Stamped trajectory carries absolute time stamps (microseconds, first
// stamp 0) and one position per stamp. A Duration trajectory carries the
// elapsed time to the next point, a position and a velocity per point.
// Positions are float32 rows; the common case is 3 components (meters), but
// logs recorded together with the robot carry extra companion components
// after the first three.
//
// No I/O happens in this package.
package trajectory

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrTooShort is returned when an operation needs at least two points.
	ErrTooShort = errors.New("trajectory: at least two points required")

	// ErrEmpty is returned where a trajectory must hold at least one point.
	ErrEmpty = errors.New("trajectory: no point")

	// ErrInvalid is returned for structurally inconsistent trajectories or
	// generator arguments.
	ErrInvalid = errors.New("trajectory: invalid")
)

// Stamped is a trajectory with absolute time stamps.
type Stamped struct {
	// TimeStamps in microseconds, non-decreasing.
	TimeStamps []uint64
	// Positions has one row per time stamp.
	Positions [][]float32
}

// Len returns the number of points.
func (s Stamped) Len() int {
	return len(s.TimeStamps)
}

// Dim returns the number of components per position, 0 when empty.
func (s Stamped) Dim() int {
	if len(s.Positions) == 0 {
		return 0
	}
	return len(s.Positions[0])
}

// Validate checks the structural invariants: parallel sequences, a common
// position width, and non-decreasing time stamps.
func (s Stamped) Validate() error {
	if len(s.TimeStamps) != len(s.Positions) {
		return fmt.Errorf("%w: %d time stamps for %d positions", ErrInvalid, len(s.TimeStamps), len(s.Positions))
	}
	if err := checkRows(s.Positions); err != nil {
		return err
	}
	for i := 1; i < len(s.TimeStamps); i++ {
		if s.TimeStamps[i] < s.TimeStamps[i-1] {
			return fmt.Errorf("%w: time stamp %d decreases (%d after %d)", ErrInvalid, i, s.TimeStamps[i], s.TimeStamps[i-1])
		}
	}
	return nil
}

// ValidateNonEmpty is Validate plus the requirement of at least one point,
// which every stored trajectory satisfies.
func (s Stamped) ValidateNonEmpty() error {
	if s.Len() == 0 && len(s.Positions) == 0 {
		return ErrEmpty
	}
	return s.Validate()
}

// Clone returns a deep copy.
func (s Stamped) Clone() Stamped {
	return Stamped{
		TimeStamps: append([]uint64(nil), s.TimeStamps...),
		Positions:  cloneRows(s.Positions),
	}
}

// Translate adds offset to the leading components of every position, in place.
// Extra companion components are left untouched.
func (s Stamped) Translate(offset []float32) error {
	if d := s.Dim(); d != 0 && len(offset) > d {
		return fmt.Errorf("%w: offset has %d components, positions have %d", ErrInvalid, len(offset), d)
	}
	for _, p := range s.Positions {
		for k, o := range offset {
			p[k] += o
		}
	}
	return nil
}

// Duration is a trajectory expressed as per-step elapsed times.
type Duration struct {
	// Durations in microseconds; Durations[i] separates point i from point i+1.
	Durations  []uint64
	Positions  [][]float32
	Velocities [][]float32
}

// Len returns the number of points.
func (d Duration) Len() int {
	return len(d.Durations)
}

// Validate checks that all three sequences are parallel.
func (d Duration) Validate() error {
	if len(d.Positions) != len(d.Durations) || len(d.Velocities) != len(d.Durations) {
		return fmt.Errorf("%w: %d durations, %d positions, %d velocities",
			ErrInvalid, len(d.Durations), len(d.Positions), len(d.Velocities))
	}
	if err := checkRows(d.Positions); err != nil {
		return err
	}
	return checkRows(d.Velocities)
}

// State is the kinematic state of the ball at one point.
type State struct {
	Position []float32
	Velocity []float32
}

// Points iterates over (duration in microseconds, state) pairs.
func (d Duration) Points() iter.Seq2[uint64, State] {
	return func(yield func(uint64, State) bool) {
		for i, dur := range d.Durations {
			if !yield(dur, State{Position: d.Positions[i], Velocity: d.Velocities[i]}) {
				return
			}
		}
	}
}

func checkRows(rows [][]float32) error {
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return fmt.Errorf("%w: row %d has %d components, expected %d", ErrInvalid, i, len(r), len(rows[0]))
		}
	}
	return nil
}

func cloneRows(rows [][]float32) [][]float32 {
	if rows == nil {
		return nil
	}
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = append([]float32(nil), r...)
	}
	return out
}
