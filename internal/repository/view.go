package repository

import (
	"fmt"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// View is a live, file-bound view of one entry.
type View struct {
	Group string
	Index int

	timeStamps *container.Dataset
	positions  *container.Dataset
}

// Len returns the number of points recorded when the view was taken.
func (v *View) Len() int { return v.timeStamps.Len() }

// TimeStamps reads the time stamps, in microseconds.
func (v *View) TimeStamps() ([]uint64, error) { return v.timeStamps.ReadUint64() }

// Positions reads the positions.
func (v *View) Positions() ([][]float32, error) { return v.positions.ReadFloat32Rows() }

// Materialize reads the entry into an independent trajectory.
func (v *View) Materialize() (trajectory.Stamped, error) {
	ts, err := v.TimeStamps()
	if err != nil {
		return trajectory.Stamped{}, err
	}
	pos, err := v.Positions()
	if err != nil {
		return trajectory.Stamped{}, err
	}
	s := trajectory.Stamped{TimeStamps: ts, Positions: pos}
	if err := s.Validate(); err != nil {
		return trajectory.Stamped{}, fmt.Errorf("group %q index %d: %w", v.Group, v.Index, err)
	}
	return s, nil
}
