// Package trajset holds the trajectories of one group in memory and samples
// from them.
package trajset

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

var (
	// ErrEmpty is returned when sampling from a set without trajectories.
	ErrEmpty = errors.New("trajset: no trajectories loaded")
	// ErrNotEnough is returned when more distinct trajectories are requested
	// than the set holds.
	ErrNotEnough = errors.New("trajset: not enough trajectories")
)

// Sample is a trajectory drawn from a set, with its index in the group.
type Sample struct {
	Index      int
	Trajectory trajectory.Stamped
}

// Set is an immutable collection of stamped trajectories keyed by index.
type Set struct {
	group        string
	indexes      []int
	trajectories map[int]trajectory.Stamped
	rng          *rand.Rand
}

// Option configures a Set.
type Option func(*Set)

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Set) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New builds a set from already loaded trajectories.
func New(group string, trajectories map[int]trajectory.Stamped, opts ...Option) *Set {
	s := &Set{
		group:        group,
		trajectories: make(map[int]trajectory.Stamped, len(trajectories)),
	}
	for i, t := range trajectories {
		s.trajectories[i] = t
		s.indexes = append(s.indexes, i)
	}
	sort.Ints(s.indexes)
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Load reads every trajectory of group from the repository file and closes
// it before returning.
func Load(file, group string, opts ...Option) (*Set, error) {
	r, err := repository.Open(file, container.ReadOnly, repository.DefaultOptions())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	all, err := r.GetStampedTrajectories(group)
	if err != nil {
		return nil, err
	}
	return New(group, all, opts...), nil
}

// Group returns the name of the group the set was loaded from.
func (s *Set) Group() string { return s.group }

// Size returns the number of trajectories.
func (s *Set) Size() int { return len(s.indexes) }

// Indexes returns the indexes of the set in increasing order.
func (s *Set) Indexes() []int { return append([]int(nil), s.indexes...) }

// Trajectory returns the trajectory at index.
func (s *Set) Trajectory(index int) (trajectory.Stamped, error) {
	t, ok := s.trajectories[index]
	if !ok {
		return trajectory.Stamped{}, fmt.Errorf("group %q index %d: %w", s.group, index, container.ErrNotFound)
	}
	return t, nil
}

// All returns every trajectory keyed by index.
func (s *Set) All() map[int]trajectory.Stamped {
	out := make(map[int]trajectory.Stamped, len(s.trajectories))
	for i, t := range s.trajectories {
		out[i] = t
	}
	return out
}

// Random returns a uniformly chosen trajectory.
func (s *Set) Random() (Sample, error) {
	if len(s.indexes) == 0 {
		return Sample{}, ErrEmpty
	}
	i := s.indexes[s.rng.IntN(len(s.indexes))]
	return Sample{Index: i, Trajectory: s.trajectories[i]}, nil
}

// DifferentRandom returns n distinct trajectories in random order.
func (s *Set) DifferentRandom(n int) ([]Sample, error) {
	if n < 0 || n > len(s.indexes) {
		return nil, fmt.Errorf("%w: %d requested, %d loaded", ErrNotEnough, n, len(s.indexes))
	}
	perm := s.rng.Perm(len(s.indexes))
	out := make([]Sample, n)
	for k := range out {
		i := s.indexes[perm[k]]
		out[k] = Sample{Index: i, Trajectory: s.trajectories[i]}
	}
	return out, nil
}
