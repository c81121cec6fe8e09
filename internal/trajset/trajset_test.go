package trajset

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/testutil"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func point(i int) trajectory.Stamped {
	return trajectory.Stamped{
		TimeStamps: []uint64{0, 10},
		Positions:  [][]float32{{float32(i), 0, 0}, {float32(i), 1, 0}},
	}
}

func sampleSet(n int, opts ...Option) *Set {
	all := make(map[int]trajectory.Stamped, n)
	for i := 0; i < n; i++ {
		all[i] = point(i)
	}
	return New("g", all, opts...)
}

func TestDifferentRandomExhaustive(t *testing.T) {
	s := sampleSet(6, WithSeed(1))

	got, err := s.DifferentRandom(6)
	require.NoError(t, err)

	var seen []int
	for _, sm := range got {
		seen = append(seen, sm.Index)
		assert.Equal(t, float32(sm.Index), sm.Trajectory.Positions[0][0])
	}
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seen)

	_, err = s.DifferentRandom(7)
	assert.ErrorIs(t, err, ErrNotEnough)
	_, err = s.DifferentRandom(-1)
	assert.ErrorIs(t, err, ErrNotEnough)

	none, err := s.DifferentRandom(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRandom(t *testing.T) {
	s := sampleSet(3, WithSeed(7))
	counts := map[int]int{}
	for i := 0; i < 300; i++ {
		sm, err := s.Random()
		require.NoError(t, err)
		counts[sm.Index]++
	}
	assert.Len(t, counts, 3, "every index is drawn")

	_, err := New("empty", nil).Random()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSeedReproducible(t *testing.T) {
	a, err := sampleSet(10, WithSeed(42)).DifferentRandom(10)
	require.NoError(t, err)
	b, err := sampleSet(10, WithSeed(42)).DifferentRandom(10)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAccessors(t *testing.T) {
	s := sampleSet(3)
	assert.Equal(t, "g", s.Group())
	assert.Equal(t, 3, s.Size())
	assert.Equal(t, []int{0, 1, 2}, s.Indexes())

	tr, err := s.Trajectory(2)
	require.NoError(t, err)
	assert.Equal(t, point(2), tr)

	_, err = s.Trajectory(5)
	assert.ErrorIs(t, err, container.ErrNotFound)

	assert.Len(t, s.All(), 3)
}

func TestLoad(t *testing.T) {
	testutil.MuteLogs(t)
	file := filepath.Join(t.TempDir(), "set.db")
	r, err := repository.Create(file, repository.DefaultOptions())
	require.NoError(t, err)
	entries := []repository.Entry{{Trajectory: point(0)}, {Trajectory: point(1)}}
	_, err = r.AddGroup("g", "", entries, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	s, err := Load(file, "g", WithSeed(3))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Size())

	// The file is closed: a writer can open it again.
	rw, err := repository.Open(file, container.ReadWrite, repository.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, rw.RmGroup("g"))
	require.NoError(t, rw.Close())

	tr, err := s.Trajectory(1)
	require.NoError(t, err)
	assert.Equal(t, point(1), tr, "loaded trajectories are copies")

	_, err = Load(file, "g")
	assert.ErrorIs(t, err, container.ErrNotFound)
}
