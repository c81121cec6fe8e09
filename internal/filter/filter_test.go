package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func sample() trajectory.Stamped {
	return trajectory.Stamped{
		TimeStamps: []uint64{0, 100_000, 200_000},
		Positions:  [][]float32{{0, 0, 1}, {0, 0.5, 0.75}, {0, 1, 0.5}},
	}
}

func TestMatch(t *testing.T) {
	env := NewEnv("tennicam", 3, sample(), map[string]string{"source_file": "tennicam_7", "format": "structured-text"})
	assert.Equal(t, 3, env.Points)
	assert.InDelta(t, 0.2, env.Duration, 1e-9)
	assert.InDelta(t, 1.0, env.Start.Z, 1e-6)
	assert.InDelta(t, 1.0, env.End.Y, 1e-6)

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"points == 3", true},
		{"points > 3", false},
		{"index == 3 && group == 'tennicam'", true},
		{`source_file startsWith "tennicam_"`, true},
		{"duration > 0.1 and min_z < 0.6", true},
		{"max_speed > 10", false},
		{"end.y - start.y >= 1", true},
		{"format == 'position-json'", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := f.Match(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"points +", "unknown_field > 1", "points + 1"} {
		_, err := Compile(src)
		assert.Error(t, err, src)
	}
}

func TestEmptyTrajectoryEnv(t *testing.T) {
	env := NewEnv("g", 0, trajectory.Stamped{}, nil)
	f, err := Compile("points == 0")
	require.NoError(t, err)
	ok, err := f.Match(env)
	require.NoError(t, err)
	assert.True(t, ok)
}
