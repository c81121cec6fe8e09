package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func group() map[int]trajectory.Stamped {
	return map[int]trajectory.Stamped{
		1: {TimeStamps: []uint64{0, 10}, Positions: [][]float32{{1, 2, 3}, {4, 5, 6}}},
		0: {TimeStamps: []uint64{0, 5, 9}, Positions: [][]float32{{0, 0, 1, 7, 8}, {0, 1, 1, 7, 8}, {0, 2, 1, 7, 9}}},
	}
}

func TestRows(t *testing.T) {
	rows, err := Rows("g", group())
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, int32(0), rows[0].Index, "indexes in order")
	assert.Equal(t, []float32{7, 9}, rows[2].Companion)
	assert.Equal(t, Row{Group: "g", Index: 1, Sample: 1, TimestampUS: 10, X: 4, Y: 5, Z: 6}, rows[4])

	_, err = Rows("g", map[int]trajectory.Stamped{0: {TimeStamps: []uint64{0}, Positions: [][]float32{{1, 2}}}})
	assert.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "g.parquet")
	n, err := WriteFile(path, "g", group())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	back, err := ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, back, "g")
	got := back["g"]
	require.Len(t, got, 2)

	want := group()
	for i, s := range want {
		assert.Equal(t, s.TimeStamps, got[i].TimeStamps, "index %d", i)
		assert.Equal(t, s.Positions, got[i].Positions, "index %d", i)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, "empty", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Positive(t, buf.Len(), "footer is still written")
}
