package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Stamped{
		TimeStamps: []uint64{0, 100_000, 200_000},
		Positions:  [][]float32{{0, 0, 1}, {0.1, 0, 0.5}, {0.3, 0, 0.5}},
	}
	sum := Summarize(s)

	assert.Equal(t, 3, sum.Points)
	assert.InDelta(t, 0.2, sum.DurationSeconds, 1e-9)
	assert.InDelta(t, 100_000, sum.MeanIntervalUS, 1e-9)
	assert.Equal(t, []float32{0, 0, 1}, sum.First)
	assert.Equal(t, []float32{0.3, 0, 0.5}, sum.Last)
	assert.InDelta(t, 0.5, sum.MinZ, 1e-6)
	assert.InDelta(t, 1.0, sum.MaxZ, 1e-6)
	assert.InDelta(t, 5.0990, sum.MaxSpeed, 1e-3)
	assert.InDelta(t, (5.0990+2.0)/2, sum.MeanSpeed, 1e-3)
}

func TestSummarizeDegenerate(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(Stamped{}))

	one := Summarize(Stamped{TimeStamps: []uint64{0}, Positions: [][]float32{{1, 2, 3}}})
	assert.Equal(t, 1, one.Points)
	assert.Zero(t, one.MaxSpeed)
	assert.Zero(t, one.MeanIntervalUS)
}
