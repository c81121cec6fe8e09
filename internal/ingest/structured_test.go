package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/testutil"
)

func TestStructuredFilter(t *testing.T) {
	ticks := testutil.Line(5, 2_000_000, 0.5)
	for i := range ticks {
		ticks[i].StampNS += 1_700_000_000_000_000_000
	}
	ticks[0].BallID = -1
	ticks[3].BallID = -1

	got, err := StructuredText.Parse("tennicam_0", testutil.Lines(ticks, testutil.StructuredLine), Options{})
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 2000, 6000}, got.TimeStamps)
	assert.Equal(t, [][]float32{{0.5, 0, 1}, {1, 0, 1}, {2, 0, 1}}, got.Positions)
}

func TestStructuredFloatStamps(t *testing.T) {
	data := []byte("(1, 1.5e9, [0.0, 0.0, 0.0], [0.0, 0.0, 0.0])\n\n  (2, 1.5025e9, [1.0, 1.0, 1.0], [0.0, 0.0, 0.0], 42)  \n")
	got, err := StructuredText.Parse("tennicam_f", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2500}, got.TimeStamps)
}

func TestStructuredNoDetection(t *testing.T) {
	ticks := testutil.Line(3, 1000, 1)
	for i := range ticks {
		ticks[i].BallID = -3
	}
	got, err := StructuredText.Parse("tennicam_none", testutil.Lines(ticks, testutil.StructuredLine), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestStructuredMalformed(t *testing.T) {
	_, err := StructuredText.Parse("tennicam_bad", []byte("(1, 2)\n"), Options{})
	var me *MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Line)

	_, err = StructuredText.Parse("tennicam_back", []byte(
		"(1, 5000, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0))\n(1, 1000, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0))\n"), Options{})
	assert.ErrorAs(t, err, &me)
}
