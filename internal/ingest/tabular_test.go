package ingest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/testutil"
)

func gapLog(robot []float64) []testutil.Tick {
	ticks := make([]testutil.Tick, 6)
	for i := range ticks {
		ticks[i] = testutil.Tick{
			BallID:   -1,
			StampNS:  int64(i) * 10_000_000,
			Position: [3]float64{-99, -99, -99},
			Robot:    robot,
		}
	}
	ticks[0].BallID, ticks[0].Position = 1, [3]float64{0, 0, 0}
	ticks[5].BallID, ticks[5].Position = 1, [3]float64{10, 0, 0}
	return ticks
}

func TestTabularGapFill(t *testing.T) {
	testutil.MuteLogs(t)
	data := testutil.Lines(gapLog([]float64{0.1, 0.2, 0.3, 0.4}), testutil.TabularLine)

	got, err := TabularLog.Parse("o80_robot_ball_0", data, Options{})
	require.NoError(t, err)

	want := [][]float32{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}, {6, 0, 0}, {8, 0, 0}, {10, 0, 0}}
	if diff := cmp.Diff(want, got.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []uint64{0, 10_000, 20_000, 30_000, 40_000, 50_000}, got.TimeStamps)
}

func TestTabularCompanion(t *testing.T) {
	testutil.MuteLogs(t)
	data := testutil.Lines(gapLog([]float64{0.5, 0.25, 1, 2}), testutil.TabularLine)

	got, err := TabularLog.Parse("log", data, Options{IncludeCompanion: true})
	require.NoError(t, err)

	assert.Equal(t, 7, got.Dim())
	assert.Equal(t, []float32{4, 0, 0, 0.5, 0.25, 1, 2}, got.Positions[2])
}

func TestTabularCompanionMissing(t *testing.T) {
	data := testutil.Lines(testutil.Line(3, 1000, 0.1), testutil.TabularLine)

	_, err := TabularLog.Parse("log", data, Options{IncludeCompanion: true})
	var me *MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Line)
}

func TestTabularTrim(t *testing.T) {
	testutil.MuteLogs(t)
	ticks := testutil.Line(7, 1_000_000, 1)
	ticks[0].BallID, ticks[1].BallID = -1, -1
	ticks[6].BallID = -1
	ticks[4].BallID = -1

	got, err := TabularLog.Parse("log", testutil.Lines(ticks, testutil.TabularLine), Options{})
	require.NoError(t, err)

	require.Equal(t, 4, got.Len())
	assert.Equal(t, []uint64{0, 1000, 2000, 3000}, got.TimeStamps)
	assert.Equal(t, float32(2), got.Positions[0][0])
	assert.Equal(t, float32(4), got.Positions[2][0], "interpolated between 3 and 5")
	assert.Equal(t, float32(5), got.Positions[3][0])
}

func TestTabularNoDetection(t *testing.T) {
	ticks := testutil.Line(3, 1000, 1)
	for i := range ticks {
		ticks[i].BallID = -1
	}
	_, err := TabularLog.Parse("log", testutil.Lines(ticks, testutil.TabularLine), Options{})
	assert.ErrorIs(t, err, ErrNoDetection)

	_, err = TabularLog.Parse("empty", nil, Options{})
	assert.ErrorIs(t, err, ErrNoDetection)
}

func TestTabularTimeStampTruncation(t *testing.T) {
	data := []byte("(0, 1000000999, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0))\n" +
		"(0, 1000002998, (1.0, 0.0, 0.0), (0.0, 0.0, 0.0))\n")
	got, err := TabularLog.Parse("log", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, got.TimeStamps, "(t_i - t_0) / 1000")
}

func TestTabularRobotTimeBase(t *testing.T) {
	testutil.MuteLogs(t)
	t.Run("stale ball stamp on undetected tick", func(t *testing.T) {
		data := []byte("((1, 1000000, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0)), (1000000, (0.1,), (0.0,)))\n" +
			"((-1, 0, (0.0,), (0.0,)), (2000000, (0.1,), (0.0,)))\n" +
			"((1, 3000000, (2.0, 0.0, 0.0), (0.0, 0.0, 0.0)), (3000000, (0.1,), (0.0,)))\n")
		got, err := TabularLog.Parse("o80_robot_ball_x", data, Options{})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1000, 2000}, got.TimeStamps)
		assert.Equal(t, []float32{1, 0, 0}, got.Positions[1])
	})

	t.Run("robot stamp differs from ball stamp", func(t *testing.T) {
		data := []byte("((1, 500, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0)), (7, 4000000, (0.1,), (0.0,)))\n" +
			"((1, 900, (1.0, 0.0, 0.0), (0.0, 0.0, 0.0)), (8, 6000000, (0.2,), (0.0,)))\n")
		got, err := TabularLog.Parse("log", data, Options{IncludeCompanion: true})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 2000}, got.TimeStamps, "(id, ts, pos, vel) robot tuple")
		assert.Equal(t, []float32{1, 0, 0, 0.2}, got.Positions[1])
	})
}

func TestTabularMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not a tuple", "hello"},
		{"code", "__import__('os').system('true')"},
		{"short ball", "((0, 1), (1, (0.0,), (0.0,)))"},
		{"bad position", "(0, 1, (0.0, 0.0), (0.0, 0.0, 0.0))"},
		{"string id", `("a", 1, (0.0, 0.0, 0.0), (0.0, 0.0, 0.0))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(testutil.StructuredLine(testutil.Tick{}) + "\n" + tt.line + "\n")
			_, err := TabularLog.Parse("bad.log", data, Options{})
			var me *MalformedError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, "bad.log", me.Path)
			assert.Equal(t, 2, me.Line)
		})
	}
}

func TestFillGaps(t *testing.T) {
	ticks := []tick{
		{ballID: 0, position: []float64{0, 0, 0}},
		{ballID: -1, position: []float64{7, 7, 7}},
		{ballID: 0, position: []float64{2, 4, 6}},
		{ballID: 0, position: []float64{3, 3, 3}},
	}
	assert.Equal(t, 1, fillGaps(ticks))
	assert.Equal(t, []float64{1, 2, 3}, ticks[1].position)
	assert.Equal(t, []float64{3, 3, 3}, ticks[3].position)
}
