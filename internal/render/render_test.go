package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func series() []Series {
	return []Series{
		{Name: "0", Trajectory: trajectory.Stamped{
			TimeStamps: []uint64{0, 10_000, 20_000},
			Positions:  [][]float32{{0, 0, 1}, {0.1, 0.5, 0.9}, {0.2, 1, 0.7}},
		}},
		{Name: "1", Trajectory: trajectory.Stamped{
			TimeStamps: []uint64{0, 10_000},
			Positions:  [][]float32{{0, 0, 1.2}, {-0.1, 0.4, 1}},
		}},
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, "json", series(), SideView, 4*vg.Inch, 3*vg.Inch))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestPNGNothingToDraw(t *testing.T) {
	var buf bytes.Buffer
	err := PNG(&buf, "empty", []Series{{Name: "0"}}, TopView, 4*vg.Inch, 3*vg.Inch)
	assert.ErrorIs(t, err, ErrNothingToDraw)
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, "tennicam", series()))
	out := buf.String()
	assert.True(t, strings.Contains(out, "echarts"), "renders a page")
	assert.Greater(t, len(out), 1000)

	err := HTML(&bytes.Buffer{}, "empty", nil, TopView)
	assert.ErrorIs(t, err, ErrNothingToDraw)
}

func TestProjectionByName(t *testing.T) {
	p, err := ProjectionByName("height")
	require.NoError(t, err)
	x, y := p.xy(0.5, []float32{1, 2, 3})
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 3.0, y)

	_, err = ProjectionByName("front")
	assert.Error(t, err)
}

func TestGenerateColors(t *testing.T) {
	assert.Len(t, generateColors(5), 5)
	assert.Empty(t, generateColors(0))
}
