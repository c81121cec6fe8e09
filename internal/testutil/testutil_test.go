package testutil

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
)

func TestPyFloat(t *testing.T) {
	tests := map[float64]string{
		10:      "10.0",
		0.5:     "0.5",
		-2:      "-2.0",
		0.00001: "1e-05",
	}
	for in, want := range tests {
		assert.Equal(t, want, PyFloat(in))
	}
}

func TestPyTuple(t *testing.T) {
	assert.Equal(t, "(1,)", PyTuple("1"))
	assert.Equal(t, "(1, 2)", PyTuple("1", "2"))
	assert.Equal(t, "(0.0, 1.5, 2.0)", PyVector(0, 1.5, 2))
}

func TestTabularLine(t *testing.T) {
	tk := Tick{BallID: -1, StampNS: 1000, Position: [3]float64{1, 2, 3}}
	assert.Equal(t, "(-1, 1000, (1.0, 2.0, 3.0), (0.0, 0.0, 0.0))", TabularLine(tk))

	tk.Robot = []float64{0.5, 0.25}
	assert.Equal(t,
		"((-1, 1000, (1.0, 2.0, 3.0), (0.0, 0.0, 0.0)), (1000, (0.5, 0.25), (0.0, 0.0)))",
		TabularLine(tk))
}

func TestPositionJSON(t *testing.T) {
	data := PositionJSON(t, [][]float64{{1, 2, 3, 4, 5, 6}})
	var got map[string][][]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, [][]float64{{1, 2, 3, 4, 5, 6}}, got["ob"])
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "a.txt", Lines(Line(2, 10, 1), StructuredLine))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(0, 0, (0.0, 0.0, 1.0), (1.0, 0.0, 0.0))\n(1, 10, (1.0, 0.0, 1.0), (1.0, 0.0, 0.0))\n", string(data))
}

func TestMuteLogs(t *testing.T) {
	called := false
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) { called = true })
	t.Cleanup(func() { monitoring.Logf = prev })

	t.Run("muted", func(t *testing.T) {
		MuteLogs(t)
		monitoring.Logf("hidden")
	})
	assert.False(t, called)

	monitoring.Logf("visible")
	assert.True(t, called)
}
