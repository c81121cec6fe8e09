package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligent-soft-robots/balltraj/internal/config"
	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/export"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/testutil"
)

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func setup(t *testing.T) string {
	t.Helper()
	testutil.MuteLogs(t)
	t.Setenv(config.EnvConfigPath, "")
	return filepath.Join(t.TempDir(), "trajectories.db")
}

// jsonDir writes files holding 4, 5 and 6 points.
func jsonDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		rows := make([][]float64, 4+i)
		for k := range rows {
			rows[k] = []float64{float64(i), float64(k) * 0.1, 1}
		}
		testutil.WriteFile(t, dir, fmt.Sprintf("throw_%d.json", i), testutil.PositionJSON(t, rows))
	}
	return dir
}

func firstColumn(table string) []string {
	var col []string
	for _, line := range strings.Split(strings.TrimSpace(table), "\n")[1:] {
		if f := strings.Fields(line); len(f) > 0 {
			col = append(col, f[0])
		}
	}
	return col
}

func TestCreate(t *testing.T) {
	path := setup(t)

	out, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "created "+path)

	out, _, code = run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "already exists")

	out, _, code = run(t, "info", "--path", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "no group")
}

func TestCreateDefaultLocation(t *testing.T) {
	setup(t)
	root := t.TempDir()
	cfg := testutil.WriteFile(t, t.TempDir(), "config.yaml", []byte("paths:\n  roots: [\""+root+"\"]\n"))

	_, stderr, code := run(t, "create", "--config", cfg)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(root, config.DefaultFile))

	t.Setenv(config.EnvConfigPath, cfg)
	out, _, code := run(t, "info")
	require.Equal(t, 0, code)
	assert.Contains(t, out, filepath.Join(root, config.DefaultFile))
}

func TestAddJSONAndInfo(t *testing.T) {
	path := setup(t)
	dir := jsonDir(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)

	out, stderr, code := run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "added 3 trajectories to group throws")

	out, _, code = run(t, "info", "--path", path)
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"throws"}, firstColumn(strings.SplitN(out, "\n", 2)[1]))

	out, _, code = run(t, "info", "--path", path, "--group", "throws")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"0", "1", "2"}, firstColumn(out))
	assert.Contains(t, out, "(2.000, 0.000, 1.000)")

	out, _, code = run(t, "info", "--path", path, "--group", "throws", "--where", "points > 4")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"1", "2"}, firstColumn(out))

	_, stderr, code = run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	assert.Equal(t, 1, code, "group exists")
	assert.Contains(t, stderr, "Error:")
}

func TestCommandErrors(t *testing.T) {
	path := setup(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)

	tests := []struct {
		name string
		args []string
	}{
		{"missing container", []string{"info", "--path", filepath.Join(t.TempDir(), "none.db")}},
		{"missing group flag", []string{"add-json", "--path", path, "--sampling-rate-us", "10"}},
		{"zero sampling rate", []string{"add-json", "--path", path, "--group", "g", "--sampling-rate-us", "0"}},
		{"unknown group", []string{"info", "--path", path, "--group", "nope"}},
		{"bad expression", []string{"info", "--path", path, "--where", "points >"}},
		{"rm unknown group", []string{"rm", "--path", path, "--group", "nope"}},
		{"two coordinates", []string{"translate", "--path", path, "--group", "g", "--coords", "1,2"}},
		{"unknown view", []string{"plot", "--path", path, "--group", "g", "--view", "front"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestTranslateAndRm(t *testing.T) {
	path := setup(t)
	dir := jsonDir(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	_, _, code = run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	require.Equal(t, 0, code)

	out, stderr, code := run(t, "translate", "--path", path, "--group", "throws", "--coords", "1", "2", "3")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "translated 3 trajectories")

	_, stderr, code = run(t, "translate", "--path", path, "--group", "throws", "--coords", "-1,-2,-3")
	require.Equal(t, 0, code, stderr)
	_, _, code = run(t, "translate", "--path", path, "--group", "throws", "--coords", "0.5,0,0")
	require.Equal(t, 0, code)

	r, err := repository.Open(path, container.ReadOnly, repository.DefaultOptions())
	require.NoError(t, err)
	s, err := r.GetStampedTrajectory("throws", 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.5, 0.1, 1}, s.Positions[1], 1e-6)
	require.NoError(t, r.Close())

	out, _, code = run(t, "rm", "--path", path, "--group", "throws")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "removed group throws")

	out, _, code = run(t, "info", "--path", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "no group")
}

func TestTranslation(t *testing.T) {
	got, err := translation([]float64{1}, []string{"2", "3.5"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3.5}, got)

	got, err = translation([]float64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = translation([]float64{1}, []string{"2", "x"})
	assert.Error(t, err)
	_, err = translation(nil, nil)
	assert.Error(t, err)
}

func TestTranslateWithRotation(t *testing.T) {
	path := setup(t)
	dir := jsonDir(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	_, _, code = run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	require.Equal(t, 0, code)

	_, stderr, code := run(t, "translate", "--path", path, "--group", "throws", "--coords", "1,0,0", "--rotation", "0,0,1.5707963267948966")
	require.Equal(t, 0, code, stderr)

	r, err := repository.Open(path, container.ReadOnly, repository.DefaultOptions())
	require.NoError(t, err)
	defer r.Close()
	s, err := r.GetStampedTrajectory("throws", 2)
	require.NoError(t, err)
	// (2, 0.1, 1) rotated a quarter turn around z is (0.1, -2, 1).
	assert.InDeltaSlice(t, []float32{1.1, -2, 1}, s.Positions[1], 1e-5)

	_, _, code = run(t, "translate", "--path", path, "--group", "throws", "--coords", "0,0,0", "--rotation", "1,2")
	assert.Equal(t, 1, code)
}

func rowOf(table, index string) string {
	for _, line := range strings.Split(table, "\n") {
		if f := strings.Fields(line); len(f) > 0 && f[0] == index {
			return line
		}
	}
	return ""
}

func TestInfoFlight(t *testing.T) {
	path := setup(t)
	dir := jsonDir(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	_, _, code = run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	require.Equal(t, 0, code)

	out, stderr, code := run(t, "info", "--path", path, "--group", "throws", "--table-height", "0.99", "--target", "1,0.3,1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "LANDING")
	assert.Contains(t, out, "TARGET DISTANCE (m)")

	row := rowOf(out, "1")
	assert.Equal(t, 2, strings.Count(row, "(1.000, 0.000, 1.000)"), "first position and landing: %q", row)
	assert.Contains(t, row, "0.000")
	assert.Contains(t, row, "10.000", "0.1 m every 10 ms")

	out, _, code = run(t, "info", "--path", path, "--group", "throws", "--table-height", "0")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(rowOf(out, "0")), "-"), "no landing below the table")

	_, _, code = run(t, "info", "--path", path, "--group", "throws", "--target", "1,2")
	assert.Equal(t, 1, code)
}

func TestPlotAndExport(t *testing.T) {
	path := setup(t)
	dir := jsonDir(t)
	_, _, code := run(t, "create", "--path", path)
	require.Equal(t, 0, code)
	_, _, code = run(t, "add-json", "--path", path, "--group", "throws", "--sampling-rate-us", "10000", "--dir", dir)
	require.Equal(t, 0, code)
	outDir := t.TempDir()

	t.Run("png", func(t *testing.T) {
		png := filepath.Join(outDir, "throws.png")
		_, stderr, code := run(t, "plot", "--path", path, "--group", "throws", "--view", "side", "--out", png)
		require.Equal(t, 0, code, stderr)
		data, err := os.ReadFile(png)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("html", func(t *testing.T) {
		html := filepath.Join(outDir, "throws.html")
		_, stderr, code := run(t, "plot", "--path", path, "--group", "throws", "--html", "--out", html)
		require.Equal(t, 0, code, stderr)
		assert.FileExists(t, html)
	})

	t.Run("nothing selected", func(t *testing.T) {
		png := filepath.Join(outDir, "empty.png")
		_, _, code := run(t, "plot", "--path", path, "--group", "throws", "--where", "points > 100", "--out", png)
		assert.Equal(t, 1, code)
		assert.NoFileExists(t, png)
	})

	t.Run("parquet", func(t *testing.T) {
		file := filepath.Join(outDir, "throws.parquet")
		out, stderr, code := run(t, "export", "--path", path, "--group", "throws", "--out", file)
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, out, "wrote 15 rows of 3 trajectories")

		back, err := export.ReadFile(file)
		require.NoError(t, err)
		require.Len(t, back["throws"], 3)
		assert.Equal(t, []uint64{0, 10000, 20000, 30000, 40000}, back["throws"][1].TimeStamps)
	})
}
