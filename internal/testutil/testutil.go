// Package testutil provides shared test fixtures: raw log writers in the
// formats the ingest layer reads and helpers to silence diagnostics.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
)

// MuteLogs silences the monitoring loggers for the duration of the test.
func MuteLogs(t *testing.T) {
	t.Helper()
	prevLog, prevDebug := monitoring.Logf, monitoring.Debugf
	monitoring.SetLogger(nil)
	monitoring.SetVerbose(false)
	t.Cleanup(func() {
		monitoring.Logf = prevLog
		monitoring.Debugf = prevDebug
	})
}

// PyFloat formats f the way a Python repr would, keeping a decimal point on
// integral values.
func PyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// PyTuple renders values as a Python tuple, with the trailing comma of a
// 1-tuple.
func PyTuple(items ...string) string {
	if len(items) == 1 {
		return "(" + items[0] + ",)"
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// PyVector renders a tuple of floats.
func PyVector(v ...float64) string {
	items := make([]string, len(v))
	for i, f := range v {
		items[i] = PyFloat(f)
	}
	return PyTuple(items...)
}

// Tick describes one observation of a tabular or structured log.
type Tick struct {
	BallID   int
	StampNS  int64
	Position [3]float64
	Velocity [3]float64
	// Robot is the companion joint position; nil writes object-only lines.
	Robot []float64
}

// TabularLine renders a tick as logged by the ball/robot logger:
// ((ball_id, ts, pos, vel), (ts, robot_pos, robot_vel)).
func TabularLine(tk Tick) string {
	ball := PyTuple(
		strconv.Itoa(tk.BallID),
		strconv.FormatInt(tk.StampNS, 10),
		PyVector(tk.Position[:]...),
		PyVector(tk.Velocity[:]...),
	)
	if tk.Robot == nil {
		return ball
	}
	robot := PyTuple(
		strconv.FormatInt(tk.StampNS, 10),
		PyVector(tk.Robot...),
		PyVector(make([]float64, len(tk.Robot))...),
	)
	return PyTuple(ball, robot)
}

// StructuredLine renders a tick as logged by the ball-only logger:
// (id, ts, pos, vel).
func StructuredLine(tk Tick) string {
	return PyTuple(
		strconv.Itoa(tk.BallID),
		strconv.FormatInt(tk.StampNS, 10),
		PyVector(tk.Position[:]...),
		PyVector(tk.Velocity[:]...),
	)
}

// Lines joins rendered lines into file content.
func Lines(ticks []Tick, render func(Tick) string) []byte {
	var b strings.Builder
	for _, tk := range ticks {
		b.WriteString(render(tk))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// PositionJSON renders a position-only file: {"ob": rows}.
func PositionJSON(t testing.TB, rows [][]float64) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"ob": rows})
	if err != nil {
		t.Fatalf("marshal positions: %v", err)
	}
	return data
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Line returns n ticks detected every stepNS, moving along x by dx per tick,
// starting at id 0.
func Line(n int, stepNS int64, dx float64) []Tick {
	ticks := make([]Tick, n)
	for i := range ticks {
		ticks[i] = Tick{
			BallID:   i,
			StampNS:  int64(i) * stepNS,
			Position: [3]float64{float64(i) * dx, 0, 1},
			Velocity: [3]float64{dx, 0, 0},
		}
	}
	return ticks
}
