package ingest

import (
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// parseStructured reads lines of the form (id, ts_ns, position, velocity, ...)
// and keeps the detected ones. Time stamps are converted to microseconds and
// offset so that the first kept record is at 0. A file without any detection
// gives an empty trajectory.
func parseStructured(path string, data []byte) (trajectory.Stamped, error) {
	numbers, text := lines(data)
	var (
		out   trajectory.Stamped
		start int64
	)
	for i, l := range text {
		tuple, err := decodeTuple(l)
		if err != nil {
			return trajectory.Stamped{}, &MalformedError{Path: path, Line: numbers[i], Err: err}
		}
		if len(tuple) < 3 {
			return trajectory.Stamped{}, malformed(path, numbers[i], "expected (id, time stamp, position, ...), got %d fields", len(tuple))
		}
		id, err := asInt(tuple[0], "id")
		if err != nil {
			return trajectory.Stamped{}, &MalformedError{Path: path, Line: numbers[i], Err: err}
		}
		if id < 0 {
			continue
		}
		us, err := asNanosToMicros(tuple[1], "time stamp")
		if err != nil {
			return trajectory.Stamped{}, &MalformedError{Path: path, Line: numbers[i], Err: err}
		}
		pos, err := asVector(tuple[2], "position")
		if err != nil {
			return trajectory.Stamped{}, &MalformedError{Path: path, Line: numbers[i], Err: err}
		}
		if len(pos) != 3 {
			return trajectory.Stamped{}, malformed(path, numbers[i], "position: expected 3 components, got %d", len(pos))
		}

		if out.Len() == 0 {
			start = us
		}
		if us < start {
			return trajectory.Stamped{}, malformed(path, numbers[i], "time stamp precedes first detection")
		}
		out.TimeStamps = append(out.TimeStamps, uint64(us-start))
		out.Positions = append(out.Positions, []float32{float32(pos[0]), float32(pos[1]), float32(pos[2])})
	}
	if err := out.Validate(); err != nil {
		return trajectory.Stamped{}, &MalformedError{Path: path, Err: err}
	}
	return out, nil
}
