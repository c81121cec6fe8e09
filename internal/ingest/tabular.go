package ingest

import (
	"fmt"

	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
	"github.com/intelligent-soft-robots/balltraj/internal/units"
)

// tick is one line of a tabular log.
type tick struct {
	ballID    int64
	stampNS   int64
	position  []float64
	companion []float64
}

func (t tick) detected() bool { return t.ballID >= 0 }

// parseTabular reads lines of the form
//
//	((ball_id, ts_ns, ball_pos, ball_vel), (ts_ns, robot_pos, robot_vel))
//
// where the robot tuple may also lead with an id. Time stamps come from the
// robot tuple. Object-only lines (ball_id, ts_ns, ball_pos, ball_vel) are
// accepted when the companion is not requested, and use the ball stamp.
func parseTabular(path string, data []byte, includeCompanion bool) (trajectory.Stamped, error) {
	numbers, text := lines(data)
	ticks := make([]tick, 0, len(text))
	for i, l := range text {
		t, err := readTick(l, includeCompanion)
		if err != nil {
			return trajectory.Stamped{}, &MalformedError{Path: path, Line: numbers[i], Err: err}
		}
		ticks = append(ticks, t)
	}

	ticks, err := trimUndetected(ticks)
	if err != nil {
		return trajectory.Stamped{}, fmt.Errorf("%s: %w", path, err)
	}
	filled := fillGaps(ticks)
	if filled > 0 {
		monitoring.Debugf("%s: interpolated %d undetected ticks", path, filled)
	}

	out := trajectory.Stamped{
		TimeStamps: make([]uint64, len(ticks)),
		Positions:  make([][]float32, len(ticks)),
	}
	start := ticks[0].stampNS
	for i, t := range ticks {
		if t.stampNS < start {
			return trajectory.Stamped{}, malformed(path, 0, "tick %d time stamp %d precedes first detection %d", i, t.stampNS, start)
		}
		out.TimeStamps[i] = uint64(units.NanosToMicros(t.stampNS - start))

		p := make([]float32, 0, len(t.position)+len(t.companion))
		for _, v := range t.position {
			p = append(p, float32(v))
		}
		if includeCompanion {
			for _, v := range t.companion {
				p = append(p, float32(v))
			}
		}
		out.Positions[i] = p
	}
	if err := out.Validate(); err != nil {
		return trajectory.Stamped{}, &MalformedError{Path: path, Err: err}
	}
	return out, nil
}

func readTick(line string, includeCompanion bool) (tick, error) {
	tuple, err := decodeTuple(line)
	if err != nil {
		return tick{}, err
	}
	ball := tuple
	var robot []interface{}
	if len(tuple) == 2 {
		if ball, err = asTuple(tuple[0], "ball"); err != nil {
			return tick{}, err
		}
		if robot, err = asTuple(tuple[1], "robot"); err != nil {
			return tick{}, err
		}
	}
	if len(ball) < 2 {
		return tick{}, fmt.Errorf("ball: expected (id, time stamp, position, ...), got %d fields", len(ball))
	}

	var t tick
	if t.ballID, err = asInt(ball[0], "ball id"); err != nil {
		return tick{}, err
	}
	// The robot tuple is (ts, pos, vel) or (id, ts, pos, vel) and carries
	// the time base; the ball stamp is only used on object-only lines.
	switch {
	case robot != nil:
		if len(robot) < 3 {
			return tick{}, fmt.Errorf("robot: expected (time stamp, position, velocity), got %d fields", len(robot))
		}
		if t.stampNS, err = asInt(robot[len(robot)-3], "robot time stamp"); err != nil {
			return tick{}, err
		}
		if includeCompanion {
			if t.companion, err = asVector(robot[len(robot)-2], "robot position"); err != nil {
				return tick{}, err
			}
		}
	case includeCompanion:
		return tick{}, fmt.Errorf("robot: missing, line holds the ball only")
	default:
		if t.stampNS, err = asInt(ball[1], "ball time stamp"); err != nil {
			return tick{}, err
		}
	}

	// Undetected ticks carry no usable position; fillGaps replaces it.
	if !t.detected() {
		return t, nil
	}
	if len(ball) < 3 {
		return tick{}, fmt.Errorf("ball: expected (id, time stamp, position, ...), got %d fields", len(ball))
	}
	if t.position, err = asVector(ball[2], "ball position"); err != nil {
		return tick{}, err
	}
	if len(t.position) != 3 {
		return tick{}, fmt.Errorf("ball position: expected 3 components, got %d", len(t.position))
	}
	return t, nil
}

// trimUndetected drops the undetected ticks at both ends.
func trimUndetected(ticks []tick) ([]tick, error) {
	first := -1
	for i, t := range ticks {
		if t.detected() {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, ErrNoDetection
	}
	last := first
	for i := len(ticks) - 1; i > first; i-- {
		if ticks[i].detected() {
			last = i
			break
		}
	}
	return ticks[first : last+1], nil
}

// fillGaps replaces the ball position of every undetected tick by a linear
// interpolation between the surrounding detections. With detections at
// indexes a and b, tick a+k gets start + k*(end-start)/(b-a). The companion
// position and time stamps are kept. It returns the number of ticks filled and
// expects ticks to start and end on detections.
func fillGaps(ticks []tick) int {
	filled := 0
	last := 0
	for i, t := range ticks {
		if !t.detected() {
			continue
		}
		if gap := i - last; gap > 1 {
			start, end := ticks[last].position, t.position
			step := make([]float64, len(start))
			for c := range start {
				step[c] = (end[c] - start[c]) / float64(gap)
			}
			for k := 1; k < gap; k++ {
				p := make([]float64, len(start))
				for c := range start {
					p[c] = start[c] + step[c]*float64(k)
				}
				ticks[last+k].position = p
				filled++
			}
		}
		last = i
	}
	return filled
}
