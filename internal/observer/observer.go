// Package observer accumulates per-episode statistics while a ball trajectory
// is replayed against a racket: how close the ball came to the racket, and
// after contact how close it came to a target, how fast it went and where it
// first came down.
package observer

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// ContactInformation is the racket contact state reported by the simulation
// at one step.
type ContactInformation struct {
	ContactOccurred bool
	// MinimalDistance is the smallest ball/racket distance observed so far;
	// meaningless once contact occurred.
	MinimalDistance float64
}

// BallStatus tracks the ball over an episode.
type BallStatus struct {
	Target []float64

	// RacketHit is set once contact occurred; MinDistanceBallRacket is only
	// meaningful while it is false.
	RacketHit             bool
	MinDistanceBallRacket float64
	// Post-contact statistics.
	MinDistanceBallTarget float64
	MaxBallVelocity       float64

	MinZ float64
	MaxY float64

	BallPosition []float64
	BallVelocity []float64
}

// NewBallStatus returns a reset status for target.
func NewBallStatus(target []float64) *BallStatus {
	b := &BallStatus{Target: append([]float64(nil), target...)}
	b.Reset()
	return b
}

// Reset clears the accumulated statistics.
func (b *BallStatus) Reset() {
	b.RacketHit = false
	b.MinDistanceBallRacket = math.Inf(1)
	b.MinDistanceBallTarget = math.Inf(1)
	b.MaxBallVelocity = 0
	b.MinZ = math.Inf(1)
	b.MaxY = math.Inf(-1)
	b.BallPosition = nil
	b.BallVelocity = nil
}

// Update records one step.
func (b *BallStatus) Update(position, velocity []float64, contact ContactInformation) {
	b.BallPosition = position
	b.BallVelocity = velocity

	b.MinZ = math.Min(position[2], b.MinZ)
	b.MaxY = math.Max(position[1], b.MaxY)

	if !contact.ContactOccurred {
		b.RacketHit = false
		b.MinDistanceBallRacket = contact.MinimalDistance
		return
	}
	b.RacketHit = true
	b.MinDistanceBallTarget = math.Min(floats.Distance(position, b.Target, 2), b.MinDistanceBallTarget)
	b.MaxBallVelocity = math.Max(floats.Norm(velocity, 2), b.MaxBallVelocity)
}

// DefaultHitPosition is reported while no hit point was observed.
var DefaultHitPosition = []float64{-10, -10, -10}

// HitPoint finds where the ball first comes down after racket contact: the
// first post-contact position less than 2 cm above the table.
type HitPoint struct {
	TableHeight float64
	Default     []float64

	hit []float64
}

// NewHitPoint returns a detector for a table at tableHeight.
func NewHitPoint(tableHeight float64) *HitPoint {
	return &HitPoint{TableHeight: tableHeight, Default: DefaultHitPosition}
}

// Reset forgets the recorded hit.
func (h *HitPoint) Reset() { h.hit = nil }

// Hit reports the recorded hit position, if any.
func (h *HitPoint) Hit() ([]float64, bool) { return h.hit, h.hit != nil }

// Update records one step and returns the hit position, or Default while
// there is none. Once found, the hit position no longer changes.
func (h *HitPoint) Update(position []float64, contact ContactInformation) []float64 {
	if h.hit != nil {
		return h.hit
	}
	if contact.ContactOccurred && position[2] < h.TableHeight+0.02 {
		h.hit = append([]float64(nil), position...)
		return h.hit
	}
	return h.Default
}

// ContactFunc reports the racket contact state at step i of a replay.
type ContactFunc func(i int, state trajectory.State) ContactInformation

// widen returns the first n components of v as float64.
func widen(v []float32, n int) []float64 {
	if len(v) < n {
		n = len(v)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(v[i])
	}
	return out
}

// InFlight is the ContactFunc of a recorded flight that starts after the
// racket: every step counts as post-contact.
func InFlight(int, trajectory.State) ContactInformation {
	return ContactInformation{ContactOccurred: true}
}

// ReplayStamped feeds every point of s to status and hit, either of which may
// be nil. Velocities are estimated on the fly by a trajectory.Ball averaging
// over window samples; the first point has zero velocity.
func ReplayStamped(s trajectory.Stamped, window int, contact ContactFunc, status *BallStatus, hit *HitPoint) {
	ball := trajectory.NewBall(window)
	for i := range s.TimeStamps {
		st := ball.Update(s.TimeStamps[i], s.Positions[i])
		c := contact(i, st)
		pos, vel := widen(st.Position, 3), widen(st.Velocity, 3)
		if status != nil {
			status.Update(pos, vel, c)
		}
		if hit != nil {
			hit.Update(pos, c)
		}
	}
}
