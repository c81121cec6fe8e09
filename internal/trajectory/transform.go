package trajectory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is the 3-D rotation Rx(alpha)·Ry(beta)·Rz(gamma), angles in
// radians.
type Rotation struct {
	m *r3.Mat
}

// NewRotation builds the rotation for angles alpha, beta and gamma around
// x, y and z.
func NewRotation(alpha, beta, gamma float64) Rotation {
	ca, sa := math.Cos(alpha), math.Sin(alpha)
	cb, sb := math.Cos(beta), math.Sin(beta)
	cg, sg := math.Cos(gamma), math.Sin(gamma)
	rx := [3][3]float64{{1, 0, 0}, {0, ca, sa}, {0, -sa, ca}}
	ry := [3][3]float64{{cb, 0, -sb}, {0, 1, 0}, {sb, 0, cb}}
	rz := [3][3]float64{{cg, sg, 0}, {-sg, cg, 0}, {0, 0, 1}}
	m := mul3(mul3(rx, ry), rz)
	return Rotation{m: r3.NewMat([]float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})}
}

// Rotate returns v rotated. The zero Rotation is the identity.
func (r Rotation) Rotate(v r3.Vec) r3.Vec {
	if r.m == nil {
		return v
	}
	return r.m.MulVec(v)
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

// Transform rotates then translates.
type Transform struct {
	Rotation    Rotation
	Translation r3.Vec
}

// NewTransform returns the rotation by alpha, beta, gamma followed by the
// translation.
func NewTransform(alpha, beta, gamma float64, translation r3.Vec) Transform {
	return Transform{Rotation: NewRotation(alpha, beta, gamma), Translation: translation}
}

// Apply transforms v.
func (t Transform) Apply(v r3.Vec) r3.Vec {
	return r3.Add(t.Rotation.Rotate(v), t.Translation)
}

// Transform applies t to the first three components of every position, in
// place. Companion components are left untouched.
func (s Stamped) Transform(t Transform) error {
	if d := s.Dim(); d != 0 && d < 3 {
		return fmt.Errorf("%w: transform needs 3 components, positions have %d", ErrInvalid, d)
	}
	for _, p := range s.Positions {
		v := t.Apply(r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])})
		p[0], p[1], p[2] = float32(v.X), float32(v.Y), float32(v.Z)
	}
	return nil
}
