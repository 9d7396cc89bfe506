// Package geom holds the 2D math and collider primitives shared by the
// simulation: vectors, rectangles, the Box/Polygon/Segment collider variant
// and the narrow phase that tests any pair of them.
package geom

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrDivideByZero = errors.New("geom: division by zero")
	ErrZeroLength   = errors.New("geom: zero-length vector")
)

// Vec builds a vector from its components.
func Vec(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{x, y}
}

// Divide scales v by 1/s.
func Divide(v mgl64.Vec2, s float64) (mgl64.Vec2, error) {
	if s == 0 {
		return mgl64.Vec2{}, ErrDivideByZero
	}
	return mgl64.Vec2{v[0] / s, v[1] / s}, nil
}

// Normalize returns v scaled to unit length.
func Normalize(v mgl64.Vec2) (mgl64.Vec2, error) {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec2{}, ErrZeroLength
	}
	return Divide(v, l)
}

// NormalizeOrZero is Normalize with the zero vector as fallback.
func NormalizeOrZero(v mgl64.Vec2) mgl64.Vec2 {
	n, err := Normalize(v)
	if err != nil {
		return mgl64.Vec2{}
	}
	return n
}

// Cross is the z component of the 3D cross product of a and b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Perp rotates v a quarter turn counter-clockwise.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// Rotate maps a point expressed in a body frame with heading theta into the
// world frame. Heading 0 faces +Y; positive headings turn clockwise.
func Rotate(v mgl64.Vec2, theta float64) mgl64.Vec2 {
	s, c := math.Sincos(theta)
	return mgl64.Vec2{
		v[0]*c + v[1]*s,
		-v[0]*s + v[1]*c,
	}
}

// Forward is the unit direction a body with heading theta faces.
func Forward(theta float64) mgl64.Vec2 {
	s, c := math.Sincos(theta)
	return mgl64.Vec2{s, c}
}

// Right is the unit direction to the right of a body with heading theta.
func Right(theta float64) mgl64.Vec2 {
	s, c := math.Sincos(theta)
	return mgl64.Vec2{c, -s}
}

// Heading returns the heading that faces along d.
func Heading(d mgl64.Vec2) float64 {
	return math.Atan2(d[0], d[1])
}

// WrapAngle folds a into (-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Lerp interpolates between a and b.
func Lerp(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}
