// Package astro provides the vector and time primitives shared by the
// propagator, the frame transforms, and the ephemeris model.
package astro

import (
	"errors"
	"math"
)

// ErrDegenerateVector is returned when an operation requires a non-zero
// vector (e.g. normalization) and receives one of zero length.
var ErrDegenerateVector = errors.New("astro: degenerate zero-length vector")

// Vec3 is a Cartesian 3-vector. Units are whatever the caller puts in;
// the frame packages consistently use kilometers.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length. A zero-length input returns
// ErrDegenerateVector instead of silently producing NaN components.
func (v Vec3) Normalize() (Vec3, error) {
	n := v.Norm()
	if n == 0 {
		return Vec3{}, ErrDegenerateVector
	}
	return Vec3{v.X / n, v.Y / n, v.Z / n}, nil
}

// AngleBetween returns the angle between u and v in radians.
// The cosine is clamped to [-1, 1] so floating-point drift near parallel
// or antiparallel vectors cannot produce NaN. Zero-length inputs return
// ErrDegenerateVector.
func AngleBetween(u, v Vec3) (float64, error) {
	denom := u.Norm() * v.Norm()
	if denom == 0 {
		return 0, ErrDegenerateVector
	}
	c := u.Dot(v) / denom
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c), nil
}
