package astro

import (
	"errors"
	"math"
	"testing"
)

func TestVec3_BasicOps(t *testing.T) {
	v1 := Vec3{3, 4, 0}
	v2 := Vec3{1, 0, 0}

	if got := v1.Norm(); got != 5.0 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := v1.Dot(v2); got != 3.0 {
		t.Errorf("Dot = %v, want 3", got)
	}
	if got := v1.Sub(v2); got != (Vec3{2, 4, 0}) {
		t.Errorf("Sub = %v, want {2 4 0}", got)
	}
	if got := v1.Add(v2); got != (Vec3{4, 4, 0}) {
		t.Errorf("Add = %v, want {4 4 0}", got)
	}
	if got := v2.Scale(2.5); got != (Vec3{2.5, 0, 0}) {
		t.Errorf("Scale = %v, want {2.5 0 0}", got)
	}
}

func TestVec3_Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Errorf("x × y = %v, want {0 0 1}", got)
	}
	if got := y.Cross(x); got != (Vec3{0, 0, -1}) {
		t.Errorf("y × x = %v, want {0 0 -1}", got)
	}
}

func TestVec3_NormalizeZero(t *testing.T) {
	_, err := (Vec3{}).Normalize()
	if !errors.Is(err, ErrDegenerateVector) {
		t.Fatalf("Normalize(zero) err = %v, want ErrDegenerateVector", err)
	}

	u, err := (Vec3{0, 0, 7}).Normalize()
	if err != nil {
		t.Fatalf("Normalize err = %v", err)
	}
	if math.Abs(u.Norm()-1.0) > 1e-15 {
		t.Errorf("normalized length = %v, want 1", u.Norm())
	}
}

func TestAngleBetween(t *testing.T) {
	x := Vec3{1, 0, 0}

	sep, err := AngleBetween(x, x)
	if err != nil || sep != 0 {
		t.Errorf("AngleBetween(x,x) = %v, %v, want 0, nil", sep, err)
	}

	sep, err = AngleBetween(x, Vec3{0, 1, 0})
	if err != nil {
		t.Fatalf("AngleBetween err = %v", err)
	}
	if math.Abs(sep-math.Pi/2) > 1e-12 {
		t.Errorf("perpendicular separation = %v, want π/2", sep)
	}

	// Nearly parallel vectors must not produce NaN from acos(>1).
	sep, err = AngleBetween(Vec3{1, 1e-16, 0}, x)
	if err != nil {
		t.Fatalf("AngleBetween err = %v", err)
	}
	if math.IsNaN(sep) {
		t.Error("near-parallel separation is NaN")
	}

	if _, err := AngleBetween(Vec3{}, x); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("AngleBetween(zero, x) err = %v, want ErrDegenerateVector", err)
	}
}
