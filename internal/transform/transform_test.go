package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/geraldgg/helioselene/internal/astro"
)

func TestTEMEToECEF_RoundTrip(t *testing.T) {
	pos := astro.Vec3{X: 4357.1, Y: -3972.8, Z: 2834.6}
	gmst := 1.2345

	ecef := TEMEToECEFWithGMST(pos, astro.Vec3{}, gmst)
	back := ECEFToTEME(ecef.Position, gmst)

	if d := back.Sub(pos).Norm(); d > 1e-9 {
		t.Errorf("round trip error %.3e km", d)
	}
	// The rotation must preserve length.
	if math.Abs(ecef.Position.Norm()-pos.Norm()) > 1e-9 {
		t.Error("rotation changed the vector magnitude")
	}
}

func TestTEMEToECEF_MatchesReference(t *testing.T) {
	// Cross-check the position rotation against go-satellite's ECIToECEF.
	at := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)
	gmst := astro.GMSTAt(at)
	pos := astro.Vec3{X: -6045.0, Y: -3490.0, Z: 2500.0}

	got := TEMEToECEF(pos, astro.Vec3{}, at)
	ref := satellite.ECIToECEF(satellite.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}, gmst)

	if d := math.Sqrt(
		(got.Position.X-ref.X)*(got.Position.X-ref.X) +
			(got.Position.Y-ref.Y)*(got.Position.Y-ref.Y) +
			(got.Position.Z-ref.Z)*(got.Position.Z-ref.Z)); d > 1e-6 {
		t.Errorf("position differs from reference by %.3e km", d)
	}
}

func TestTEMEToECEF_VelocityCorrection(t *testing.T) {
	// A satellite at rest in ECEF (geostationary-like) has a TEME velocity of
	// ω × r; the transform must cancel it to near zero.
	rKm := 42164.0
	pos := astro.Vec3{X: rKm, Y: 0, Z: 0}
	vel := astro.Vec3{X: 0, Y: OmegaEarth * rKm, Z: 0}

	ecef := TEMEToECEFWithGMST(pos, vel, 0)
	if v := ecef.Velocity.Norm(); v > 1e-9 {
		t.Errorf("co-rotating satellite has ECEF speed %.3e km/s, want 0", v)
	}
}

func TestNewObserver_ECEF(t *testing.T) {
	// Equator, prime meridian, sea level: ECEF = (a, 0, 0).
	o := NewObserver(0, 0, 0)
	if math.Abs(o.ECEF.X-wgs84A) > 1e-9 || math.Abs(o.ECEF.Y) > 1e-9 || math.Abs(o.ECEF.Z) > 1e-9 {
		t.Errorf("equator observer ECEF = %+v, want (%.3f, 0, 0)", o.ECEF, wgs84A)
	}

	// North pole: X = Y = 0, Z = polar radius ≈ 6356.752 km.
	p := NewObserver(90, 0, 0)
	if math.Abs(p.ECEF.Z-6356.752) > 1e-2 {
		t.Errorf("pole observer Z = %.3f km, want ~6356.752", p.ECEF.Z)
	}
}

func TestLookAngles_CardinalDirections(t *testing.T) {
	o := NewObserver(0, 0, 0)

	// Target directly overhead.
	up := o.LookAngles(astro.Vec3{X: o.ECEF.X + 400, Y: 0, Z: 0})
	if math.Abs(up.AltDeg-90) > 1e-9 {
		t.Errorf("zenith target AltDeg = %v, want 90", up.AltDeg)
	}
	if up.AzDeg != 0 {
		t.Errorf("zenith target AzDeg = %v, want 0 fallback", up.AzDeg)
	}
	if math.Abs(up.RangeKm-400) > 1e-9 {
		t.Errorf("zenith target RangeKm = %v, want 400", up.RangeKm)
	}

	// Target due north on the horizon plane (along +Z for an equator observer).
	north := o.LookAngles(astro.Vec3{X: o.ECEF.X, Y: 0, Z: 500})
	if math.Abs(north.AzDeg) > 1e-9 && math.Abs(north.AzDeg-360) > 1e-9 {
		t.Errorf("north target AzDeg = %v, want 0", north.AzDeg)
	}
	if math.Abs(north.AltDeg) > 1e-9 {
		t.Errorf("north target AltDeg = %v, want 0", north.AltDeg)
	}

	// Due east (along +Y).
	east := o.LookAngles(astro.Vec3{X: o.ECEF.X, Y: 500, Z: 0})
	if math.Abs(east.AzDeg-90) > 1e-9 {
		t.Errorf("east target AzDeg = %v, want 90", east.AzDeg)
	}

	// Azimuth stays in [0, 360): a westward target reports 270, not -90.
	west := o.LookAngles(astro.Vec3{X: o.ECEF.X, Y: -500, Z: 0})
	if math.Abs(west.AzDeg-270) > 1e-9 {
		t.Errorf("west target AzDeg = %v, want 270", west.AzDeg)
	}
}

func TestECEFToGeodetic_RoundTrip(t *testing.T) {
	cases := []struct {
		lat, lon, altM float64
	}{
		{48.7868, 2.4981, 36},
		{-33.8688, 151.2093, 58},
		{0, 0, 0},
		{89.9, 45, 100},
	}
	for _, tc := range cases {
		o := NewObserver(tc.lat, tc.lon, tc.altM)
		g := ECEFToGeodetic(o.ECEF)
		if math.Abs(g.LatDeg-tc.lat) > 1e-6 {
			t.Errorf("lat %.4f: round trip gave %.8f", tc.lat, g.LatDeg)
		}
		if math.Abs(g.LonDeg-tc.lon) > 1e-6 {
			t.Errorf("lon %.4f: round trip gave %.8f", tc.lon, g.LonDeg)
		}
		if math.Abs(g.AltM-tc.altM) > 0.01 {
			t.Errorf("alt %.1f m: round trip gave %.4f", tc.altM, g.AltM)
		}
	}
}
