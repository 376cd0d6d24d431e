// Package ephemeris computes geocentric Sun and Moon positions from compact
// analytic series. Accuracy is a few arcminutes, matched to the tolerance of
// the alignment search that consumes them; the varying Earth-Moon distance is
// carried explicitly because the Moon's apparent radius swings by more than a
// tenth between perigee and apogee.
package ephemeris

import (
	"math"

	"github.com/geraldgg/helioselene/internal/astro"
)

// Physical constants (km).
const (
	SunRadiusKm  = 696340.0
	MoonRadiusKm = 1737.4
	AUKm         = 149597870.7
)

// Body identifies a target celestial body.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	default:
		return "unknown"
	}
}

// RadiusKm returns the body's physical radius.
func (b Body) RadiusKm() float64 {
	if b == Sun {
		return SunRadiusKm
	}
	return MoonRadiusKm
}

// PositionECI returns the body's geocentric position (km) in the
// equator-of-date inertial frame at the given Julian Date. The frame is close
// enough to TEME that the same GMST rotation maps both to ECEF.
func (b Body) PositionECI(jd float64) astro.Vec3 {
	if b == Sun {
		return sunPositionECI(jd)
	}
	return moonPositionECI(jd)
}

// AngularRadius returns the apparent angular radius (radians) of a body of
// physical radius radiusKm seen from distanceKm away.
func AngularRadius(radiusKm, distanceKm float64) float64 {
	if distanceKm <= radiusKm {
		return math.Pi / 2
	}
	return math.Asin(radiusKm / distanceKm)
}

const deg2rad = math.Pi / 180.0

// sunPositionECI is the low-precision solar ephemeris of the Astronomical
// Almanac (accurate to ~0.01° over 1950-2050): mean longitude and anomaly,
// two-term equation of center, distance in AU from the same anomaly.
func sunPositionECI(jd float64) astro.Vec3 {
	d := jd - astro.J2000

	l := math.Mod(280.460+0.9856474*d, 360.0)
	g := math.Mod(357.528+0.9856003*d, 360.0) * deg2rad
	lambda := (l + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)) * deg2rad
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
	eps := (23.439 - 0.0000004*d) * deg2rad

	sinL := math.Sin(lambda)
	return astro.Vec3{
		X: r * math.Cos(lambda) * AUKm,
		Y: r * sinL * math.Cos(eps) * AUKm,
		Z: r * sinL * math.Sin(eps) * AUKm,
	}
}

// moonPositionECI is a truncated ELP-style lunar series: the five principal
// arguments, the largest longitude and latitude terms, and a four-term
// distance series around the 385000 km mean.
func moonPositionECI(jd float64) astro.Vec3 {
	t := (jd - astro.J2000) / astro.JulianCentury

	lp := (218.316 + 481267.881*t) * deg2rad // mean longitude
	d := (297.850 + 445267.115*t) * deg2rad  // mean elongation
	m := (357.529 + 35999.050*t) * deg2rad   // Sun mean anomaly
	mp := (134.963 + 477198.868*t) * deg2rad // Moon mean anomaly
	f := (93.272 + 483202.018*t) * deg2rad   // argument of latitude

	lambda := lp +
		6.289*deg2rad*math.Sin(mp) +
		1.274*deg2rad*math.Sin(2*d-mp) +
		0.658*deg2rad*math.Sin(2*d) +
		0.214*deg2rad*math.Sin(2*mp) -
		0.186*deg2rad*math.Sin(m)

	beta := 5.128*deg2rad*math.Sin(f) +
		0.280*deg2rad*math.Sin(mp+f)

	r := 385000.0 -
		20905.0*math.Cos(mp) -
		3699.0*math.Cos(2*d-mp) -
		2956.0*math.Cos(2*d) -
		570.0*math.Cos(2*mp)

	eps := (23.439291 - 0.0130042*t) * deg2rad

	sinL, cosL := math.Sin(lambda), math.Cos(lambda)
	sinB, cosB := math.Sin(beta), math.Cos(beta)
	sinE, cosE := math.Sin(eps), math.Cos(eps)

	return astro.Vec3{
		X: r * cosB * cosL,
		Y: r * (cosB*sinL*cosE - sinB*sinE),
		Z: r * (cosB*sinL*sinE + sinB*cosE),
	}
}
