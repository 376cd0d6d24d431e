package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00).
const J2000 = 2451545.0

// JulianCentury is the number of days in a Julian century.
const JulianCentury = 36525.0

// JulianDate converts a UTC instant to Julian Date.
// Uses the standard astronomical algorithm (Meeus Ch. 7), valid for all
// Gregorian-calendar dates this program will ever see.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Treat January and February as months 13/14 of the previous year.
	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5

	frac := (float64(t.Hour()) +
		float64(t.Minute())/60.0 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600.0) / 24.0

	return jd + frac
}

// GMST returns Greenwich Mean Sidereal Time in radians for the given
// Julian Date, normalized to [0, 2π).
//
// IAU-82 polynomial (Vallado Eq. 3-45, degree form), with T in Julian
// centuries of UT1 since J2000.0:
//
//	θ = 280.46061837 + 360.98564736629·(JD−2451545) + 0.000387933·T² − T³/38710000
func GMST(jd float64) float64 {
	tc := (jd - J2000) / JulianCentury

	deg := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*tc*tc -
		tc*tc*tc/38710000.0

	rad := math.Mod(deg*math.Pi/180.0, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

// GMSTAt is a convenience wrapper computing GMST directly from a UTC instant.
func GMSTAt(t time.Time) float64 {
	return GMST(JulianDate(t))
}
