package transform

import (
	"math"

	"github.com/geraldgg/helioselene/internal/astro"
)

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Observer holds a ground station's geodetic location together with its
// precomputed ECEF position (km), reused across every step of a search.
type Observer struct {
	LatRad, LonRad float64
	AltKm          float64
	ECEF           astro.Vec3
}

// NewObserver builds an Observer from geodetic coordinates: latitude and
// longitude in degrees, altitude in meters above the WGS-84 ellipsoid.
func NewObserver(latDeg, lonDeg, altM float64) Observer {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	altKm := altM / 1000.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Observer{
		LatRad: lat,
		LonRad: lon,
		AltKm:  altKm,
		ECEF: astro.Vec3{
			X: (n + altKm) * cosLat * math.Cos(lon),
			Y: (n + altKm) * cosLat * math.Sin(lon),
			Z: (n*(1-wgs84E2) + altKm) * sinLat,
		},
	}
}

// Horizontal is a direction in the observer's horizon frame plus the slant
// range to the target.
type Horizontal struct {
	AltDeg  float64 // 0 = horizon, 90 = zenith, negative below horizon
	AzDeg   float64 // 0 = North, clockwise, [0, 360)
	RangeKm float64
}

// Topocentric rotates the ECEF vector from the observer to a target into the
// SEZ (South-East-Zenith) frame. The target position is in km ECEF.
func (o Observer) Topocentric(target astro.Vec3) astro.Vec3 {
	return o.SEZ(target.Sub(o.ECEF))
}

// SEZ rotates an observer-relative ECEF vector into the SEZ frame.
func (o Observer) SEZ(d astro.Vec3) astro.Vec3 {
	sinLat := math.Sin(o.LatRad)
	cosLat := math.Cos(o.LatRad)
	sinLon := math.Sin(o.LonRad)
	cosLon := math.Cos(o.LonRad)

	return astro.Vec3{
		X: sinLat*cosLon*d.X + sinLat*sinLon*d.Y - cosLat*d.Z, // South
		Y: -sinLon*d.X + cosLon*d.Y,                           // East
		Z: cosLat*cosLon*d.X + cosLat*sinLon*d.Y + sinLat*d.Z, // Zenith
	}
}

// LookAngles computes altitude, azimuth and slant range from the observer to
// a target given in km ECEF.
//
// Azimuth is measured clockwise from North; directly at a pole of the SEZ
// frame (target at zenith or nadir) azimuth is undefined and reported as 0.
func (o Observer) LookAngles(target astro.Vec3) Horizontal {
	return o.LookAnglesRelative(target.Sub(o.ECEF))
}

// LookAnglesRelative is LookAngles for a vector already expressed relative to
// the observer in ECEF.
func (o Observer) LookAnglesRelative(rel astro.Vec3) Horizontal {
	sez := o.SEZ(rel)
	rng := sez.Norm()
	if rng == 0 {
		return Horizontal{AltDeg: 90, AzDeg: 0, RangeKm: 0}
	}

	alt := math.Asin(sez.Z / rng)

	// North = −South, so az = atan2(east, −south).
	var az float64
	if sez.X == 0 && sez.Y == 0 {
		az = 0
	} else {
		az = math.Atan2(sez.Y, -sez.X)
		if az < 0 {
			az += 2 * math.Pi
		}
	}

	return Horizontal{
		AltDeg:  alt * 180.0 / math.Pi,
		AzDeg:   az * 180.0 / math.Pi,
		RangeKm: rng,
	}
}

// Geodetic holds a geodetic position: degrees and meters.
type Geodetic struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts an ECEF position (km) back to geodetic coordinates
// with the iterative Bowring method. Converges in 2-3 iterations for Earth
// orbits; 5 are run.
func ECEFToGeodetic(pos astro.Vec3) Geodetic {
	lon := math.Atan2(pos.Y, pos.X)
	p := math.Hypot(pos.X, pos.Y)

	lat := math.Atan2(pos.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(pos.Z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var altKm float64
	if math.Abs(cosLat) > 1e-10 {
		altKm = p/cosLat - n
	} else {
		altKm = math.Abs(pos.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   altKm * 1000.0,
	}
}
