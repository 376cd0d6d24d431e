// Package transform converts between the coordinate frames of the prediction
// chain: TEME (the SGP4 output frame), ECEF, and the observer's topocentric
// horizon frame.
//
// TEME to ECEF is the simplified Vallado-style rotation about the Z axis by
// GMST (TEME → PEF ≈ ECEF). Polar motion and the equation of the equinoxes
// are ignored, which costs tens of meters at the ground, far below the
// arcminute scale that matters for transit geometry.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"

	"github.com/geraldgg/helioselene/internal/astro"
)

// OmegaEarth is Earth's rotation rate in rad/s.
const OmegaEarth = 7.292115e-5

// StateECEF is a position (km) and velocity (km/s) in the Earth-fixed frame.
type StateECEF struct {
	Position astro.Vec3
	Velocity astro.Vec3
}

// TEMEToECEF rotates a TEME position/velocity into ECEF at the given UTC
// instant. Position and velocity stay in km and km/s.
func TEMEToECEF(pos, vel astro.Vec3, t time.Time) StateECEF {
	return TEMEToECEFWithGMST(pos, vel, astro.GMSTAt(t))
}

// TEMEToECEFWithGMST is TEMEToECEF with a precomputed GMST angle (radians),
// for callers transforming several vectors at the same instant.
//
//	r_ECEF = R3(θ) r_TEME
//	v_ECEF = R3(θ) v_TEME − ω × r_ECEF
func TEMEToECEFWithGMST(pos, vel astro.Vec3, gmst float64) StateECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	r := astro.Vec3{
		X: pos.X*cosG + pos.Y*sinG,
		Y: -pos.X*sinG + pos.Y*cosG,
		Z: pos.Z,
	}

	// ω × r_ECEF = (−ω·ry, ω·rx, 0)
	v := astro.Vec3{
		X: vel.X*cosG + vel.Y*sinG + OmegaEarth*r.Y,
		Y: -vel.X*sinG + vel.Y*cosG - OmegaEarth*r.X,
		Z: vel.Z,
	}

	return StateECEF{Position: r, Velocity: v}
}

// ECEFToTEME is the inverse position rotation, used by the ephemeris layer
// (geocentric body vectors are computed inertially) and in round-trip checks.
func ECEFToTEME(pos astro.Vec3, gmst float64) astro.Vec3 {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)
	return astro.Vec3{
		X: pos.X*cosG - pos.Y*sinG,
		Y: pos.X*sinG + pos.Y*cosG,
		Z: pos.Z,
	}
}
