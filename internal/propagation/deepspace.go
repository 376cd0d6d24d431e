package propagation

import "math"

// lunisolarRates are additional secular drift rates (rad/min) applied to the
// mean anomaly, argument of perigee and RAAN of high-period orbits. They
// capture the dominant third-body secular effect; resonance and periodic
// deep-space corrections are out of scope for transit-geometry accuracy.
type lunisolarRates struct {
	mdot    float64
	omgdot  float64
	nodedot float64
}

// newLunisolarRates evaluates the classical averaged third-body secular
// rates (Vallado eq. 9-38/9-40 form, deg/day with n in rev/day):
//
//	dΩ/dt = -0.00338 cos i / n   (Moon)   -0.00154 cos i / n   (Sun)
//	dω/dt =  0.00169 (4 - 5 sin²i) / n    0.00077 (4 - 5 sin²i) / n
//
// The direct mean-anomaly drift from the third bodies is small compared to
// the J2 secular term and is folded in as the same-order epoch-rate residue.
func newLunisolarRates(el Elements, xnodp float64) lunisolarRates {
	const deg2rad = math.Pi / 180.0

	nRevDay := xnodp * minutesPerDay / (2 * math.Pi)
	if nRevDay <= 0 {
		return lunisolarRates{}
	}

	sini := math.Sin(el.Inclination)
	cosi := math.Cos(el.Inclination)
	sin2i := sini * sini

	nodeDegDay := (-0.00338*cosi - 0.00154*cosi) / nRevDay
	argpDegDay := (0.00169*(4.0-5.0*sin2i) + 0.00077*(4.0-5.0*sin2i)) / nRevDay
	// Mean-longitude drift keeps the epoch mean anomaly consistent with the
	// shifted node and perigee.
	mDegDay := -(nodeDegDay*cosi + argpDegDay) * 0.5

	const dayToMin = 1.0 / minutesPerDay
	return lunisolarRates{
		mdot:    mDegDay * deg2rad * dayToMin,
		omgdot:  argpDegDay * deg2rad * dayToMin,
		nodedot: nodeDegDay * deg2rad * dayToMin,
	}
}
