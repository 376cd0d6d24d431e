// Package propagation implements the SGP4-class simplified perturbation
// model: two-line mean elements in, TEME state vectors out.
//
// The near-Earth branch is the standard Spacetrack Report #3 formulation
// (secular J2/J3 and drag, long- and short-period periodics, Newton-Raphson
// Kepler solve). Orbits with a period of 225 minutes or more additionally
// carry approximate lunisolar secular drift rates; resonance and periodic
// deep-space terms are outside the model's accuracy contract, which only
// covers transit geometry.
package propagation

import (
	"math"
	"time"

	"github.com/geraldgg/helioselene/internal/astro"
)

// SGP4 gravitational and geodetic constants (WGS-72, the constants the TLE
// mean elements are fitted against).
const (
	xkmper        = 6378.135 // Earth equatorial radius, km
	ae            = 1.0      // distance unit, Earth radii
	j2            = 1.082616e-3
	j3            = -2.53881e-6
	j4            = -1.65597e-6
	minutesPerDay = 1440.0
	s0            = 78.0  // density function altitude parameter, km
	q0            = 120.0 // density function altitude bound, km

	keplerTol     = 1e-12
	keplerMaxIter = 10

	// Orbital period at and above which the deep-space branch is selected.
	deepSpacePeriodMin = 225.0
)

var (
	xke    = 60.0 / math.Sqrt(xkmper*xkmper*xkmper/398600.8)
	ck2    = 0.5 * j2 * ae * ae
	ck4    = -0.375 * j4 * ae * ae * ae * ae
	qoms2t = math.Pow((q0-s0)/xkmper, 4)
	a3ovk2 = -j3 / ck2
)

// StateVector is the satellite position (km) and velocity (km/s) in the
// TEME frame at a given instant. Produced fresh on every Propagate call.
type StateVector struct {
	Position astro.Vec3
	Velocity astro.Vec3
}

// Propagator holds the SGP4 constants derived once from a set of mean
// elements. Immutable after construction; safe for concurrent use.
type Propagator struct {
	el Elements

	// Recovered Brouwer elements.
	aodp  float64 // semi-major axis, Earth radii
	xnodp float64 // mean motion, rad/min

	cosio, sinio           float64
	x3thm1, x1mth2, x7thm1 float64
	eta                    float64
	c1, c4, c5             float64
	xmdot, omgdot, xnodot  float64
	xnodcf, t2cof          float64
	xlcof, aycof           float64
	omgcof, xmcof          float64
	delmo, sinmo           float64
	d2, d3, d4             float64
	t3cof, t4cof, t5cof    float64

	simple bool // perigee < 220 km: drop the higher-order drag terms

	deepSpace bool
	lunisolar lunisolarRates
}

// NewPropagator derives the SGP4 constants from the given mean elements.
// Degenerate element sets (eccentricity outside [0,1), sub-surface perigee,
// non-positive recovered semi-major axis) fail here rather than producing
// garbage coordinates later.
func NewPropagator(el Elements) (*Propagator, error) {
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return nil, &PropagationError{NoradID: el.NoradID,
			Reason: "eccentricity " + ftoa(el.Eccentricity) + " outside [0,1): not an elliptical orbit"}
	}

	p := &Propagator{el: el}

	// Recover the Brouwer mean motion and semi-major axis from the Kozai
	// mean motion in the element set.
	a1 := math.Pow(xke/el.MeanMotion, 2.0/3.0)
	p.cosio = math.Cos(el.Inclination)
	p.sinio = math.Sin(el.Inclination)
	theta2 := p.cosio * p.cosio
	p.x3thm1 = 3.0*theta2 - 1.0
	eosq := el.Eccentricity * el.Eccentricity
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)

	del1 := 1.5 * ck2 * p.x3thm1 / (a1 * a1 * betao * betao2)
	ao := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+134.0/81.0*del1)))
	delo := 1.5 * ck2 * p.x3thm1 / (ao * ao * betao * betao2)
	p.xnodp = el.MeanMotion / (1.0 + delo)
	p.aodp = ao / (1.0 - delo)

	if p.aodp <= 0 {
		return nil, &PropagationError{NoradID: el.NoradID,
			Reason: "recovered semi-major axis " + ftoa(p.aodp) + " ER is not positive"}
	}

	perigeeKm := (p.aodp*(1.0-el.Eccentricity) - ae) * xkmper
	if perigeeKm < 0 {
		return nil, &PropagationError{NoradID: el.NoradID,
			Reason: "perigee " + ftoa(perigeeKm) + " km below Earth's surface: orbit decayed or elements invalid"}
	}

	period := 2 * math.Pi / p.xnodp
	if period >= deepSpacePeriodMin {
		p.deepSpace = true
		p.lunisolar = newLunisolarRates(el, p.xnodp)
	}

	// Low-perigee adjustment of the density function constants.
	s4 := s0
	qoms24 := qoms2t
	if perigeeKm < 156.0 {
		s4 = perigeeKm - s0
		if perigeeKm < 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((q0-s4)/xkmper, 4)
		s4 = s4/xkmper + ae
	} else {
		s4 = s4/xkmper + ae
	}
	p.simple = perigeeKm < 220.0

	pinvsq := 1.0 / (p.aodp * p.aodp * betao2 * betao2)
	tsi := 1.0 / (p.aodp - s4)
	p.eta = p.aodp * el.Eccentricity * tsi
	etasq := p.eta * p.eta
	eeta := el.Eccentricity * p.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qoms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * p.xnodp *
		(p.aodp*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
			0.75*ck2*tsi/psisq*p.x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	p.c1 = el.BStar * c2

	p.x1mth2 = 1.0 - theta2
	p.x7thm1 = 7.0*theta2 - 1.0

	var c3 float64
	if el.Eccentricity > 1e-4 {
		c3 = coef * tsi * a3ovk2 * p.xnodp * ae * p.sinio / el.Eccentricity
	}
	p.c4 = 2.0 * p.xnodp * coef1 * p.aodp * betao2 *
		(p.eta*(2.0+0.5*etasq) + el.Eccentricity*(0.5+2.0*etasq) -
			2.0*ck2*tsi/(p.aodp*psisq)*
				(-3.0*p.x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*p.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*el.ArgPerigee)))
	p.c5 = 2.0 * coef1 * p.aodp * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * p.xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * p.xnodp
	p.xmdot = p.xnodp + 0.5*temp1*betao*p.x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)
	x1m5th := 1.0 - 5.0*theta2
	p.omgdot = -0.5*temp1*x1m5th +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)
	xhdot1 := -temp1 * p.cosio
	p.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+2.0*temp3*(3.0-7.0*theta2))*p.cosio

	p.omgcof = el.BStar * c3 * math.Cos(el.ArgPerigee)
	if el.Eccentricity > 1e-4 {
		p.xmcof = -2.0 / 3.0 * coef * el.BStar * ae / eeta
	}
	p.xnodcf = 3.5 * betao2 * xhdot1 * p.c1
	p.t2cof = 1.5 * p.c1
	// Guard the 1/(1+cosio) pole at 180-degree inclination.
	div := 1.0 + p.cosio
	if math.Abs(div) < 1.5e-12 {
		div = 1.5e-12
	}
	p.xlcof = 0.125 * a3ovk2 * p.sinio * (3.0 + 5.0*p.cosio) / div
	p.aycof = 0.25 * a3ovk2 * p.sinio
	p.delmo = math.Pow(1.0+p.eta*math.Cos(el.MeanAnomaly), 3)
	p.sinmo = math.Sin(el.MeanAnomaly)

	if !p.simple {
		c1sq := p.c1 * p.c1
		p.d2 = 4.0 * p.aodp * tsi * c1sq
		temp := p.d2 * tsi * p.c1 / 3.0
		p.d3 = (17.0*p.aodp + s4) * temp
		p.d4 = 0.5 * temp * p.aodp * tsi * (221.0*p.aodp + 31.0*s4) * p.c1
		p.t3cof = p.d2 + 2.0*c1sq
		p.t4cof = 0.25 * (3.0*p.d3 + p.c1*(12.0*p.d2+10.0*c1sq))
		p.t5cof = 0.2 * (3.0*p.d4 + 12.0*p.c1*p.d3 + 6.0*p.d2*p.d2 + 15.0*c1sq*(2.0*p.d2+c1sq))
	}

	return p, nil
}

// Elements returns the mean elements this propagator was built from.
func (p *Propagator) Elements() Elements {
	return p.el
}

// DeepSpace reports whether the deep-space branch was selected.
func (p *Propagator) DeepSpace() bool {
	return p.deepSpace
}

// PropagateAt computes the TEME state vector at the given UTC instant.
func (p *Propagator) PropagateAt(t time.Time) (StateVector, error) {
	return p.Propagate(t.Sub(p.el.Epoch).Minutes())
}

// Propagate computes the TEME state vector tsince minutes after the element
// epoch. It is a pure function: no state is carried between calls.
func (p *Propagator) Propagate(tsince float64) (StateVector, error) {
	el := p.el

	// Secular gravity and drag.
	xmdf := el.MeanAnomaly + p.xmdot*tsince
	omgadf := el.ArgPerigee + p.omgdot*tsince
	xnoddf := el.RAAN + p.xnodot*tsince

	if p.deepSpace {
		xmdf += p.lunisolar.mdot * tsince
		omgadf += p.lunisolar.omgdot * tsince
		xnoddf += p.lunisolar.nodedot * tsince
	}

	omega := omgadf
	xmp := xmdf
	tsq := tsince * tsince
	xnode := xnoddf + p.xnodcf*tsq
	tempa := 1.0 - p.c1*tsince
	tempe := el.BStar * p.c4 * tsince
	templ := p.t2cof * tsq

	if !p.simple {
		delomg := p.omgcof * tsince
		var delm float64
		if p.eta != 0 {
			delm = p.xmcof * (math.Pow(1.0+p.eta*math.Cos(xmdf), 3) - p.delmo)
		}
		temp := delomg + delm
		xmp += temp
		omega -= temp

		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa = tempa - p.d2*tsq - p.d3*tcube - p.d4*tfour
		tempe += el.BStar * p.c5 * (math.Sin(xmp) - p.sinmo)
		templ += p.t3cof*tcube + tfour*(p.t4cof+tsince*p.t5cof)
	}

	a := p.aodp * tempa * tempa
	e := el.Eccentricity - tempe
	xl := xmp + omega + xnode + p.xnodp*templ

	if e <= -0.001 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "drag-perturbed eccentricity " + ftoa(e) + " below model limit"}
	} else if e < 1e-6 {
		e = 1e-6
	} else if e > 1.0-1e-6 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "perturbed eccentricity " + ftoa(e) + " near parabolic"}
	}
	if a <= 0 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "drag-perturbed semi-major axis " + ftoa(a) + " ER not positive: orbit decayed"}
	}

	beta2 := 1.0 - e*e
	xn := xke / math.Pow(a, 1.5)

	// Long-period periodics.
	axn := e * math.Cos(omega)
	temp11 := 1.0 / (a * beta2)
	xll := temp11 * p.xlcof * axn
	aynl := temp11 * p.aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl

	elsq := axn*axn + ayn*ayn
	if elsq >= 1.0 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "perturbed eccentricity vector magnitude >= 1"}
	}

	// Kepler's equation for the eccentric longitude, Newton-Raphson with a
	// capped first step. Non-convergence within the iteration budget is
	// reported, never silently truncated.
	capu := math.Mod(xlt-xnode, 2*math.Pi)
	epw := capu
	var sinepw, cosepw, ecose, esine float64
	maxStep := 1.25 * math.Sqrt(elsq)
	converged := false
	for i := 0; i < keplerMaxIter; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw

		f := capu - epw + esine
		if math.Abs(f) < keplerTol {
			converged = true
			break
		}

		fdot := 1.0 - ecose
		delta := f / fdot
		if i == 0 {
			if delta > maxStep {
				delta = maxStep
			} else if delta < -maxStep {
				delta = -maxStep
			}
		} else {
			// Second-order correction stabilizes high-eccentricity cases.
			delta = f / (fdot + 0.5*esine*delta)
		}
		epw += delta
	}
	if !converged {
		// The loop may have landed inside tolerance on its final update
		// without re-testing the residual.
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw
		if math.Abs(capu-epw+esine) >= 1e-6 {
			return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
				Reason: "Kepler iteration did not converge within " + itoa(keplerMaxIter) + " steps"}
		}
	}

	// Short-period preliminary quantities.
	temp21 := math.Max(1.0-elsq, 0.0)
	pl := a * temp21
	if pl <= 0 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "semi-latus rectum not positive"}
	}

	r := a * (1.0 - ecose)
	if r < 1e-9 {
		r = 1e-9
	}
	temp31 := 1.0 / r
	rdot := xke * math.Sqrt(a) * esine * temp31
	rfdot := xke * math.Sqrt(pl) * temp31

	temp32 := a * temp31
	betal := math.Sqrt(temp21)
	temp33 := 1.0 / (1.0 + betal)
	cosu := temp32 * (cosepw - axn + ayn*esine*temp33)
	sinu := temp32 * (sinepw - ayn - axn*esine*temp33)
	u := math.Atan2(sinu, cosu)
	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0

	// Short-period perturbations.
	temp41 := 1.0 / pl
	temp42 := ck2 * temp41
	temp43 := temp42 * temp41

	rk := r*(1.0-1.5*temp43*betal*p.x3thm1) + 0.5*temp42*p.x1mth2*cos2u
	uk := u - 0.25*temp43*p.x7thm1*sin2u
	xnodek := xnode + 1.5*temp43*p.cosio*sin2u
	xinck := el.Inclination + 1.5*temp43*p.cosio*p.sinio*cos2u
	rdotk := rdot - xn*temp42*p.x1mth2*sin2u
	rfdotk := rfdot + xn*temp42*(p.x1mth2*cos2u+1.5*p.x3thm1)

	if rk < 1.0 {
		return StateVector{}, &PropagationError{NoradID: el.NoradID, TsinceMin: tsince,
			Reason: "orbit radius " + ftoa(rk) + " ER inside Earth: satellite decayed"}
	}

	// Orientation vectors and the final TEME state.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)

	xmx := -sinnok * cosik
	xmy := cosnok * cosik

	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	vFactor := xkmper / 60.0
	return StateVector{
		Position: astro.Vec3{
			X: rk * ux * xkmper,
			Y: rk * uy * xkmper,
			Z: rk * uz * xkmper,
		},
		Velocity: astro.Vec3{
			X: (rdotk*ux + rfdotk*vx) * vFactor,
			Y: (rdotk*uy + rfdotk*vy) * vFactor,
			Z: (rdotk*uz + rfdotk*vz) * vFactor,
		},
	}, nil
}
