package transit

import (
	"time"

	"github.com/geraldgg/helioselene/internal/ephemeris"
)

// Kind classifies a refined close approach.
type Kind int

const (
	// KindTransit: the satellite crosses the body's apparent disc.
	KindTransit Kind = iota
	// KindNear: the minimum separation misses the disc by at most the near
	// margin.
	KindNear
	// KindReachable: the miss is larger, but an observer within the caller's
	// travel distance would see a transit.
	KindReachable
)

func (k Kind) String() string {
	switch k {
	case KindTransit:
		return "transit"
	case KindNear:
		return "near"
	case KindReachable:
		return "reachable"
	default:
		return "unknown"
	}
}

// Event is one predicted alignment at its instant of minimum angular
// separation. Angles follow the observer's horizon frame; the motion fields
// describe the satellite's apparent track across the sky at that instant.
type Event struct {
	Time      time.Time
	Body      ephemeris.Body
	Kind      Kind
	Satellite string

	SeparationArcmin   float64
	TargetRadiusArcmin float64
	// DurationS is the disc-crossing time for transits, 0 otherwise.
	DurationS float64

	SatAltDeg    float64
	SatAzDeg     float64
	TargetAltDeg float64

	SatDistanceKm        float64
	SatAngularSizeArcsec float64

	SpeedDegPerS       float64
	SpeedArcminPerS    float64
	VelocityAltDegPerS float64
	VelocityAzDegPerS  float64
	// MotionDirectionDeg is the bearing of apparent motion: 0 = toward
	// zenith-north, 90 = toward east, clockwise.
	MotionDirectionDeg float64
}
