package predict

import (
	"encoding/json"
	"time"

	"github.com/geraldgg/helioselene/internal/transit"
)

// wireEvent is the canonical snake_case event schema. Field order matches
// the published schema; clients depend on the keys, not the order.
type wireEvent struct {
	TimeUTC              string  `json:"time_utc"`
	Body                 string  `json:"body"`
	Kind                 string  `json:"kind"`
	Satellite            string  `json:"satellite"`
	SeparationArcmin     float64 `json:"separation_arcmin"`
	TargetRadiusArcmin   float64 `json:"target_radius_arcmin"`
	DurationS            float64 `json:"duration_s"`
	SatAltDeg            float64 `json:"sat_alt_deg"`
	SatAzDeg             float64 `json:"sat_az_deg"`
	TargetAltDeg         float64 `json:"target_alt_deg"`
	SatDistanceKm        float64 `json:"sat_distance_km"`
	SatAngularSizeArcsec float64 `json:"sat_angular_size_arcsec"`
	SpeedDegPerS         float64 `json:"speed_deg_per_s"`
	SpeedArcminPerS      float64 `json:"speed_arcmin_per_s"`
	VelocityAltDegPerS   float64 `json:"velocity_alt_deg_per_s"`
	VelocityAzDegPerS    float64 `json:"velocity_az_deg_per_s"`
	MotionDirectionDeg   float64 `json:"motion_direction_deg"`
}

// Encode serializes events as the canonical UTF-8 JSON array. An empty or
// nil slice encodes as [], never null.
func Encode(events []transit.Event) ([]byte, error) {
	wire := make([]wireEvent, len(events))
	for i, ev := range events {
		wire[i] = wireEvent{
			TimeUTC:              ev.Time.UTC().Format(time.RFC3339Nano),
			Body:                 ev.Body.String(),
			Kind:                 ev.Kind.String(),
			Satellite:            ev.Satellite,
			SeparationArcmin:     ev.SeparationArcmin,
			TargetRadiusArcmin:   ev.TargetRadiusArcmin,
			DurationS:            ev.DurationS,
			SatAltDeg:            ev.SatAltDeg,
			SatAzDeg:             ev.SatAzDeg,
			TargetAltDeg:         ev.TargetAltDeg,
			SatDistanceKm:        ev.SatDistanceKm,
			SatAngularSizeArcsec: ev.SatAngularSizeArcsec,
			SpeedDegPerS:         ev.SpeedDegPerS,
			SpeedArcminPerS:      ev.SpeedArcminPerS,
			VelocityAltDegPerS:   ev.VelocityAltDegPerS,
			VelocityAzDegPerS:    ev.VelocityAzDegPerS,
			MotionDirectionDeg:   ev.MotionDirectionDeg,
		}
	}
	return json.Marshal(wire)
}
