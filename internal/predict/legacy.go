package predict

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// wireRequest is the canonical JSON request schema.
type wireRequest struct {
	TLE1          string  `json:"tle1"`
	TLE2          string  `json:"tle2"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	AltM          float64 `json:"alt_m"`
	StartEpoch    int64   `json:"start_epoch"`
	EndEpoch      int64   `json:"end_epoch"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	Satellite     string  `json:"satellite"`
}

// legacyFieldAliases translates request spellings accepted by earlier client
// generations to the canonical keys. This table is the only place historical
// names exist; the core schema never sees them.
var legacyFieldAliases = map[string]string{
	// v0 mobile clients
	"tle_line1":    "tle1",
	"tle_line2":    "tle2",
	"latitude":     "lat",
	"longitude":    "lon",
	"altitude":     "alt_m",
	"altitude_m":   "alt_m",
	"start":        "start_epoch",
	"end":          "end_epoch",
	"max_distance": "max_distance_km",
	// v1 web client
	"line1":          "tle1",
	"line2":          "tle2",
	"observer_lat":   "lat",
	"observer_lon":   "lon",
	"observer_alt_m": "alt_m",
	"window_start":   "start_epoch",
	"window_end":     "end_epoch",
	"max_travel_km":  "max_distance_km",
	"satellite_name": "satellite",
}

// requiredFields are the canonical keys every request document must carry.
// Observer position and the window have no sensible defaults; leaving one
// out must fail the call, never place the observer at 0,0.
var requiredFields = []string{"lat", "lon", "alt_m", "start_epoch", "end_epoch"}

// DecodeRequest parses a JSON request document, accepting both the canonical
// schema and the legacy aliases. A document carrying both an alias and its
// canonical key with different values is rejected, as is one missing any
// required field.
func DecodeRequest(data []byte) (Request, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}

	canonical := make(map[string]json.RawMessage, len(raw))
	for key, val := range raw {
		name := key
		if alias, isLegacy := legacyFieldAliases[key]; isLegacy {
			name = alias
		}
		if prev, dup := canonical[name]; dup && string(prev) != string(val) {
			return Request{}, fmt.Errorf("decode request: conflicting values for %q", name)
		}
		canonical[name] = val
	}

	var missing []string
	for _, name := range requiredFields {
		if _, present := canonical[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Request{}, &ValidationError{
			Code:    CodeMissingField,
			Message: "missing required field(s): " + strings.Join(missing, ", "),
		}
	}

	merged, err := json.Marshal(canonical)
	if err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	var wr wireRequest
	if err := json.Unmarshal(merged, &wr); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}

	return Request{
		TLELine1:      wr.TLE1,
		TLELine2:      wr.TLE2,
		LatitudeDeg:   wr.Lat,
		LongitudeDeg:  wr.Lon,
		AltitudeM:     wr.AltM,
		Start:         time.Unix(wr.StartEpoch, 0).UTC(),
		End:           time.Unix(wr.EndEpoch, 0).UTC(),
		MaxDistanceKm: wr.MaxDistanceKm,
		SatelliteName: wr.Satellite,
	}, nil
}
