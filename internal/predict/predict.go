// Package predict is the call boundary of the prediction core: it validates
// a request, runs the alignment search, and serializes the result to the
// canonical wire schema. Validation and propagation failures fail the whole
// call; an empty event list is a valid non-error outcome.
package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/geraldgg/helioselene/internal/propagation"
	"github.com/geraldgg/helioselene/internal/transform"
	"github.com/geraldgg/helioselene/internal/transit"
)

// Stable error codes surfaced to the HTTP layer and the CLI.
const (
	CodeInvalidTLE        = "invalid_tle"
	CodeMissingField      = "missing_field"
	CodeLatitudeRange     = "latitude_out_of_range"
	CodeLongitudeRange    = "longitude_out_of_range"
	CodeWindowInverted    = "window_not_after_start"
	CodePropagationFailed = "propagation_failed"
)

// ValidationError is a rejected request. Code is stable; Message is for
// humans.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Request is one prediction call. The window is inclusive; MaxDistanceKm = 0
// disables the reachable classification.
type Request struct {
	TLELine1 string
	TLELine2 string

	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeM    float64

	Start time.Time
	End   time.Time

	MaxDistanceKm float64

	// Optional observational knobs; zero means package default.
	MinAltitudeDeg float64
	NearMarginDeg  float64
	Workers        int
	SatelliteName  string
}

// Validate checks the request without running it.
func (r Request) Validate() error {
	if r.LatitudeDeg < -90 || r.LatitudeDeg > 90 {
		return &ValidationError{Code: CodeLatitudeRange,
			Message: fmt.Sprintf("latitude %.4f outside [-90, 90]", r.LatitudeDeg)}
	}
	if r.LongitudeDeg < -180 || r.LongitudeDeg > 180 {
		return &ValidationError{Code: CodeLongitudeRange,
			Message: fmt.Sprintf("longitude %.4f outside [-180, 180]", r.LongitudeDeg)}
	}
	if !r.End.After(r.Start) {
		return &ValidationError{Code: CodeWindowInverted,
			Message: fmt.Sprintf("window end %v not after start %v", r.End, r.Start)}
	}
	if _, err := propagation.ParseTLE(r.TLELine1, r.TLELine2); err != nil {
		return &ValidationError{Code: CodeInvalidTLE, Message: err.Error(), Err: err}
	}
	return nil
}

// Run validates the request and executes the search. The returned events are
// sorted by time; an empty slice means nothing was visible.
func Run(ctx context.Context, req Request) ([]transit.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	el, err := propagation.ParseTLE(req.TLELine1, req.TLELine2)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidTLE, Message: err.Error(), Err: err}
	}
	prop, err := propagation.NewPropagator(el)
	if err != nil {
		return nil, &ValidationError{Code: CodePropagationFailed, Message: err.Error(), Err: err}
	}

	obs := transform.NewObserver(req.LatitudeDeg, req.LongitudeDeg, req.AltitudeM)
	eng := transit.NewEngine(prop, obs, transit.Config{
		MinAltitudeDeg: req.MinAltitudeDeg,
		NearMarginDeg:  req.NearMarginDeg,
		MaxDistanceKm:  req.MaxDistanceKm,
		Workers:        req.Workers,
		SatelliteName:  req.SatelliteName,
	})

	events, err := eng.Search(ctx, req.Start.UTC(), req.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("transit search: %w", err)
	}
	return events, nil
}
