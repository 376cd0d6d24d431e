// Package transit finds the instants at which a satellite crosses, or nearly
// crosses, the apparent disc of the Sun or Moon for a ground observer.
//
// The search is a coarse scan over the window followed by bracket refinement
// of each candidate minimum: during the coarse pass every sample where the
// satellite is above the altitude gate, the body is above the horizon, and
// the angular separation is inside the acceptance cone joins a candidate run;
// the separation minima of each run are refined down to sub-second resolution
// and classified. Refinements that resolve to the same physical event are
// merged, keeping the smallest separation.
package transit

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/geraldgg/helioselene/internal/astro"
	"github.com/geraldgg/helioselene/internal/ephemeris"
	"github.com/geraldgg/helioselene/internal/propagation"
	"github.com/geraldgg/helioselene/internal/transform"
)

const rad2deg = 180.0 / math.Pi

// Config carries the observational knobs of a search. Zero values fall back
// to the package defaults; MaxDistanceKm = 0 disables the reachable class.
type Config struct {
	Bodies []ephemeris.Body // defaults to Sun and Moon

	CoarseStep   time.Duration
	FineStep     time.Duration
	RefineWindow time.Duration

	MinAltitudeDeg float64
	NearMarginDeg  float64
	MaxDistanceKm  float64

	// Workers bounds the refinement pool; 0 or 1 runs serially. The result
	// is identical either way.
	Workers int

	SatelliteName string
	SatDimensionM float64

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if len(c.Bodies) == 0 {
		c.Bodies = []ephemeris.Body{ephemeris.Sun, ephemeris.Moon}
	}
	if c.CoarseStep <= 0 {
		c.CoarseStep = DefaultCoarseStep
	}
	if c.FineStep <= 0 {
		c.FineStep = DefaultFineStep
	}
	if c.RefineWindow <= 0 {
		c.RefineWindow = DefaultRefineWindow
	}
	if c.MinAltitudeDeg == 0 {
		c.MinAltitudeDeg = DefaultMinAltitudeDeg
	}
	if c.NearMarginDeg == 0 {
		c.NearMarginDeg = DefaultNearMarginDeg
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.SatDimensionM <= 0 {
		c.SatDimensionM = DefaultSatDimensionM
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Engine runs alignment searches for one satellite and one observer.
// Immutable after construction; safe for concurrent Search calls.
type Engine struct {
	prop *propagation.Propagator
	obs  transform.Observer
	cfg  Config
	log  *slog.Logger
}

// NewEngine builds an engine from an initialized propagator, an observer and
// a config.
func NewEngine(prop *propagation.Propagator, obs transform.Observer, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{prop: prop, obs: obs, cfg: cfg, log: cfg.Logger}
}

// sample is the full alignment geometry at one instant: observer-relative
// TEME vectors to the satellite and the body, their horizon coordinates, the
// angular separation and the body's apparent radius.
type sample struct {
	t        time.Time
	satTopo  astro.Vec3
	bodyTopo astro.Vec3
	satHz    transform.Horizontal
	bodyHz   transform.Horizontal
	sepRad   float64
	radRad   float64
}

func (e *Engine) sampleAt(t time.Time, body ephemeris.Body) (sample, error) {
	sv, err := e.prop.PropagateAt(t)
	if err != nil {
		return sample{}, err
	}

	jd := astro.JulianDate(t)
	gmst := astro.GMST(jd)

	obsTEME := transform.ECEFToTEME(e.obs.ECEF, gmst)
	satTopo := sv.Position.Sub(obsTEME)
	bodyTopo := body.PositionECI(jd).Sub(obsTEME)

	satRel := transform.TEMEToECEFWithGMST(satTopo, astro.Vec3{}, gmst).Position
	bodyRel := transform.TEMEToECEFWithGMST(bodyTopo, astro.Vec3{}, gmst).Position

	sep, err := astro.AngleBetween(satTopo, bodyTopo)
	if err != nil {
		return sample{}, err
	}

	return sample{
		t:        t,
		satTopo:  satTopo,
		bodyTopo: bodyTopo,
		satHz:    e.obs.LookAnglesRelative(satRel),
		bodyHz:   e.obs.LookAnglesRelative(bodyRel),
		sepRad:   sep,
		radRad:   ephemeris.AngularRadius(body.RadiusKm(), bodyTopo.Norm()),
	}, nil
}

// Search scans [start, end] and returns every classified event, sorted by
// time. An empty slice is a normal outcome. A propagation failure aborts the
// whole search: a trajectory that diverges anywhere in the window cannot be
// trusted elsewhere in it.
func (e *Engine) Search(ctx context.Context, start, end time.Time) ([]Event, error) {
	var candidates []candidate
	for _, body := range e.cfg.Bodies {
		c, err := e.scanBody(ctx, body, start, end)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c...)
	}

	refined, err := e.refineAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	// Refinement can wander past the window edge; only events strictly
	// inside the requested window are reported.
	events := make([]Event, 0, len(refined))
	for _, ev := range refined {
		if !ev.Time.Before(start) && !ev.Time.After(end) {
			events = append(events, ev)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].Body < events[j].Body
	})
	return dedup(events), nil
}

type candidate struct {
	body ephemeris.Body
	t    time.Time
}

// scanBody walks the window at the coarse step and returns the local
// separation minima of every qualifying run, including run-boundary minima.
func (e *Engine) scanBody(ctx context.Context, body ephemeris.Body, start, end time.Time) ([]candidate, error) {
	var out []candidate

	// Separations and times of the current qualifying run.
	var seps []float64
	var times []time.Time

	flush := func() {
		for _, i := range localMinima(seps) {
			out = append(out, candidate{body: body, t: times[i]})
		}
		seps = seps[:0]
		times = times[:0]
	}

	for t := start; !t.After(end); t = t.Add(e.cfg.CoarseStep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := e.sampleAt(t, body)
		if err != nil {
			return nil, err
		}

		sepDeg := s.sepRad * rad2deg
		radDeg := s.radRad * rad2deg
		qualifies := s.satHz.AltDeg >= e.cfg.MinAltitudeDeg &&
			s.bodyHz.AltDeg >= 0 &&
			sepDeg <= radDeg+e.cfg.NearMarginDeg+extraCandidateMarginDeg

		if qualifies {
			seps = append(seps, s.sepRad)
			times = append(times, t)
		} else if len(seps) > 0 {
			flush()
		}
	}
	flush()
	return out, nil
}

// localMinima returns the indices of strict local minima, treating the run
// boundaries as minima when the trend is monotone into them.
func localMinima(seps []float64) []int {
	n := len(seps)
	switch n {
	case 0:
		return nil
	case 1:
		return []int{0}
	}
	var idx []int
	for i := range seps {
		switch i {
		case 0:
			if seps[0] <= seps[1] {
				idx = append(idx, 0)
			}
		case n - 1:
			if seps[n-1] < seps[n-2] {
				idx = append(idx, n-1)
			}
		default:
			if seps[i] <= seps[i-1] && seps[i] < seps[i+1] {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

// refineAll refines every candidate, in a bounded worker pool when configured.
// Results are re-sorted afterwards, so sharding cannot change the output.
func (e *Engine) refineAll(ctx context.Context, candidates []candidate) ([]Event, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	type result struct {
		ev  Event
		ok  bool
		err error
	}

	workers := e.cfg.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan candidate, workers)
	results := make(chan result, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				ev, ok, err := e.refineAndClassify(c.body, c.t)
				select {
				case results <- result{ev: ev, ok: ok, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range candidates {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var events []Event
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		if r.ok {
			events = append(events, r.ev)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// refine narrows the bracket around a coarse candidate: each level scans the
// current window at the current step, recenters on the minimum and shrinks
// both. Three levels take the 1 s first pass below a tenth of a second.
func (e *Engine) refine(body ephemeris.Body, center time.Time) (sample, error) {
	best, err := e.sampleAt(center, body)
	if err != nil {
		return sample{}, err
	}

	window := e.cfg.RefineWindow
	step := e.cfg.FineStep
	for depth := 0; depth < maxRefineDepth && step > 0; depth++ {
		n := int(window / step)
		for i := -n; i <= n; i++ {
			if i == 0 {
				continue
			}
			s, err := e.sampleAt(best.t.Add(time.Duration(i)*step), body)
			if err != nil {
				return sample{}, err
			}
			if s.sepRad < best.sepRad {
				best = s
			}
		}
		window = 2 * step
		step = step / 4
	}
	return best, nil
}

func (e *Engine) refineAndClassify(body ephemeris.Body, t time.Time) (Event, bool, error) {
	min, err := e.refine(body, t)
	if err != nil {
		return Event{}, false, err
	}

	sepDeg := min.sepRad * rad2deg
	radDeg := min.radRad * rad2deg
	satRange := min.satTopo.Norm()

	kind, ok := Classify(sepDeg, radDeg, e.cfg.NearMarginDeg, satRange, min.bodyHz.AltDeg, e.cfg.MaxDistanceKm)
	if !ok {
		return Event{}, false, nil
	}

	mv, err := e.motionAt(body, min.t)
	if err != nil {
		return Event{}, false, err
	}

	var angSizeArcsec float64
	if satRange > 0 {
		angSizeArcsec = (e.cfg.SatDimensionM / 1000.0 / satRange) * rad2deg * 3600.0
	}

	ev := Event{
		Time:                 min.t,
		Body:                 body,
		Kind:                 kind,
		Satellite:            e.cfg.SatelliteName,
		SeparationArcmin:     sepDeg * 60.0,
		TargetRadiusArcmin:   radDeg * 60.0,
		DurationS:            TransitDuration(sepDeg, radDeg, mv.speedDegPerS),
		SatAltDeg:            min.satHz.AltDeg,
		SatAzDeg:             min.satHz.AzDeg,
		TargetAltDeg:         min.bodyHz.AltDeg,
		SatDistanceKm:        satRange,
		SatAngularSizeArcsec: angSizeArcsec,
		SpeedDegPerS:         mv.speedDegPerS,
		SpeedArcminPerS:      mv.speedDegPerS * 60.0,
		VelocityAltDegPerS:   mv.velAltDegPerS,
		VelocityAzDegPerS:    mv.velAzDegPerS,
		MotionDirectionDeg:   mv.directionDeg,
	}

	e.log.Debug("event classified",
		"kind", kind.String(),
		"body", body.String(),
		"time", min.t,
		"separation_arcmin", ev.SeparationArcmin,
	)
	return ev, true, nil
}

// Classify maps a refined minimum to an event kind. The second return is
// false when the approach is not worth reporting.
//
// Precedence: transit, then reachable, then near. A miss is reachable when
// the ground displacement that would put the observer on the transit path
// (the limb offset d−r converted to a great-circle distance through the
// satellite's slant range) fits the caller's travel budget and the body is
// above the horizon. A non-positive disc radius never classifies as a
// transit.
func Classify(sepDeg, radiusDeg, nearMarginDeg, slantRangeKm, bodyAltDeg, maxDistanceKm float64) (Kind, bool) {
	if radiusDeg > 0 && sepDeg <= radiusDeg {
		return KindTransit, true
	}
	if maxDistanceKm > 0 && slantRangeKm > 0 && bodyAltDeg >= 0 {
		offDeg := sepDeg - math.Max(radiusDeg, 0)
		if offDeg/rad2deg*slantRangeKm <= maxDistanceKm {
			return KindReachable, true
		}
	}
	if sepDeg <= radiusDeg+nearMarginDeg {
		return KindNear, true
	}
	return 0, false
}

// TransitDuration is the disc-crossing time implied by the chord geometry:
// 2·sqrt(r² − d²) / speed. Zero when there is no crossing or no motion.
func TransitDuration(sepDeg, radiusDeg, speedDegPerS float64) float64 {
	if speedDegPerS <= 0 || radiusDeg <= 0 || sepDeg > radiusDeg {
		return 0
	}
	rsq := radiusDeg * radiusDeg
	dsq := sepDeg * sepDeg
	if dsq >= rsq {
		return 0
	}
	return 2.0 * math.Sqrt(rsq-dsq) / speedDegPerS
}

type motion struct {
	speedDegPerS  float64
	velAltDegPerS float64
	velAzDegPerS  float64
	directionDeg  float64
}

// motionAt estimates the apparent motion at t by a centered finite difference
// of the horizon coordinates one fine step either side.
func (e *Engine) motionAt(body ephemeris.Body, t time.Time) (motion, error) {
	dt := e.cfg.FineStep.Seconds()
	before, err := e.sampleAt(t.Add(-e.cfg.FineStep), body)
	if err != nil {
		return motion{}, err
	}
	after, err := e.sampleAt(t.Add(e.cfg.FineStep), body)
	if err != nil {
		return motion{}, err
	}

	dAz := after.satHz.AzDeg - before.satHz.AzDeg
	// Crossing north wraps azimuth; take the short way around.
	if dAz > 180 {
		dAz -= 360
	} else if dAz < -180 {
		dAz += 360
	}

	velAlt := (after.satHz.AltDeg - before.satHz.AltDeg) / (2 * dt)
	velAz := dAz / (2 * dt)

	// Great-circle speed from the unit direction vectors.
	speed := 0.0
	if sep, err := astro.AngleBetween(horizonUnit(before.satHz), horizonUnit(after.satHz)); err == nil {
		speed = sep * rad2deg / (2 * dt)
	}

	dir := math.Atan2(velAz, velAlt) * rad2deg
	if dir < 0 {
		dir += 360
	}

	return motion{
		speedDegPerS:  speed,
		velAltDegPerS: velAlt,
		velAzDegPerS:  velAz,
		directionDeg:  dir,
	}, nil
}

func horizonUnit(h transform.Horizontal) astro.Vec3 {
	alt := h.AltDeg / rad2deg
	az := h.AzDeg / rad2deg
	return astro.Vec3{
		X: math.Cos(alt) * math.Cos(az),
		Y: math.Cos(alt) * math.Sin(az),
		Z: math.Sin(alt),
	}
}

// dedup merges events of the same body whose refined instants fall within the
// dedup window, keeping the smaller separation. Input must be time-sorted.
// A merge can move a kept event's instant forward past an event of the other
// body, so the merged list is re-sorted before it is returned.
func dedup(events []Event) []Event {
	if len(events) == 0 {
		return []Event{}
	}
	out := make([]Event, 0, len(events))
	lastByBody := map[ephemeris.Body]int{}
	for _, ev := range events {
		if i, seen := lastByBody[ev.Body]; seen {
			prev := out[i]
			if ev.Time.Sub(prev.Time) < dedupEpsilon {
				if ev.SeparationArcmin < prev.SeparationArcmin {
					out[i] = ev
				}
				continue
			}
		}
		out = append(out, ev)
		lastByBody[ev.Body] = len(out) - 1
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Body < out[j].Body
	})
	return out
}
