package transit

import "time"

// Search tunables. The defaults reproduce the behavior the event catalog was
// validated against; Config lets callers override the observational knobs
// (minimum altitude, near margin, travel distance) without touching the
// numerical ones.
const (
	// DefaultCoarseStep is the scan resolution of the first pass. A LEO
	// satellite crosses the ~2.5° candidate cone in well over 20 s, so no
	// alignment can slip between samples.
	DefaultCoarseStep = 20 * time.Second

	// DefaultFineStep is the refinement resolution of the first bracket.
	DefaultFineStep = time.Second

	// DefaultRefineWindow is the half-width searched around a coarse
	// candidate.
	DefaultRefineWindow = 60 * time.Second

	// maxRefineDepth bounds the bracket-narrowing recursion; three levels
	// take the 1 s first pass down to ~60 ms resolution.
	maxRefineDepth = 3

	// DefaultMinAltitudeDeg gates candidates on satellite altitude.
	DefaultMinAltitudeDeg = 5.0

	// DefaultNearMarginDeg widens the disc for "near" classification.
	DefaultNearMarginDeg = 0.5

	// extraCandidateMarginDeg widens the coarse-scan acceptance cone beyond
	// disc + near margin so refinement can pull a minimum inside it.
	extraCandidateMarginDeg = 2.0

	// dedupEpsilon merges refined minima that resolve to the same physical
	// event.
	dedupEpsilon = 120 * time.Second

	// DefaultSatDimensionM is the satellite's largest dimension, used only
	// for the reported apparent size (ISS solar-array span).
	DefaultSatDimensionM = 108.0
)
