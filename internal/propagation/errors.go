package propagation

import (
	"fmt"
	"strconv"
)

// TLEFormatError reports a two-line element set that failed format or
// checksum validation. The whole prediction call is rejected; a malformed
// element set can never be partially propagated.
type TLEFormatError struct {
	Line   int // 1 or 2, 0 when the problem spans both
	Reason string
}

func (e *TLEFormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("invalid TLE: %s", e.Reason)
	}
	return fmt.Sprintf("invalid TLE line %d: %s", e.Line, e.Reason)
}

// PropagationError reports that the SGP4 model diverged for the given
// element set: Kepler iteration non-convergence, a decayed orbit, or
// perturbed elements leaving the model's validity region. The trajectory is
// unusable for the whole window, so callers must fail the entire search.
type PropagationError struct {
	NoradID   int
	TsinceMin float64 // minutes since element epoch
	Reason    string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("sgp4 propagation failed for NORAD %d at tsince=%.2f min: %s",
		e.NoradID, e.TsinceMin, e.Reason)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
func itoa(v int) string     { return strconv.Itoa(v) }
