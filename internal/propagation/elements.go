package propagation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/geraldgg/helioselene/internal/astro"
)

// Elements holds the mean orbital elements decoded from a two-line element
// set, with angles in radians and mean motion in radians per minute.
// Immutable after parsing.
type Elements struct {
	NoradID      int
	Epoch        time.Time
	EpochJD      float64
	BStar        float64
	Inclination  float64 // rad
	RAAN         float64 // rad
	Eccentricity float64
	ArgPerigee   float64 // rad
	MeanAnomaly  float64 // rad
	MeanMotion   float64 // rad/min (Kozai)
}

// PeriodMinutes returns the unperturbed orbital period implied by the mean
// motion. Used to select the near-Earth vs deep-space propagation branch.
func (e Elements) PeriodMinutes() float64 {
	return 2 * math.Pi / e.MeanMotion
}

const tleLineLen = 69

// ParseTLE decodes and validates a two-line element set.
// Both lines must be exactly 69 characters, carry the correct line number
// and matching catalog numbers, and pass the modulo-10 checksum.
func ParseTLE(line1, line2 string) (Elements, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != tleLineLen {
		return Elements{}, &TLEFormatError{Line: 1, Reason: fmt.Sprintf("length %d, expected %d", len(line1), tleLineLen)}
	}
	if len(line2) != tleLineLen {
		return Elements{}, &TLEFormatError{Line: 2, Reason: fmt.Sprintf("length %d, expected %d", len(line2), tleLineLen)}
	}
	if line1[0] != '1' {
		return Elements{}, &TLEFormatError{Line: 1, Reason: fmt.Sprintf("must start with '1', got %q", line1[0])}
	}
	if line2[0] != '2' {
		return Elements{}, &TLEFormatError{Line: 2, Reason: fmt.Sprintf("must start with '2', got %q", line2[0])}
	}
	if err := verifyChecksum(line1, 1); err != nil {
		return Elements{}, err
	}
	if err := verifyChecksum(line2, 2); err != nil {
		return Elements{}, err
	}
	if line1[2:7] != line2[2:7] {
		return Elements{}, &TLEFormatError{Reason: fmt.Sprintf("catalog numbers differ: %q vs %q", line1[2:7], line2[2:7])}
	}

	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 1, Reason: fmt.Sprintf("catalog number %q: %v", line1[2:7], err)}
	}

	epoch, err := parseEpoch(line1[18:32])
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 1, Reason: err.Error()}
	}

	bstar, err := parseImpliedExp(line1[53:61])
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 1, Reason: fmt.Sprintf("bstar field %q: %v", line1[53:61], err)}
	}

	incl, err := parseField(line2[8:16], "inclination")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	raan, err := parseField(line2[17:25], "RAAN")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	// Eccentricity has an implied leading decimal point.
	ecc, err := parseField("0."+strings.TrimSpace(line2[26:33]), "eccentricity")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	argp, err := parseField(line2[34:42], "argument of perigee")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	ma, err := parseField(line2[43:51], "mean anomaly")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	mm, err := parseField(line2[52:63], "mean motion")
	if err != nil {
		return Elements{}, &TLEFormatError{Line: 2, Reason: err.Error()}
	}
	if mm <= 0 {
		return Elements{}, &TLEFormatError{Line: 2, Reason: fmt.Sprintf("mean motion %g rev/day is not positive", mm)}
	}

	const deg2rad = math.Pi / 180.0
	return Elements{
		NoradID:      noradID,
		Epoch:        epoch,
		EpochJD:      astro.JulianDate(epoch),
		BStar:        bstar,
		Inclination:  incl * deg2rad,
		RAAN:         raan * deg2rad,
		Eccentricity: ecc,
		ArgPerigee:   argp * deg2rad,
		MeanAnomaly:  ma * deg2rad,
		MeanMotion:   mm * 2 * math.Pi / minutesPerDay,
	}, nil
}

// verifyChecksum checks the TLE modulo-10 checksum: the sum of all digits
// plus one per minus sign over columns 1-68 must match column 69.
func verifyChecksum(line string, lineNo int) error {
	sum := 0
	for _, c := range line[:tleLineLen-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	want := int(line[tleLineLen-1] - '0')
	if want < 0 || want > 9 {
		return &TLEFormatError{Line: lineNo, Reason: fmt.Sprintf("checksum column is %q, not a digit", line[tleLineLen-1])}
	}
	if sum%10 != want {
		return &TLEFormatError{Line: lineNo, Reason: fmt.Sprintf("checksum mismatch: computed %d, stated %d", sum%10, want)}
	}
	return nil
}

// parseEpoch converts the YYDDD.DDDDDDDD epoch field to a UTC instant.
// Years 00-56 map to 2000s, 57-99 to 1900s.
func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch field %q too short", s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %v", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %v", s[2:], err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %g out of range", dayOfYear)
	}

	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	// Day 1 is January 1. Nanosecond arithmetic keeps sub-second precision.
	return t.Add(time.Duration((dayOfYear - 1) * 24 * float64(time.Hour))), nil
}

// parseImpliedExp decodes the TLE's compact exponent notation,
// e.g. " 20935-3" → 0.20935e-3.
func parseImpliedExp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	expIdx := strings.LastIndexAny(s, "+-")
	if expIdx <= 0 {
		// No exponent part (some historical TLEs write "00000-0" as "00000+0"
		// but a bare mantissa also appears); treat as plain value.
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return v, nil
	}
	mant := s[:expIdx]
	exp := s[expIdx:]

	sign := 1.0
	if strings.HasPrefix(mant, "-") {
		sign = -1
		mant = mant[1:]
	} else {
		mant = strings.TrimPrefix(mant, "+")
	}
	m, err := strconv.ParseFloat("0."+mant, 64)
	if err != nil {
		return 0, fmt.Errorf("mantissa %q: %v", mant, err)
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0, fmt.Errorf("exponent %q: %v", exp, err)
	}
	return sign * m * math.Pow(10, float64(e)), nil
}

func parseField(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s field %q: %v", name, s, err)
	}
	return v, nil
}
