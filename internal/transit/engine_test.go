package transit

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/geraldgg/helioselene/internal/ephemeris"
	"github.com/geraldgg/helioselene/internal/propagation"
	"github.com/geraldgg/helioselene/internal/transform"
)

const (
	issLine1 = "1 25544U 98067A   25278.49802050  .00011384  00000+0  20935-3 0  9990"
	issLine2 = "2 25544  51.6327 120.3420 0000884 206.2421 153.8523 15.49697304532279"
)

func newTestEngine(t *testing.T, latDeg, lonDeg, altM float64, cfg Config) *Engine {
	t.Helper()
	el, err := propagation.ParseTLE(issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseTLE: %v", err)
	}
	prop, err := propagation.NewPropagator(el)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	return NewEngine(prop, transform.NewObserver(latDeg, lonDeg, altM), cfg)
}

func issWindow() (time.Time, time.Time) {
	el, _ := propagation.ParseTLE(issLine1, issLine2)
	start := el.Epoch.Truncate(time.Second)
	return start, start.Add(7 * 24 * time.Hour)
}

func TestClassify_Boundaries(t *testing.T) {
	// Well inside the disc.
	kind, ok := Classify(4.0/60, 16.0/60, 0.5, 500, 30, 0)
	if !ok || kind != KindTransit {
		t.Errorf("d=4' r=16': kind=%v ok=%v, want transit", kind, ok)
	}

	// Exactly on the limb still counts as a transit.
	kind, ok = Classify(16.0/60, 16.0/60, 0.5, 500, 30, 0)
	if !ok || kind != KindTransit {
		t.Errorf("d=r: kind=%v ok=%v, want transit", kind, ok)
	}

	// Just outside the limb, within the margin.
	kind, ok = Classify(16.2/60, 16.0/60, 0.5, 500, 30, 0)
	if !ok || kind != KindNear {
		t.Errorf("limb+0.2': kind=%v ok=%v, want near", kind, ok)
	}

	// Outside disc and margin, no travel budget: discarded.
	if _, ok := Classify(25.0/60, 16.0/60, 0.5, 500, 30, 0); ok {
		t.Error("d=25' with no travel budget was not discarded")
	}

	// Same miss with a travel budget: reachable. The 9' limb offset at
	// 500 km slant range is ~1.3 km of ground travel.
	kind, ok = Classify(25.0/60, 16.0/60, 0.5, 500, 30, 50)
	if !ok || kind != KindReachable {
		t.Errorf("d=25' with 50 km budget: kind=%v ok=%v, want reachable", kind, ok)
	}

	// When a miss is both within the near margin and within the travel
	// budget, reachable wins.
	kind, ok = Classify(16.2/60, 16.0/60, 0.5, 500, 30, 50)
	if !ok || kind != KindReachable {
		t.Errorf("margin+budget miss: kind=%v ok=%v, want reachable", kind, ok)
	}

	// Reachable requires the body above the horizon.
	if _, ok := Classify(25.0/60, 16.0/60, 0.5, 500, -1, 50); ok {
		t.Error("reachable classified with the body below the horizon")
	}

	// A degenerate disc never yields a transit.
	kind, ok = Classify(0.001, 0, 0.5, 500, 30, 0)
	if ok && kind == KindTransit {
		t.Error("zero-radius disc classified as transit")
	}
}

func TestTransitDuration_Chord(t *testing.T) {
	// d=4, r=16, speed=1 (all in the same angular unit): the chord is
	// 2·sqrt(256−16) = 30.983866...
	got := TransitDuration(4, 16, 1)
	want := 2 * math.Sqrt(16*16-4*4)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("duration = %.9f, want %.9f", got, want)
	}

	// Central crossing: full diameter.
	if got := TransitDuration(0, 16, 2); math.Abs(got-16) > 1e-9 {
		t.Errorf("central crossing duration = %v, want 16", got)
	}

	if TransitDuration(25, 16, 1) != 0 {
		t.Error("miss produced a nonzero duration")
	}
	if TransitDuration(4, 16, 0) != 0 {
		t.Error("zero speed produced a nonzero duration")
	}
	if TransitDuration(0, -1, 1) != 0 {
		t.Error("negative radius produced a nonzero duration")
	}
}

func TestLocalMinima(t *testing.T) {
	cases := []struct {
		name string
		seps []float64
		want []int
	}{
		{"empty", nil, nil},
		{"single", []float64{1}, []int{0}},
		{"valley", []float64{3, 1, 2}, []int{1}},
		{"descending run ends in boundary minimum", []float64{3, 2, 1}, []int{2}},
		{"ascending run starts at boundary minimum", []float64{1, 2, 3}, []int{0}},
		{"two valleys", []float64{5, 1, 4, 2, 6}, []int{1, 3}},
	}
	for _, tc := range cases {
		got := localMinima(tc.seps)
		if len(got) != len(tc.want) {
			t.Errorf("%s: minima %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: minima %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}
}

func TestDedup_KeepsSmallestSeparation(t *testing.T) {
	t0 := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: t0, Body: ephemeris.Sun, SeparationArcmin: 5},
		{Time: t0.Add(30 * time.Second), Body: ephemeris.Sun, SeparationArcmin: 2},
		{Time: t0.Add(45 * time.Second), Body: ephemeris.Moon, SeparationArcmin: 9},
		{Time: t0.Add(10 * time.Minute), Body: ephemeris.Sun, SeparationArcmin: 7},
	}
	got := dedup(events)
	if len(got) != 3 {
		t.Fatalf("dedup kept %d events, want 3", len(got))
	}
	if got[0].SeparationArcmin != 2 {
		t.Errorf("merged sun event separation = %v, want the smaller 2", got[0].SeparationArcmin)
	}
	if got[1].Body != ephemeris.Moon {
		t.Error("moon event was merged into a sun event")
	}
	if got[2].SeparationArcmin != 7 {
		t.Error("distinct later sun event was merged away")
	}
}

func TestDedup_MergeKeepsChronologicalOrder(t *testing.T) {
	// A later, closer sun refinement merges into the earlier sun slot and
	// carries its timestamp forward past the moon event appended between
	// them; the result must still come back time-sorted.
	t0 := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: t0, Body: ephemeris.Sun, SeparationArcmin: 5},
		{Time: t0.Add(50 * time.Second), Body: ephemeris.Moon, SeparationArcmin: 9},
		{Time: t0.Add(100 * time.Second), Body: ephemeris.Sun, SeparationArcmin: 2},
	}
	got := dedup(events)
	if len(got) != 2 {
		t.Fatalf("dedup kept %d events, want 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time.Before(got[i-1].Time) {
			t.Fatalf("event %d at %v precedes event %d at %v", i, got[i].Time, i-1, got[i-1].Time)
		}
	}
	if got[0].Body != ephemeris.Moon {
		t.Errorf("first event body = %v, want moon", got[0].Body)
	}
	if got[1].SeparationArcmin != 2 {
		t.Errorf("merged sun separation = %v, want the smaller 2", got[1].SeparationArcmin)
	}
}

func TestSearch_WeekAtGroundSite(t *testing.T) {
	if testing.Short() {
		t.Skip("full-week scan")
	}
	eng := newTestEngine(t, 48.7868, 2.4981, 36, Config{MaxDistanceKm: 50})
	start, end := issWindow()

	events, err := eng.Search(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// A week of ISS passes over a mid-latitude site with a 50 km travel
	// budget always produces at least one reportable approach.
	if len(events) == 0 {
		t.Fatal("week-long scan found no events")
	}
	for i, ev := range events {
		if i > 0 && ev.Time.Before(events[i-1].Time) {
			t.Fatal("events not sorted by time")
		}
		if ev.SatAltDeg < DefaultMinAltitudeDeg-1.0 {
			t.Errorf("event %d below the altitude gate: %.2f°", i, ev.SatAltDeg)
		}
		if ev.TargetAltDeg < 0 {
			t.Errorf("event %d target below horizon: %.2f°", i, ev.TargetAltDeg)
		}
		if ev.Kind == KindTransit && ev.DurationS <= 0 {
			t.Errorf("event %d: transit with non-positive duration", i)
		}
		if ev.Kind != KindTransit && ev.DurationS != 0 {
			t.Errorf("event %d: non-transit with duration %v", i, ev.DurationS)
		}
		if ev.SeparationArcmin < 0 || math.IsNaN(ev.SeparationArcmin) {
			t.Errorf("event %d: bad separation %v", i, ev.SeparationArcmin)
		}
		if ev.SatAzDeg < 0 || ev.SatAzDeg >= 360 {
			t.Errorf("event %d: azimuth %v outside [0,360)", i, ev.SatAzDeg)
		}
		for j := i + 1; j < len(events); j++ {
			if events[j].Body == ev.Body && events[j].Time.Sub(ev.Time) < dedupEpsilon {
				t.Errorf("events %d and %d duplicate the same approach", i, j)
			}
		}
	}
}

func TestSearch_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("full-week scan")
	}
	eng := newTestEngine(t, 48.7868, 2.4981, 36, Config{MaxDistanceKm: 50})
	start, end := issWindow()

	a, err := eng.Search(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	b, err := eng.Search(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs returned %d vs %d events", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("event %d differs between identical runs", i)
		}
	}
}

func TestSearch_ParallelMatchesSerial(t *testing.T) {
	if testing.Short() {
		t.Skip("full-week scan")
	}
	serial := newTestEngine(t, 48.7868, 2.4981, 36, Config{MaxDistanceKm: 50, Workers: 1})
	parallel := newTestEngine(t, 48.7868, 2.4981, 36, Config{MaxDistanceKm: 50, Workers: 8})
	start, end := issWindow()

	a, err := serial.Search(context.Background(), start, end)
	if err != nil {
		t.Fatalf("serial Search: %v", err)
	}
	b, err := parallel.Search(context.Background(), start, end)
	if err != nil {
		t.Fatalf("parallel Search: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("serial found %d events, parallel %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("event %d differs between serial and parallel runs", i)
		}
	}
}

func TestSearch_PolarSiteEmptyNotNil(t *testing.T) {
	// A 51.6° inclination orbit never rises 5° above the horizon at the
	// pole: the week must come back empty, as a valid non-nil result.
	eng := newTestEngine(t, 89.9, 0, 0, Config{})
	start, _ := issWindow()

	events, err := eng.Search(context.Background(), start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if events == nil {
		t.Fatal("empty result is nil, want empty slice")
	}
	if len(events) != 0 {
		t.Errorf("polar site found %d events, want 0", len(events))
	}
}

func TestSearch_ContextCancel(t *testing.T) {
	eng := newTestEngine(t, 48.7868, 2.4981, 36, Config{})
	start, end := issWindow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Search(ctx, start, end); err == nil {
		t.Error("cancelled context did not abort the search")
	}
}

func TestKindStrings(t *testing.T) {
	if KindTransit.String() != "transit" || KindNear.String() != "near" || KindReachable.String() != "reachable" {
		t.Errorf("kind strings = %q %q %q", KindTransit, KindNear, KindReachable)
	}
}
