// Command helioselene predicts solar and lunar transits of a satellite for a
// ground site and prints them as a table or as JSON.
//
// Usage:
//
//	helioselene -lat 48.7868 -lon 2.4981 -alt 36 -days 7
//	helioselene -sat tiangong -max-distance-km 50 -json
//	helioselene -tle-file iss.txt -days 14
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/geraldgg/helioselene/internal/predict"
	"github.com/geraldgg/helioselene/internal/tle"
	"github.com/geraldgg/helioselene/internal/transit"
)

func main() {
	var (
		lat           = flag.Float64("lat", 48.7868, "observer latitude in degrees")
		lon           = flag.Float64("lon", 2.4981, "observer longitude in degrees")
		altM          = flag.Float64("alt", 36, "observer altitude in meters")
		days          = flag.Float64("days", 7, "length of the search window in days")
		minAlt        = flag.Float64("alt-min", transit.DefaultMinAltitudeDeg, "minimum satellite altitude in degrees")
		nearMargin    = flag.Float64("near-margin", transit.DefaultNearMarginDeg, "near-miss margin in degrees")
		maxDistanceKm = flag.Float64("max-distance-km", 0, "report misses reachable within this travel distance (0 disables)")
		satName       = flag.String("sat", "iss", "catalog satellite to predict")
		tleFile       = flag.String("tle-file", "", "read the element set from this file instead of fetching")
		asJSON        = flag.Bool("json", false, "emit events as JSON instead of a table")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()

	sat, ok := tle.ByName(*satName)
	if !ok && *tleFile == "" {
		fmt.Fprintf(os.Stderr, "unknown satellite %q; known: %s\n", *satName, catalogNames())
		os.Exit(2)
	}

	entry, err := resolveTLE(ctx, logger, sat, *tleFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	start := time.Now().UTC()
	req := predict.Request{
		TLELine1:       entry.Line1,
		TLELine2:       entry.Line2,
		LatitudeDeg:    *lat,
		LongitudeDeg:   *lon,
		AltitudeM:      *altM,
		Start:          start,
		End:            start.Add(time.Duration(*days * 24 * float64(time.Hour))),
		MaxDistanceKm:  *maxDistanceKm,
		MinAltitudeDeg: *minAlt,
		NearMarginDeg:  *nearMargin,
		SatelliteName:  entry.Name,
	}

	events, err := predict.Run(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if *asJSON {
		out, err := predict.Encode(events)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		fmt.Println()
		return
	}

	printTable(os.Stdout, entry.Name, req, events)
}

// resolveTLE loads the element set from a file when given, otherwise fetches
// the named satellite from Celestrak.
func resolveTLE(ctx context.Context, logger *slog.Logger, sat tle.Satellite, tleFile string) (tle.Entry, error) {
	if tleFile != "" {
		f, err := os.Open(tleFile)
		if err != nil {
			return tle.Entry{}, err
		}
		defer f.Close()

		entries, err := tle.Parse(f, logger)
		if err != nil {
			return tle.Entry{}, err
		}
		if len(entries) == 0 {
			return tle.Entry{}, fmt.Errorf("no valid element set in %s", tleFile)
		}
		return entries[0], nil
	}

	fetcher := tle.NewFetcher("")
	data, err := fetcher.Fetch(ctx, sat.NoradID)
	if err != nil {
		return tle.Entry{}, err
	}
	entries, err := tle.Parse(strings.NewReader(string(data)), logger)
	if err != nil {
		return tle.Entry{}, err
	}
	for _, e := range entries {
		if e.NoradID == sat.NoradID {
			return e, nil
		}
	}
	return tle.Entry{}, fmt.Errorf("fetched data has no element set for %s (%d)", sat.Name, sat.NoradID)
}

func catalogNames() string {
	names := make([]string, 0, len(tle.Catalog))
	for _, s := range tle.Catalog {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

func printTable(w *os.File, satName string, req predict.Request, events []transit.Event) {
	fmt.Fprintf(w, "%s transits for %.4f, %.4f (%s to %s)\n",
		satName, req.LatitudeDeg, req.LongitudeDeg,
		req.Start.Format("2006-01-02 15:04"), req.End.Format("2006-01-02 15:04"))

	if len(events) == 0 {
		fmt.Fprintln(w, "no events found")
		return
	}

	fmt.Fprintf(w, "%-20s %-5s %-9s %8s %8s %7s %7s %7s %9s\n",
		"TIME (UTC)", "BODY", "KIND", "SEP'", "RADIUS'", "ALT", "AZ", "DUR s", "DIST km")
	for _, ev := range events {
		fmt.Fprintf(w, "%-20s %-5s %-9s %8.2f %8.2f %7.1f %7.1f %7.2f %9.0f\n",
			ev.Time.UTC().Format("2006-01-02 15:04:05"),
			ev.Body, ev.Kind,
			ev.SeparationArcmin, ev.TargetRadiusArcmin,
			ev.SatAltDeg, ev.SatAzDeg,
			ev.DurationS, ev.SatDistanceKm)
	}
}
