// Command analyze runs the coaching pipeline over one .ibt capture and
// prints a summary, with optional JSON, HTML and PNG outputs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/report"
	"github.com/lapsight-data/lapsight/internal/trackdb"
	"github.com/lapsight-data/lapsight/internal/units"
)

var (
	trackType = flag.String("track-type", "road", "Track type: road, street or oval")
	speedUnit = flag.String("speed-unit", units.MPS, "Speed unit for the summary: "+strings.Join(units.ValidUnits, ", "))
	jsonOut   = flag.String("json", "", "Write the full analysis as JSON to this file")
	htmlOut   = flag.String("html", "", "Write an interactive HTML report to this file")
	pngOut    = flag.String("png", "", "Write PNG trace plots into this directory")
	dbFile    = flag.String("db", "", "Optional sqlite database for corner names and history")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <capture.ibt>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	tt, err := corners.ParseTrackType(*trackType)
	if err != nil {
		log.Fatal(err)
	}
	if !units.IsValid(*speedUnit) {
		log.Fatalf("Unsupported speed unit %q (valid: %s)", *speedUnit, strings.Join(units.ValidUnits, ", "))
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read capture: %v", err)
	}

	var namer coach.CornerNamer
	var db *trackdb.DB
	if *dbFile != "" {
		db, err = trackdb.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		namer = trackdb.NewRegistry(db)
	}

	analysis, err := coach.New(namer).AnalyzeSession(data, tt)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printSummary(analysis, *speedUnit)

	if db != nil {
		if err := db.RecordAnalysis(analysis); err != nil {
			log.Printf("Failed to record analysis: %v", err)
		}
	}
	if *jsonOut != "" {
		if err := writeJSONFile(*jsonOut, analysis); err != nil {
			log.Fatalf("Failed to write JSON: %v", err)
		}
	}
	if *htmlOut != "" {
		f, err := os.Create(*htmlOut)
		if err != nil {
			log.Fatalf("Failed to create HTML report: %v", err)
		}
		err = report.RenderHTML(f, analysis, analysis.ReferenceTrace, analysis.ComparisonTrace)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to render HTML report: %v", err)
		}
	}
	if *pngOut != "" {
		files, err := report.SaveTracePlots(*pngOut, analysis, analysis.ReferenceTrace, analysis.ComparisonTrace)
		if err != nil {
			log.Fatalf("Failed to save plots: %v", err)
		}
		for _, f := range files {
			fmt.Printf("wrote %s\n", f)
		}
	}
}

func printSummary(a *coach.Analysis, speedUnit string) {
	fmt.Printf("%s / %s (%s)\n", a.Session.TrackName, a.Session.CarName, a.Session.SessionType)
	fmt.Printf("Driver: %s\n\n", a.Session.DriverName)

	for _, lap := range a.Laps {
		note := ""
		if lap.Disrupted {
			note = "  (disrupted, excluded)"
		}
		fmt.Printf("  lap %2d  %8.3fs%s\n", lap.LapNumber, lap.LapTime, note)
	}
	fmt.Printf("\nReference lap %d vs lap %d: %+.3fs over the common distance\n",
		a.ReferenceLap, a.ComparisonLap, a.Comparison.TotalDelta)

	for _, c := range a.Comparison.Corners {
		label := fmt.Sprintf("turn %d", c.CornerNumber)
		if c.Name != "" {
			label = c.Name
		}
		fmt.Printf("  %-24s %+.3fs  apex %6.1f vs %6.1f %s\n", label, c.TimeDelta,
			units.ConvertSpeed(c.RefApexSpeed, speedUnit),
			units.ConvertSpeed(c.CompApexSpeed, speedUnit), speedUnit)
	}
	fmt.Printf("Theoretical best: %.3fs (%.3fs under the fastest lap)\n",
		a.Theoretical.BestTime, a.Theoretical.Gap)
	fmt.Printf("Consistency: %.1f%% CV over %d laps\n\n",
		a.Consistency.CV*100, a.Consistency.LapCount)

	if len(a.Recommendations) == 0 {
		fmt.Println("No corner-level findings.")
		return
	}
	for _, r := range a.Recommendations {
		fmt.Printf("%d. [%s] %s\n", r.Priority, r.Category, r.Message)
	}
}

func writeJSONFile(path string, a *coach.Analysis) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
