// Package coach runs the full analysis pipeline over one session
// capture and turns the numbers into prioritized coaching points.
package coach

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lapsight-data/lapsight/internal/compare"
	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/ibt"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// disruptedCutoff excludes laps with traffic, offs or mistakes big
// enough to poison the comparison: anything 10% or more over the
// session's fastest lap.
const disruptedCutoff = 1.10

// maxRecommendations caps the coaching points per session; more than
// three and the driver works on none of them.
const maxRecommendations = 3

// techniqueDeltaThreshold separates a real technique finding from
// lap-to-lap noise when the session-level analysis is inconclusive.
const techniqueDeltaThreshold = 0.3

// CornerNamer resolves detected corners to their real-world names for
// a track. Implementations are expected to be fuzzy: detected spans
// rarely line up exactly with published corner boundaries.
type CornerNamer interface {
	CornerNames(trackID int, trackName string, seg corners.Segmentation) (map[int]string, error)
}

// LapSummary is one lap's time and whether it was excluded as disrupted.
type LapSummary struct {
	LapNumber int     `json:"lap_number"`
	LapTime   float64 `json:"lap_time"`
	Disrupted bool    `json:"disrupted"`
}

// Recommendation is one prioritized coaching point.
type Recommendation struct {
	Priority     int     `json:"priority"`
	CornerNumber int     `json:"corner_number,omitempty"`
	CornerName   string  `json:"corner_name,omitempty"`
	Category     string  `json:"category"`
	TimeDelta    float64 `json:"time_delta"`
	Message      string  `json:"message"`
}

// Analysis is the complete coaching output for one session.
type Analysis struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Session   ibt.Session `json:"session"`
	TrackType string      `json:"track_type"`

	Laps          []LapSummary `json:"laps"`
	ReferenceLap  int          `json:"reference_lap"`
	ComparisonLap int          `json:"comparison_lap"`

	Segmentation      corners.Segmentation        `json:"segmentation"`
	Comparison        compare.Comparison          `json:"comparison"`
	Theoretical       compare.TheoreticalBest     `json:"theoretical"`
	Consistency       compare.Consistency         `json:"consistency"`
	CornerConsistency []compare.CornerConsistency `json:"corner_consistency"`
	Recommendations   []Recommendation            `json:"recommendations"`

	// Full traces of the two compared laps, kept for chart rendering
	// but left out of the JSON payload.
	ReferenceTrace  telemetry.NormalizedLap `json:"-"`
	ComparisonTrace telemetry.NormalizedLap `json:"-"`
}

// Coach wires the pipeline stages together.
type Coach struct {
	normalizer *telemetry.Normalizer
	namer      CornerNamer
	tuning     func(corners.DetectionParams) corners.DetectionParams
}

// New returns a Coach with the default grid interval. namer may be nil;
// corners then keep their detected numbers only.
func New(namer CornerNamer) *Coach {
	return &Coach{
		normalizer: telemetry.NewNormalizer(telemetry.DefaultDistanceInterval),
		namer:      namer,
	}
}

// SetTuning installs a detection-parameter override layered onto the
// track-type preset for every analysis.
func (c *Coach) SetTuning(f func(corners.DetectionParams) corners.DetectionParams) {
	c.tuning = f
}

// AnalyzeSession parses a raw .ibt capture and runs the full pipeline.
func (c *Coach) AnalyzeSession(data []byte, trackType corners.TrackType) (*Analysis, error) {
	capture, err := ibt.Parse(data, nil)
	if err != nil {
		return nil, err
	}
	rawLaps, err := ibt.Laps(capture)
	if err != nil {
		return nil, err
	}
	laps := c.normalizer.NormalizeSession(rawLaps, capture.Session.TrackLengthM)
	return c.AnalyzeLaps(capture.Session, len(rawLaps), laps, trackType)
}

// AnalyzeLaps runs the pipeline from normalized laps on: disrupted-lap
// filtering, reference selection, corner detection, comparison and
// recommendations. totalLaps is the pre-validation lap count, used only
// for error reporting.
func (c *Coach) AnalyzeLaps(session ibt.Session, totalLaps int, laps []telemetry.NormalizedLap, trackType corners.TrackType) (*Analysis, error) {
	kept, summaries := filterDisrupted(laps)
	if len(kept) < 2 {
		return nil, &InsufficientDataError{TotalLaps: totalLaps, ValidLaps: len(kept)}
	}

	ref, comp := selectLaps(kept)

	params := corners.ParamsFor(trackType)
	if c.tuning != nil {
		params = c.tuning(params)
	}
	seg := corners.NewDetector(params).Detect(ref)
	c.nameCorners(session, &seg)

	comparison := compare.Laps(ref, comp, seg)
	theoretical := compare.Theoretical(kept, seg)
	consistency := compare.Consistent(kept)
	cornerStats := compare.ConsistencyAnalysis(kept, seg)

	return &Analysis{
		ID:                uuid.NewString(),
		GeneratedAt:       time.Now().UTC(),
		Session:           session,
		TrackType:         trackType.String(),
		Laps:              summaries,
		ReferenceLap:      ref.LapNumber,
		ComparisonLap:     comp.LapNumber,
		Segmentation:      seg,
		Comparison:        comparison,
		Theoretical:       theoretical,
		Consistency:       consistency,
		CornerConsistency: cornerStats,
		Recommendations:   recommend(comparison, cornerStats),
		ReferenceTrace:    ref,
		ComparisonTrace:   comp,
	}, nil
}

// filterDisrupted drops laps slower than the cutoff relative to the
// session's fastest, keeping a summary row for every lap either way.
func filterDisrupted(laps []telemetry.NormalizedLap) ([]telemetry.NormalizedLap, []LapSummary) {
	if len(laps) == 0 {
		return nil, nil
	}
	fastest := laps[0].LapTime
	for _, lap := range laps[1:] {
		if lap.LapTime < fastest {
			fastest = lap.LapTime
		}
	}

	var kept []telemetry.NormalizedLap
	summaries := make([]LapSummary, 0, len(laps))
	for _, lap := range laps {
		disrupted := !(lap.LapTime < fastest*disruptedCutoff)
		summaries = append(summaries, LapSummary{
			LapNumber: lap.LapNumber,
			LapTime:   lap.LapTime,
			Disrupted: disrupted,
		})
		if !disrupted {
			kept = append(kept, lap)
		}
	}
	// Summary order is a defined sort key, not capture order, so output
	// stays deterministic however the laps arrive.
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].LapTime < summaries[j].LapTime })
	return kept, summaries
}

// selectLaps picks the fastest lap as reference and the median lap as
// comparison; when the median is the reference itself (two-lap
// sessions sorted the wrong way round), the slowest stands in.
func selectLaps(laps []telemetry.NormalizedLap) (ref, comp telemetry.NormalizedLap) {
	sorted := make([]telemetry.NormalizedLap, len(laps))
	copy(sorted, laps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LapTime < sorted[j].LapTime })

	ref = sorted[0]
	comp = sorted[len(sorted)/2]
	if comp.LapNumber == ref.LapNumber {
		comp = sorted[len(sorted)-1]
	}
	return ref, comp
}

// nameCorners asks the namer for real corner names. Failures are soft:
// the analysis proceeds with numbered corners.
func (c *Coach) nameCorners(session ibt.Session, seg *corners.Segmentation) {
	if c.namer == nil || len(seg.Corners) == 0 {
		return
	}
	names, err := c.namer.CornerNames(session.TrackID, session.TrackName, *seg)
	if err != nil {
		log.Printf("corner naming failed for track %q: %v", session.TrackName, err)
		return
	}
	for i := range seg.Corners {
		if name, ok := names[seg.Corners[i].Number]; ok {
			seg.Corners[i].Name = name
		}
	}
}

// recommend picks the corners with the largest time deltas and phrases
// each as a coaching point, classified by that corner's own transit-time
// consistency.
func recommend(comparison compare.Comparison, cornerStats []compare.CornerConsistency) []Recommendation {
	ranked := make([]compare.CornerDelta, len(comparison.Corners))
	copy(ranked, comparison.Corners)
	sort.Slice(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].TimeDelta) > math.Abs(ranked[j].TimeDelta)
	})
	if len(ranked) > maxRecommendations {
		ranked = ranked[:maxRecommendations]
	}

	statsByNumber := make(map[int]compare.CornerConsistency, len(cornerStats))
	for _, cc := range cornerStats {
		statsByNumber[cc.CornerNumber] = cc
	}

	out := make([]Recommendation, 0, len(ranked))
	for i, cd := range ranked {
		out = append(out, Recommendation{
			Priority:     i + 1,
			CornerNumber: cd.CornerNumber,
			CornerName:   cd.Name,
			Category:     classify(cd, statsByNumber[cd.CornerNumber]),
			TimeDelta:    cd.TimeDelta,
			Message:      message(cd),
		})
	}
	return out
}

func classify(cd compare.CornerDelta, cc compare.CornerConsistency) string {
	switch {
	case cc.ConsistencyIssue:
		return "consistency"
	case cc.TechniqueIssue:
		return "technique"
	case math.Abs(cd.TimeDelta) > techniqueDeltaThreshold:
		return "technique"
	default:
		return "minor"
	}
}

// message phrases one corner delta as advice, leading with the largest
// observable difference in inputs.
func message(cd compare.CornerDelta) string {
	label := fmt.Sprintf("turn %d", cd.CornerNumber)
	if cd.Name != "" {
		label = cd.Name
	}

	var hint string
	switch {
	case cd.CompBrakingPoint < cd.RefBrakingPoint-5:
		hint = fmt.Sprintf("braking %.0f m earlier than the reference lap", cd.RefBrakingPoint-cd.CompBrakingPoint)
	case cd.CompApexSpeed < cd.RefApexSpeed-1:
		hint = fmt.Sprintf("carrying %.1f m/s less through the apex", cd.RefApexSpeed-cd.CompApexSpeed)
	case cd.CompThrottlePoint > cd.RefThrottlePoint+5:
		hint = fmt.Sprintf("back on power %.0f m later than the reference lap", cd.CompThrottlePoint-cd.RefThrottlePoint)
	default:
		hint = "entry and exit match the reference closely"
	}

	if cd.TimeDelta >= 0 {
		return fmt.Sprintf("Losing %.2fs in %s: %s.", cd.TimeDelta, label, hint)
	}
	return fmt.Sprintf("Gaining %.2fs in %s: %s.", -cd.TimeDelta, label, hint)
}
