// Package compare measures where one lap loses time to another on the
// shared distance grid, per corner and cumulatively, and derives the
// session-level theoretical best and consistency figures.
package compare

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// Onset thresholds for locating driver inputs inside a corner span.
const (
	brakeOnsetThreshold    = 0.05
	throttleOnsetThreshold = 0.5
)

// CornerDelta compares one corner between the reference and comparison
// laps. Times are seconds spent between corner entry and exit; the
// delta is comparison minus reference, so positive means time lost.
type CornerDelta struct {
	CornerNumber int    `json:"corner_number"`
	Name         string `json:"name,omitempty"`

	RefTime   float64 `json:"ref_time"`
	CompTime  float64 `json:"comp_time"`
	TimeDelta float64 `json:"time_delta"`

	// Speed readings at the corner's entry, apex and exit distances,
	// plus the minimum each lap carries anywhere in the span.
	RefEntrySpeed  float64 `json:"ref_entry_speed"`
	CompEntrySpeed float64 `json:"comp_entry_speed"`
	RefApexSpeed   float64 `json:"ref_apex_speed"`
	CompApexSpeed  float64 `json:"comp_apex_speed"`
	RefExitSpeed   float64 `json:"ref_exit_speed"`
	CompExitSpeed  float64 `json:"comp_exit_speed"`
	RefMinSpeed    float64 `json:"ref_min_speed"`
	CompMinSpeed   float64 `json:"comp_min_speed"`

	RefBrakingPoint  float64 `json:"ref_braking_point"`
	CompBrakingPoint float64 `json:"comp_braking_point"`

	RefThrottlePoint  float64 `json:"ref_throttle_point"`
	CompThrottlePoint float64 `json:"comp_throttle_point"`
}

// Comparison is the full delta picture between two laps.
type Comparison struct {
	RefLapNumber  int     `json:"ref_lap_number"`
	CompLapNumber int     `json:"comp_lap_number"`
	RefLapTime    float64 `json:"ref_lap_time"`
	CompLapTime   float64 `json:"comp_lap_time"`

	// TotalDelta is the last element of CumulativeDelta: time gained or
	// lost over the distance both laps cover. This is deliberately not
	// the raw lap-time difference, which would mix in grid-length
	// mismatch between the two laps.
	TotalDelta float64 `json:"total_delta"`

	// Distance, CumulativeDelta and SpeedDelta are parallel over the
	// overlapping prefix of the two grids. SpeedDelta is comparison
	// minus reference, so negative means the comparison lap is slower
	// at that point.
	Distance        []float64 `json:"distance"`
	CumulativeDelta []float64 `json:"cumulative_delta"`
	SpeedDelta      []float64 `json:"speed_delta"`

	Corners []CornerDelta `json:"corners"`
}

// Laps compares comp against ref over their common distance prefix and
// breaks the delta down per detected corner.
func Laps(ref, comp telemetry.NormalizedLap, seg corners.Segmentation) Comparison {
	out := Comparison{
		RefLapNumber:  ref.LapNumber,
		CompLapNumber: comp.LapNumber,
		RefLapTime:    ref.LapTime,
		CompLapTime:   comp.LapTime,
	}

	n := len(ref.ElapsedTime)
	if len(comp.ElapsedTime) < n {
		n = len(comp.ElapsedTime)
	}
	if n == 0 {
		return out
	}

	out.Distance = make([]float64, n)
	copy(out.Distance, ref.Distance[:n])
	out.CumulativeDelta = make([]float64, n)
	out.SpeedDelta = make([]float64, n)
	for i := 0; i < n; i++ {
		out.CumulativeDelta[i] = comp.ElapsedTime[i] - ref.ElapsedTime[i]
		out.SpeedDelta[i] = comp.Speed[i] - ref.Speed[i]
	}
	out.TotalDelta = out.CumulativeDelta[n-1]

	for _, c := range seg.Corners {
		cd, ok := cornerDelta(ref, comp, c)
		if !ok {
			continue
		}
		out.Corners = append(out.Corners, cd)
	}
	return out
}

func cornerDelta(ref, comp telemetry.NormalizedLap, c corners.Corner) (CornerDelta, bool) {
	refTime, refOK := cornerTime(ref, c)
	compTime, compOK := cornerTime(comp, c)
	if !refOK || !compOK {
		return CornerDelta{}, false
	}

	cd := CornerDelta{
		CornerNumber: c.Number,
		Name:         c.Name,
		RefTime:      refTime,
		CompTime:     compTime,
		TimeDelta:    compTime - refTime,
	}
	cd.RefEntrySpeed, cd.CompEntrySpeed = speedAt(ref, c.StartDistance), speedAt(comp, c.StartDistance)
	cd.RefApexSpeed, cd.CompApexSpeed = speedAt(ref, c.ApexDistance), speedAt(comp, c.ApexDistance)
	cd.RefExitSpeed, cd.CompExitSpeed = speedAt(ref, c.EndDistance), speedAt(comp, c.EndDistance)
	cd.RefMinSpeed, cd.CompMinSpeed = minSpeed(ref, c), minSpeed(comp, c)
	cd.RefBrakingPoint, cd.CompBrakingPoint = brakingPoint(ref, c), brakingPoint(comp, c)
	cd.RefThrottlePoint, cd.CompThrottlePoint = throttlePoint(ref, c), throttlePoint(comp, c)
	return cd, true
}

// cornerTime is the elapsed time a lap spends between corner entry and
// exit. Corners that collapse to a point on this lap's grid (or fall
// off its end) report no time.
func cornerTime(lap telemetry.NormalizedLap, c corners.Corner) (float64, bool) {
	entry := nearestIndex(lap.Distance, c.StartDistance)
	exit := nearestIndex(lap.Distance, c.EndDistance)
	if exit <= entry || exit >= len(lap.ElapsedTime) {
		return 0, false
	}
	return lap.ElapsedTime[exit] - lap.ElapsedTime[entry], true
}

// speedAt reads the lap's speed at the grid point nearest the distance.
func speedAt(lap telemetry.NormalizedLap, d float64) float64 {
	i := nearestIndex(lap.Distance, d)
	if i >= len(lap.Speed) {
		return 0
	}
	return lap.Speed[i]
}

// minSpeed is the slowest speed the lap carries through the corner span.
func minSpeed(lap telemetry.NormalizedLap, c corners.Corner) float64 {
	entry := nearestIndex(lap.Distance, c.StartDistance)
	exit := nearestIndex(lap.Distance, c.EndDistance)
	if exit >= len(lap.Speed) {
		exit = len(lap.Speed) - 1
	}
	if exit <= entry {
		return 0
	}
	return floats.Min(lap.Speed[entry : exit+1])
}

// brakingPoint is the distance where brake input first crosses the
// onset threshold between corner entry and apex; a corner taken
// without brakes reports the entry distance.
func brakingPoint(lap telemetry.NormalizedLap, c corners.Corner) float64 {
	entry := nearestIndex(lap.Distance, c.StartDistance)
	apex := nearestIndex(lap.Distance, c.ApexDistance)
	for i := entry; i <= apex && i < len(lap.Brake); i++ {
		if lap.Brake[i] > brakeOnsetThreshold {
			return lap.Distance[i]
		}
	}
	return c.StartDistance
}

// throttlePoint is the distance where throttle first crosses the onset
// threshold between apex and exit, defaulting to the apex distance.
func throttlePoint(lap telemetry.NormalizedLap, c corners.Corner) float64 {
	apex := nearestIndex(lap.Distance, c.ApexDistance)
	exit := nearestIndex(lap.Distance, c.EndDistance)
	for i := apex; i <= exit && i < len(lap.Throttle); i++ {
		if lap.Throttle[i] > throttleOnsetThreshold {
			return lap.Distance[i]
		}
	}
	return c.ApexDistance
}

// nearestIndex returns the grid index closest to the given distance.
func nearestIndex(grid []float64, d float64) int {
	if len(grid) == 0 {
		return 0
	}
	j := sort.SearchFloat64s(grid, d)
	switch {
	case j == 0:
		return 0
	case j >= len(grid):
		return len(grid) - 1
	default:
		if d-grid[j-1] <= grid[j]-d {
			return j - 1
		}
		return j
	}
}
