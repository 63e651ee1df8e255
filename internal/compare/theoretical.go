package compare

import (
	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// CornerBest is the fastest recorded time through one corner across
// the session, and which lap set it.
type CornerBest struct {
	CornerNumber int     `json:"corner_number"`
	Name         string  `json:"name,omitempty"`
	BestTime     float64 `json:"best_time"`
	BestLap      int     `json:"best_lap"`
}

// TheoreticalBest stitches the session's best corner times onto the
// fastest lap's non-corner time. Gap is how much the fastest actual lap
// gives away to the stitched ideal; never meaningfully negative.
type TheoreticalBest struct {
	BestTime       float64      `json:"best_time"`
	FastestLapTime float64      `json:"fastest_lap_time"`
	FastestLap     int          `json:"fastest_lap"`
	Gap            float64      `json:"gap"`
	Corners        []CornerBest `json:"corners"`
}

// Theoretical computes the theoretical best lap from every valid lap's
// corner times: the minimum time per corner, plus the time the fastest
// lap spends outside all corners. Corners no lap has a usable time for
// are left out of the sum on both sides.
func Theoretical(laps []telemetry.NormalizedLap, seg corners.Segmentation) TheoreticalBest {
	var out TheoreticalBest
	if len(laps) == 0 {
		return out
	}

	fastest := laps[0]
	for _, lap := range laps[1:] {
		if lap.LapTime < fastest.LapTime {
			fastest = lap
		}
	}
	out.FastestLap = fastest.LapNumber
	out.FastestLapTime = fastest.LapTime

	var bestSum, fastestCornerSum float64
	for _, c := range seg.Corners {
		fastestTime, ok := cornerTime(fastest, c)
		if !ok {
			continue
		}

		best := CornerBest{CornerNumber: c.Number, Name: c.Name}
		found := false
		for _, lap := range laps {
			t, ok := cornerTime(lap, c)
			if !ok {
				continue
			}
			if !found || t < best.BestTime {
				best.BestTime = t
				best.BestLap = lap.LapNumber
				found = true
			}
		}
		if !found {
			continue
		}

		out.Corners = append(out.Corners, best)
		bestSum += best.BestTime
		fastestCornerSum += fastestTime
	}

	out.BestTime = bestSum + (fastest.LapTime - fastestCornerSum)
	out.Gap = fastest.LapTime - out.BestTime
	return out
}
