package compare

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// Consistency thresholds. A coefficient of variation over 5% means the
// driver's lap times scatter too much for pace advice to stick; a mean
// more than half a second off the best with tight scatter means the
// pace itself is the problem.
const (
	cvThreshold        = 0.05
	paceGapThreshold   = 0.5
	minConsistencyLaps = 2
)

// Consistency summarizes lap-time scatter across the session.
type Consistency struct {
	LapCount int     `json:"lap_count"`
	MeanTime float64 `json:"mean_time"`
	BestTime float64 `json:"best_time"`
	StdDev   float64 `json:"std_dev"`
	CV       float64 `json:"cv"`

	// The two findings are mutually exclusive: scatter is diagnosed
	// first, and only a consistent driver gets a pace finding.
	ConsistencyIssue bool `json:"consistency_issue"`
	TechniqueIssue   bool `json:"technique_issue"`
}

// Consistent computes lap-time consistency over the valid laps. Fewer
// than two usable times yields a zero analysis with no findings.
func Consistent(laps []telemetry.NormalizedLap) Consistency {
	var times []float64
	for _, lap := range laps {
		if lap.Valid && lap.LapTime > 0 {
			times = append(times, lap.LapTime)
		}
	}

	out := Consistency{LapCount: len(times)}
	if len(times) < minConsistencyLaps {
		return out
	}

	out.MeanTime = stat.Mean(times, nil)
	out.BestTime = times[0]
	for _, t := range times[1:] {
		if t < out.BestTime {
			out.BestTime = t
		}
	}

	// Population standard deviation: the laps are the whole session,
	// not a sample of one.
	var ss float64
	for _, t := range times {
		d := t - out.MeanTime
		ss += d * d
	}
	out.StdDev = math.Sqrt(ss / float64(len(times)))
	if out.MeanTime > 0 {
		out.CV = out.StdDev / out.MeanTime
	}

	if out.CV > cvThreshold {
		out.ConsistencyIssue = true
	} else if out.MeanTime-out.BestTime > paceGapThreshold {
		out.TechniqueIssue = true
	}
	return out
}

// CornerConsistency summarizes one corner's transit-time scatter across
// the session's laps. The findings follow the same rule as the session
// level: scatter first, pace only for a corner taken consistently.
type CornerConsistency struct {
	CornerNumber int     `json:"corner_number"`
	Name         string  `json:"name,omitempty"`
	SampleCount  int     `json:"sample_count"`
	MeanTime     float64 `json:"mean_time"`
	BestTime     float64 `json:"best_time"`
	WorstTime    float64 `json:"worst_time"`
	StdDev       float64 `json:"std_dev"`
	CV           float64 `json:"cv"`

	ConsistencyIssue bool `json:"consistency_issue"`
	TechniqueIssue   bool `json:"technique_issue"`
}

// ConsistencyAnalysis computes transit-time consistency for every
// detected corner. Corners with fewer than two usable transit times are
// left out.
func ConsistencyAnalysis(laps []telemetry.NormalizedLap, seg corners.Segmentation) []CornerConsistency {
	var out []CornerConsistency
	for _, c := range seg.Corners {
		var times []float64
		for _, lap := range laps {
			if !lap.Valid {
				continue
			}
			if t, ok := cornerTime(lap, c); ok {
				times = append(times, t)
			}
		}
		if len(times) < minConsistencyLaps {
			continue
		}

		cc := CornerConsistency{
			CornerNumber: c.Number,
			Name:         c.Name,
			SampleCount:  len(times),
			MeanTime:     stat.Mean(times, nil),
			BestTime:     times[0],
			WorstTime:    times[0],
		}
		for _, t := range times[1:] {
			if t < cc.BestTime {
				cc.BestTime = t
			}
			if t > cc.WorstTime {
				cc.WorstTime = t
			}
		}

		var ss float64
		for _, t := range times {
			d := t - cc.MeanTime
			ss += d * d
		}
		cc.StdDev = math.Sqrt(ss / float64(len(times)))
		if cc.MeanTime > 0 {
			cc.CV = cc.StdDev / cc.MeanTime
		}

		if cc.CV > cvThreshold {
			cc.ConsistencyIssue = true
		} else if cc.MeanTime-cc.BestTime > paceGapThreshold {
			cc.TechniqueIssue = true
		}
		out = append(out, cc)
	}
	return out
}
