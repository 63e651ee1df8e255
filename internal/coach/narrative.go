package coach

import (
	"math"
)

// NarrativeInput is the condensed, JSON-ready projection of an
// analysis meant for a language model or report template: headline
// numbers and per-corner findings, no raw traces. Corner names appear
// only when the track database supplied them.
type NarrativeInput struct {
	Track        string  `json:"track"`
	Car          string  `json:"car"`
	Driver       string  `json:"driver"`
	SessionType  string  `json:"session_type"`
	TrackLengthM float64 `json:"track_length_m"`
	TrackType    string  `json:"track_type"`

	LapCount        int     `json:"lap_count"`
	DisruptedCount  int     `json:"disrupted_count"`
	BestLapTime     float64 `json:"best_lap_time"`
	MeanLapTime     float64 `json:"mean_lap_time"`
	TheoreticalBest float64 `json:"theoretical_best"`
	GapToBest       float64 `json:"gap_to_theoretical_best"`
	ConsistencyCV   float64 `json:"consistency_cv"`

	ReferenceLap  int     `json:"reference_lap"`
	ComparisonLap int     `json:"comparison_lap"`
	TotalDelta    float64 `json:"total_delta"`

	Corners            []NarrativeCorner            `json:"corners"`
	ConsistencyCorners []NarrativeConsistencyCorner `json:"consistency_corners"`
	Recommendations    []string                     `json:"recommendations"`
}

// NarrativeCorner is one corner's findings, located both by distance
// from the start line and as a percentage of the lap, which reads
// better in prose than meters alone.
type NarrativeCorner struct {
	Number         int     `json:"number"`
	Name           string  `json:"name,omitempty"`
	ApexDistanceM  float64 `json:"apex_distance_m"`
	LapPositionPct float64 `json:"lap_position_pct"`
	TimeDelta      float64 `json:"time_delta"`
	RefApexSpeed   float64 `json:"ref_apex_speed"`
	CompApexSpeed  float64 `json:"comp_apex_speed"`
	BrakingDiffM   float64 `json:"braking_diff_m"`
}

// NarrativeConsistencyCorner is one corner's transit-time scatter entry.
type NarrativeConsistencyCorner struct {
	Number   int     `json:"number"`
	Name     string  `json:"name,omitempty"`
	MeanTime float64 `json:"mean_time"`
	BestTime float64 `json:"best_time"`
	CV       float64 `json:"cv"`

	ConsistencyIssue bool `json:"consistency_issue"`
	TechniqueIssue   bool `json:"technique_issue"`
}

// Narrative projects an analysis into its narrative input form.
func Narrative(a *Analysis) NarrativeInput {
	in := NarrativeInput{
		Track:           a.Session.TrackName,
		Car:             a.Session.CarName,
		Driver:          a.Session.DriverName,
		SessionType:     a.Session.SessionType,
		TrackLengthM:    a.Session.TrackLengthM,
		TrackType:       a.TrackType,
		ReferenceLap:    a.ReferenceLap,
		ComparisonLap:   a.ComparisonLap,
		TotalDelta:      round3(a.Comparison.TotalDelta),
		TheoreticalBest: round3(a.Theoretical.BestTime),
		GapToBest:       round3(a.Theoretical.Gap),
		ConsistencyCV:   round3(a.Consistency.CV),
		BestLapTime:     round3(a.Consistency.BestTime),
		MeanLapTime:     round3(a.Consistency.MeanTime),
	}

	for _, lap := range a.Laps {
		if lap.Disrupted {
			in.DisruptedCount++
		} else {
			in.LapCount++
		}
	}

	apexByNumber := make(map[int]float64, len(a.Segmentation.Corners))
	for _, c := range a.Segmentation.Corners {
		apexByNumber[c.Number] = c.ApexDistance
	}
	for _, cd := range a.Comparison.Corners {
		nc := NarrativeCorner{
			Number:        cd.CornerNumber,
			Name:          cd.Name,
			ApexDistanceM: round1(apexByNumber[cd.CornerNumber]),
			TimeDelta:     round3(cd.TimeDelta),
			RefApexSpeed:  round1(cd.RefApexSpeed),
			CompApexSpeed: round1(cd.CompApexSpeed),
			BrakingDiffM:  round1(cd.CompBrakingPoint - cd.RefBrakingPoint),
		}
		if a.Session.TrackLengthM > 0 {
			nc.LapPositionPct = round1(apexByNumber[cd.CornerNumber] / a.Session.TrackLengthM * 100)
		}
		in.Corners = append(in.Corners, nc)
	}

	for _, cc := range a.CornerConsistency {
		in.ConsistencyCorners = append(in.ConsistencyCorners, NarrativeConsistencyCorner{
			Number:           cc.CornerNumber,
			Name:             cc.Name,
			MeanTime:         round3(cc.MeanTime),
			BestTime:         round3(cc.BestTime),
			CV:               round3(cc.CV),
			ConsistencyIssue: cc.ConsistencyIssue,
			TechniqueIssue:   cc.TechniqueIssue,
		})
	}

	for _, r := range a.Recommendations {
		in.Recommendations = append(in.Recommendations, r.Message)
	}
	return in
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
