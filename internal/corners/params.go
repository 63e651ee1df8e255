// Package corners segments a normalized lap into corner spans using
// speed-trace heuristics: smooth, find prominent speed minima (apexes),
// refine each apex to a braking point and throttle-on exit, merge
// chicanes, drop noise.
package corners

import "fmt"

// TrackType selects a detection parameter preset. Ovals need far wider
// apex spacing and lower sensitivity; street circuits need a tighter
// merge distance for closely spaced corners.
type TrackType int

const (
	TrackRoad TrackType = iota
	TrackStreet
	TrackOval
)

func (t TrackType) String() string {
	switch t {
	case TrackRoad:
		return "road"
	case TrackStreet:
		return "street"
	case TrackOval:
		return "oval"
	default:
		return fmt.Sprintf("TrackType(%d)", int(t))
	}
}

// ParseTrackType maps the external selector strings to a TrackType.
func ParseTrackType(s string) (TrackType, error) {
	switch s {
	case "road":
		return TrackRoad, nil
	case "street":
		return TrackStreet, nil
	case "oval":
		return TrackOval, nil
	default:
		return TrackRoad, fmt.Errorf("unknown track type %q (want road, street or oval)", s)
	}
}

// DetectionParams are the tunable thresholds for corner detection.
type DetectionParams struct {
	// SmoothingWindow is the Savitzky-Golay window in grid samples;
	// forced odd and capped at the trace length.
	SmoothingWindow int
	// SmoothingOrder is the polynomial order of the smoothing fit.
	SmoothingOrder int
	// MinSpeedDrop is the prominence (m/s) a speed dip needs to count
	// as a corner; also the entry-to-apex drop kept after merging.
	MinSpeedDrop float64
	// MinCornerSpacing is the minimum distance (grid samples) between
	// apex candidates.
	MinCornerSpacing int
	// BrakeThreshold is the brake input treated as braking onset.
	BrakeThreshold float64
	// ThrottleThreshold is the throttle input treated as corner exit.
	ThrottleThreshold float64
	// MergeDistance merges corners whose gap is below this (meters).
	MergeDistance float64
}

// DefaultParams returns the baseline detection parameters.
func DefaultParams() DetectionParams {
	return DetectionParams{
		SmoothingWindow:   25,
		SmoothingOrder:    3,
		MinSpeedDrop:      5.0,
		MinCornerSpacing:  50,
		BrakeThreshold:    0.05,
		ThrottleThreshold: 0.9,
		MergeDistance:     30,
	}
}

// ParamsFor returns the preset tuned for the given track type.
func ParamsFor(t TrackType) DetectionParams {
	p := DefaultParams()
	switch t {
	case TrackRoad:
		p.MinSpeedDrop = 3.0
		p.MinCornerSpacing = 50
	case TrackStreet:
		p.MinSpeedDrop = 3.0
		p.MinCornerSpacing = 30
		p.MergeDistance = 20
	case TrackOval:
		p.MinSpeedDrop = 2.0
		p.MinCornerSpacing = 200
	}
	return p
}
