package corners

import (
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// Corner is one detected corner span on the distance grid. Distances
// are meters from the start line; speeds are m/s off the smoothed
// trace.
type Corner struct {
	Number        int     `json:"corner_number"`
	Name          string  `json:"name,omitempty"`
	StartDistance float64 `json:"distance_start"`
	ApexDistance  float64 `json:"apex_distance"`
	EndDistance   float64 `json:"distance_end"`
	EntrySpeed    float64 `json:"entry_speed"`
	ApexSpeed     float64 `json:"apex_speed"`
	ExitSpeed     float64 `json:"exit_speed"`
	BrakingPoint  float64 `json:"braking_point"`
	ThrottlePoint float64 `json:"throttle_application_point"`
}

// Segmentation is the corner layout detected on one lap.
type Segmentation struct {
	Corners     []Corner `json:"corners"`
	TrackLength float64  `json:"track_length"`
}

// Detector runs corner detection with a fixed parameter set.
type Detector struct {
	params DetectionParams
}

func NewDetector(p DetectionParams) *Detector {
	return &Detector{params: p}
}

// ForTrack returns a detector using the preset for the track type.
func ForTrack(t TrackType) *Detector {
	return NewDetector(ParamsFor(t))
}

// Detect segments the lap into corners: smooth the speed trace, take
// prominent minima as apexes, walk each apex out to its braking onset
// and throttle-on exit, merge chicane halves, drop dips too shallow to
// be corners, and number what remains from 1.
func (d *Detector) Detect(lap telemetry.NormalizedLap) Segmentation {
	seg := Segmentation{TrackLength: lap.TrackLength}
	if len(lap.Speed) < d.params.SmoothingWindow {
		return seg
	}

	speed := savitzkyGolay(lap.Speed, d.params.SmoothingWindow, d.params.SmoothingOrder)
	apexes := localMinima(speed, d.params.MinCornerSpacing, d.params.MinSpeedDrop)

	var corners []Corner
	for _, apex := range apexes {
		entry := d.brakingPoint(lap.Brake, speed, apex)
		exit := d.cornerExit(lap.Throttle, speed, apex)
		if entry >= apex || exit <= apex {
			continue
		}
		corners = append(corners, Corner{
			StartDistance: lap.Distance[entry],
			ApexDistance:  lap.Distance[apex],
			EndDistance:   lap.Distance[exit],
			EntrySpeed:    speed[entry],
			ApexSpeed:     speed[apex],
			ExitSpeed:     speed[exit],
			BrakingPoint:  lap.Distance[entry],
			ThrottlePoint: lap.Distance[exit],
		})
	}

	corners = d.mergeClose(corners)
	corners = d.filterShallow(corners)
	for i := range corners {
		corners[i].Number = i + 1
	}
	seg.Corners = corners
	return seg
}

// brakingPoint finds the corner entry: walk back from the apex through
// the braking zone to the sample where brake input first crossed the
// threshold. The scan stops once speed has clearly recovered above apex
// speed with no braking seen; a corner taken off-throttle alone then
// reports the speed crest of the scanned span instead of reaching back
// into the previous corner.
func (d *Detector) brakingPoint(brake, speed []float64, apex int) int {
	braking := false
	onset := apex
	for i := apex; i >= 0; i-- {
		if brake[i] > d.params.BrakeThreshold {
			braking = true
			onset = i
			continue
		}
		if braking {
			return onset
		}
		if apex-i > 10 && speed[i] > speed[apex]*1.15 {
			return maxSpeedIndex(speed, i, apex)
		}
	}
	if braking {
		return onset
	}
	return 0
}

func maxSpeedIndex(speed []float64, lo, hi int) int {
	best := lo
	for i := lo + 1; i <= hi; i++ {
		if speed[i] > speed[best] {
			best = i
		}
	}
	return best
}

// cornerExit finds where the driver is back to full power with speed
// rising; failing that, where speed has recovered well above apex
// speed; failing that, the end of the lap.
func (d *Detector) cornerExit(throttle, speed []float64, apex int) int {
	n := len(speed)
	for i := apex + 1; i < n; i++ {
		if throttle[i] >= d.params.ThrottleThreshold && speed[i] > speed[i-1] {
			return i
		}
	}
	for i := apex + 1; i < n; i++ {
		if speed[i] > speed[apex]*1.3 {
			return i
		}
	}
	return n - 1
}

// mergeClose folds consecutive corners whose gap is under the merge
// distance into one span (chicanes and double-apex corners detect as
// two dips). The merged corner keeps the slower apex.
func (d *Detector) mergeClose(corners []Corner) []Corner {
	if len(corners) < 2 {
		return corners
	}
	out := []Corner{corners[0]}
	for _, c := range corners[1:] {
		prev := &out[len(out)-1]
		if c.StartDistance-prev.EndDistance >= d.params.MergeDistance {
			out = append(out, c)
			continue
		}
		if c.ApexSpeed < prev.ApexSpeed {
			prev.ApexDistance = c.ApexDistance
			prev.ApexSpeed = c.ApexSpeed
		}
		prev.EndDistance = c.EndDistance
		prev.ExitSpeed = c.ExitSpeed
		prev.ThrottlePoint = c.ThrottlePoint
	}
	return out
}

// filterShallow drops spans whose entry-to-apex speed drop is below the
// detection threshold; those are kinks, not corners.
func (d *Detector) filterShallow(corners []Corner) []Corner {
	var out []Corner
	for _, c := range corners {
		if c.EntrySpeed-c.ApexSpeed >= d.params.MinSpeedDrop {
			out = append(out, c)
		}
	}
	return out
}
