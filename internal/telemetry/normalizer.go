package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/lapsight-data/lapsight/internal/ibt"
)

// Validation and trim thresholds, in meters and m/s. Jumps in the
// distance channel while the car is moving indicate a recording glitch;
// the same jumps while stationary are harmless session-boundary noise.
const (
	minValidSamples    = 100
	minCoverageFrac    = 0.90
	movingSpeedMPS     = 1.0
	maxForwardJumpM    = 50.0
	maxBackwardJumpM   = -100.0
	tailTrimSpeedMPS   = 0.5
	tailTrimBufSamples = 10
)

// DefaultDistanceInterval is the grid step in meters.
const DefaultDistanceInterval = 1.0

// DefaultTickRate is the sample rate assumed when no time channel is
// available at all.
const DefaultTickRate = 60.0

// Normalizer resamples time-indexed laps onto a uniform distance grid.
type Normalizer struct {
	// Interval is the distance grid step in meters.
	Interval float64
	// TickRate is the capture sample rate, used only as the final
	// fallback for synthesizing an elapsed-time axis.
	TickRate float64
}

// NewNormalizer returns a Normalizer with the given grid interval and
// the default tick-rate fallback.
func NewNormalizer(interval float64) *Normalizer {
	if interval <= 0 {
		interval = DefaultDistanceInterval
	}
	return &Normalizer{Interval: interval, TickRate: DefaultTickRate}
}

// NormalizeLap converts one lap's time-series samples to the uniform
// distance grid. A lap that fails validation still normalizes (the data
// may chart fine) but carries Valid=false; a lap whose grid would be
// empty comes back as an explicitly invalid empty lap.
func (n *Normalizer) NormalizeLap(tel *ibt.Telemetry, lapNumber int, trackLengthM float64) NormalizedLap {
	dist, hasDist := tel.Channel(ibt.ChanLapDist)
	if !hasDist || tel.Len() == 0 {
		return emptyLap(lapNumber, trackLengthM)
	}

	valid := n.validateLap(tel, trackLengthM)

	// Trim the stationary tail before building the interpolation
	// source; a parked car records distance noise that breaks
	// monotonicity.
	end := trimIndex(tel)
	dist = dist[:end]

	mask := dedupMask(dist)
	rawDist := applyMask(dist, mask)

	distMax := math.Min(rawDist[len(rawDist)-1], trackLengthM)
	gridLen := int(math.Ceil(distMax / n.Interval))
	if distMax <= 0 || gridLen <= 0 {
		return emptyLap(lapNumber, trackLengthM)
	}
	grid := make([]float64, gridLen)
	for i := range grid {
		grid[i] = float64(i) * n.Interval
	}

	elapsedRaw := n.elapsedTime(tel, end, mask)

	channel := func(name string) []float64 {
		col, ok := tel.Channel(name)
		if !ok {
			return make([]float64, gridLen)
		}
		return interpLinear(rawDist, applyMask(col[:end], mask), grid)
	}

	lap := NormalizedLap{
		LapNumber:   lapNumber,
		TrackLength: trackLengthM,
		Distance:    grid,
		Speed:       channel(ibt.ChanSpeed),
		Throttle:    channel(ibt.ChanThrottle),
		Brake:       channel(ibt.ChanBrake),
		Steering:    channel(ibt.ChanSteering),
		RPM:         channel(ibt.ChanRPM),
		Lat:         channel(ibt.ChanLat),
		Lon:         channel(ibt.ChanLon),
		ElapsedTime: interpLinear(rawDist, elapsedRaw, grid),
		Valid:       valid,
	}

	// Gear is discrete; nearest neighbor avoids phantom half-gears.
	if gear, ok := tel.Channel(ibt.ChanGear); ok {
		lap.Gear = interpNearest(rawDist, applyMask(gear[:end], mask), grid)
	} else {
		lap.Gear = make([]float64, gridLen)
	}

	clamp01(lap.Throttle)
	clamp01(lap.Brake)
	clampMin(lap.Speed, 0)

	lap.LapTime = lap.ElapsedTime[len(lap.ElapsedTime)-1]
	return lap
}

// NormalizeSession normalizes every raw lap and keeps only the valid ones.
func (n *Normalizer) NormalizeSession(laps []ibt.RawLap, trackLengthM float64) []NormalizedLap {
	var out []NormalizedLap
	for _, raw := range laps {
		lap := n.NormalizeLap(raw.Telemetry, raw.Number, trackLengthM)
		if lap.Valid {
			out = append(out, lap)
		}
	}
	return out
}

// validateLap checks the distance channel is usable: enough samples,
// enough track coverage, and no large jumps while the car is moving.
func (n *Normalizer) validateLap(tel *ibt.Telemetry, trackLengthM float64) bool {
	dist, ok := tel.Channel(ibt.ChanLapDist)
	if !ok || len(dist) < minValidSamples {
		return false
	}

	lo, hi := dist[0], dist[0]
	for _, d := range dist {
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if trackLengthM > 0 && hi-lo < trackLengthM*minCoverageFrac {
		return false
	}

	speed, hasSpeed := tel.Channel(ibt.ChanSpeed)
	for i := 1; i < len(dist); i++ {
		diff := dist[i] - dist[i-1]
		if diff <= maxForwardJumpM && diff >= maxBackwardJumpM {
			continue
		}
		if hasSpeed && speed[i-1] <= movingSpeedMPS {
			continue // stationary artifact
		}
		return false
	}
	return true
}

// trimIndex returns the slice end that drops trailing stationary
// samples, keeping a small buffer past the last moving sample.
func trimIndex(tel *ibt.Telemetry) int {
	n := tel.Len()
	speed, ok := tel.Channel(ibt.ChanSpeed)
	if !ok {
		return n
	}
	lastMoving := -1
	for i, v := range speed {
		if v > tailTrimSpeedMPS {
			lastMoving = i
		}
	}
	if lastMoving < 0 {
		return n
	}
	end := lastMoving + tailTrimBufSamples
	if end > n {
		end = n
	}
	return end
}

// dedupMask marks samples where distance strictly increases over the
// previous kept sample's raw neighbor. The first sample is always kept;
// repeated or regressing distances keep only the later occurrence's
// strictly-increasing subsequence, which interpolation requires.
func dedupMask(dist []float64) []bool {
	mask := make([]bool, len(dist))
	prev := math.Inf(-1)
	for i, d := range dist {
		if d > prev {
			mask[i] = true
			prev = d
		}
	}
	if len(mask) > 0 {
		mask[0] = true
	}
	return mask
}

func applyMask(vals []float64, mask []bool) []float64 {
	out := make([]float64, 0, len(vals))
	for i, v := range vals {
		if mask[i] {
			out = append(out, v)
		}
	}
	return out
}

// elapsedTime builds the raw (pre-interpolation) cumulative time axis:
// session-clock delta from lap start, then the lap-time channel, then a
// synthetic axis at the capture tick rate.
func (n *Normalizer) elapsedTime(tel *ibt.Telemetry, end int, mask []bool) []float64 {
	if st, ok := tel.Channel(ibt.ChanSessionTime); ok {
		masked := applyMask(st[:end], mask)
		t0 := masked[0]
		for i := range masked {
			masked[i] -= t0
		}
		return masked
	}
	if lct, ok := tel.Channel(ibt.ChanLapCurrentTime); ok {
		return applyMask(lct[:end], mask)
	}

	tickRate := n.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	count := 0
	for _, m := range mask {
		if m {
			count++
		}
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = float64(i) / tickRate
	}
	return out
}

// interpLinear resamples ys (defined at xs) onto grid using linear
// interpolation with boundary clamping. Degenerate sources (<2 points)
// zero-fill rather than failing the lap.
func interpLinear(xs, ys, grid []float64) []float64 {
	out := make([]float64, len(grid))
	if len(xs) < 2 || len(ys) < 2 || len(xs) != len(ys) {
		return out
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return out
	}
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out
}

// interpNearest resamples with nearest-neighbor lookup, for discrete
// channels like gear.
func interpNearest(xs, ys, grid []float64) []float64 {
	out := make([]float64, len(grid))
	if len(xs) == 0 || len(xs) != len(ys) {
		return out
	}
	for i, x := range grid {
		j := sort.SearchFloat64s(xs, x)
		switch {
		case j == 0:
			out[i] = ys[0]
		case j >= len(xs):
			out[i] = ys[len(ys)-1]
		default:
			if x-xs[j-1] <= xs[j]-x {
				out[i] = ys[j-1]
			} else {
				out[i] = ys[j]
			}
		}
	}
	return out
}

func clamp01(vals []float64) {
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		} else if v > 1 {
			vals[i] = 1
		}
	}
}

func clampMin(vals []float64, min float64) {
	for i, v := range vals {
		if v < min {
			vals[i] = min
		}
	}
}
