package telemetry

import (
	"math"
	"testing"

	"github.com/lapsight-data/lapsight/internal/ibt"
)

const testTrackLength = 6210.0

// syntheticLap builds a time-indexed lap covering the whole track at
// roughly constant speed, with well-formed supporting channels.
func syntheticLap(samples int) map[string][]float64 {
	dist := make([]float64, samples)
	speed := make([]float64, samples)
	throttle := make([]float64, samples)
	brake := make([]float64, samples)
	gear := make([]float64, samples)
	st := make([]float64, samples)
	for i := 0; i < samples; i++ {
		dist[i] = testTrackLength * float64(i) / float64(samples-1)
		speed[i] = 50
		throttle[i] = 0.8
		brake[i] = 0
		gear[i] = 4
		st[i] = 1000 + float64(i)/60.0
	}
	return map[string][]float64{
		ibt.ChanLapDist:     dist,
		ibt.ChanSpeed:       speed,
		ibt.ChanThrottle:    throttle,
		ibt.ChanBrake:       brake,
		ibt.ChanGear:        gear,
		ibt.ChanSessionTime: st,
	}
}

func TestNormalizeLapGridInvariants(t *testing.T) {
	n := NewNormalizer(1.0)
	lap := n.NormalizeLap(ibt.NewTelemetry(syntheticLap(2000)), 1, testTrackLength)

	if !lap.Valid {
		t.Fatal("well-formed lap should be valid")
	}
	if len(lap.Distance) == 0 {
		t.Fatal("grid should not be empty")
	}

	// Constant step, strictly increasing.
	for i := 1; i < len(lap.Distance); i++ {
		step := lap.Distance[i] - lap.Distance[i-1]
		if math.Abs(step-1.0) > 1e-9 {
			t.Fatalf("grid step at %d = %v, want 1.0", i, step)
		}
	}

	// Elapsed time non-decreasing end to end.
	for i := 1; i < len(lap.ElapsedTime); i++ {
		if lap.ElapsedTime[i] < lap.ElapsedTime[i-1] {
			t.Fatalf("elapsed time decreases at %d: %v -> %v",
				i, lap.ElapsedTime[i-1], lap.ElapsedTime[i])
		}
	}

	// All channel arrays parallel.
	want := len(lap.Distance)
	for name, got := range map[string]int{
		"speed": len(lap.Speed), "throttle": len(lap.Throttle),
		"brake": len(lap.Brake), "gear": len(lap.Gear),
		"elapsed": len(lap.ElapsedTime),
	} {
		if got != want {
			t.Errorf("%s length = %d, want %d", name, got, want)
		}
	}

	if lap.LapTime != lap.ElapsedTime[len(lap.ElapsedTime)-1] {
		t.Errorf("LapTime = %v, want last elapsed value %v",
			lap.LapTime, lap.ElapsedTime[len(lap.ElapsedTime)-1])
	}
}

func TestNormalizeLapClamping(t *testing.T) {
	cols := syntheticLap(2000)
	// Sensor overshoot beyond physical bounds.
	cols[ibt.ChanThrottle][500] = 1.2
	cols[ibt.ChanBrake][600] = -0.1
	cols[ibt.ChanSpeed][700] = -2

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	for i, v := range lap.Throttle {
		if v < 0 || v > 1 {
			t.Fatalf("throttle[%d] = %v outside [0,1]", i, v)
		}
	}
	for i, v := range lap.Brake {
		if v < 0 || v > 1 {
			t.Fatalf("brake[%d] = %v outside [0,1]", i, v)
		}
	}
	for i, v := range lap.Speed {
		if v < 0 {
			t.Fatalf("speed[%d] = %v negative", i, v)
		}
	}
}

func TestNormalizeLapDuplicateDistances(t *testing.T) {
	cols := syntheticLap(2000)
	// Stall the distance channel for a stretch (car stationary mid-lap
	// would not happen, but sensor repeats do).
	for i := 900; i < 910; i++ {
		cols[ibt.ChanLapDist][i] = cols[ibt.ChanLapDist][899]
	}

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if len(lap.Distance) == 0 {
		t.Fatal("duplicate distances should not empty the lap")
	}
	for i := 1; i < len(lap.Distance); i++ {
		if lap.Distance[i] <= lap.Distance[i-1] {
			t.Fatalf("grid not strictly increasing at %d", i)
		}
	}
}

func TestValidateTooFewSamples(t *testing.T) {
	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(syntheticLap(50)), 1, testTrackLength)
	if lap.Valid {
		t.Error("lap with <100 samples should be invalid")
	}
}

func TestValidateLowCoverage(t *testing.T) {
	cols := syntheticLap(2000)
	for i := range cols[ibt.ChanLapDist] {
		cols[ibt.ChanLapDist][i] *= 0.5 // covers half the track
	}
	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if lap.Valid {
		t.Error("lap covering <90% of the track should be invalid")
	}
}

func TestValidateJumpWhileMoving(t *testing.T) {
	cols := syntheticLap(2000)
	cols[ibt.ChanLapDist][1000] += 80 // 80 m forward jump at speed
	for i := 1001; i < 2000; i++ {
		cols[ibt.ChanLapDist][i] += 80
	}
	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if lap.Valid {
		t.Error("large distance jump while moving should invalidate the lap")
	}
}

func TestValidateJumpWhileStationaryTolerated(t *testing.T) {
	cols := syntheticLap(2000)
	// Car stopped at the end; distance then glitches. Harmless.
	for i := 1950; i < 2000; i++ {
		cols[ibt.ChanSpeed][i] = 0
	}
	cols[ibt.ChanLapDist][1990] = cols[ibt.ChanLapDist][1989] + 200

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if !lap.Valid {
		t.Error("distance jump while stationary should be tolerated")
	}
}

func TestStationaryTailTrimmed(t *testing.T) {
	cols := syntheticLap(2000)
	// Park the car for the last 200 samples with the distance channel
	// wandering backward slightly.
	for i := 1800; i < 2000; i++ {
		cols[ibt.ChanSpeed][i] = 0
		cols[ibt.ChanLapDist][i] = cols[ibt.ChanLapDist][1799] - 0.5
	}

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if len(lap.Distance) == 0 {
		t.Fatal("trimmed lap should still normalize")
	}
	// The grid should end near where the car stopped, not at track length.
	last := lap.Distance[len(lap.Distance)-1]
	stopDist := cols[ibt.ChanLapDist][1799]
	if last > stopDist+tailTrimBufSamples {
		t.Errorf("grid runs to %v, expected to end near stop distance %v", last, stopDist)
	}
}

func TestMissingOptionalChannelZeroFilled(t *testing.T) {
	cols := syntheticLap(2000)
	delete(cols, ibt.ChanGear)

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	if len(lap.Gear) != len(lap.Distance) {
		t.Fatalf("gear length = %d, want %d", len(lap.Gear), len(lap.Distance))
	}
	for i, v := range lap.Gear {
		if v != 0 {
			t.Fatalf("gear[%d] = %v, want zero-filled", i, v)
		}
	}
	if len(lap.Steering) != len(lap.Distance) || len(lap.RPM) != len(lap.Distance) {
		t.Error("optional channels must stay parallel to the grid")
	}
}

func TestGearNearestNeighbor(t *testing.T) {
	cols := syntheticLap(2000)
	// Shift from 4th to 5th halfway round.
	for i := 1000; i < 2000; i++ {
		cols[ibt.ChanGear][i] = 5
	}

	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(cols), 1, testTrackLength)
	for i, v := range lap.Gear {
		if v != 4 && v != 5 {
			t.Fatalf("gear[%d] = %v, nearest-neighbor should keep integers", i, v)
		}
	}
}

func TestZeroTrackLengthYieldsInvalidEmptyLap(t *testing.T) {
	lap := NewNormalizer(1.0).NormalizeLap(ibt.NewTelemetry(syntheticLap(2000)), 1, 0)
	if lap.Valid {
		t.Error("unknown track length should yield an invalid lap")
	}
	if len(lap.Distance) != 0 {
		t.Errorf("expected empty grid, got %d points", len(lap.Distance))
	}
}

func TestNormalizeSessionKeepsOnlyValid(t *testing.T) {
	good := ibt.NewTelemetry(syntheticLap(2000))
	bad := ibt.NewTelemetry(syntheticLap(50))

	laps := NewNormalizer(1.0).NormalizeSession([]ibt.RawLap{
		{Number: 1, Telemetry: good},
		{Number: 2, Telemetry: bad},
		{Number: 3, Telemetry: good},
	}, testTrackLength)

	if len(laps) != 2 {
		t.Fatalf("got %d valid laps, want 2", len(laps))
	}
	if laps[0].LapNumber != 1 || laps[1].LapNumber != 3 {
		t.Errorf("unexpected lap numbers: %d, %d", laps[0].LapNumber, laps[1].LapNumber)
	}
}
