package corners

import (
	"math"
	"testing"

	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// profile builds a synthetic normalized lap on a 1 m grid: full
// throttle at a cruising speed, with V-shaped dips layered on.
type profile struct {
	speed    []float64
	throttle []float64
	brake    []float64
}

func flatProfile(n int, cruise float64) *profile {
	p := &profile{
		speed:    make([]float64, n),
		throttle: make([]float64, n),
		brake:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p.speed[i] = cruise
		p.throttle[i] = 1.0
	}
	return p
}

// dip carves a V into the speed trace: linear down from the current
// speed at from to apexSpeed at apex, back up by to. Brake is applied
// through the deceleration, throttle lifted until recovery.
func (p *profile) dip(from, apex, to int, apexSpeed float64) {
	entrySpeed := p.speed[from]
	exitSpeed := p.speed[to]
	for i := from; i <= apex; i++ {
		f := float64(i-from) / float64(apex-from)
		p.speed[i] = entrySpeed + f*(apexSpeed-entrySpeed)
	}
	for i := apex + 1; i <= to; i++ {
		f := float64(i-apex) / float64(to-apex)
		p.speed[i] = apexSpeed + f*(exitSpeed-apexSpeed)
	}
	for i := from; i < apex; i++ {
		p.brake[i] = 0.6
		p.throttle[i] = 0
	}
	for i := apex; i < to; i++ {
		p.throttle[i] = 0
	}
}

func (p *profile) lap() telemetry.NormalizedLap {
	n := len(p.speed)
	dist := make([]float64, n)
	elapsed := make([]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = float64(i)
		if i > 0 {
			elapsed[i] = elapsed[i-1] + 1.0/p.speed[i]
		}
	}
	return telemetry.NormalizedLap{
		LapNumber:   1,
		TrackLength: float64(n),
		Distance:    dist,
		Speed:       p.speed,
		Throttle:    p.throttle,
		Brake:       p.brake,
		ElapsedTime: elapsed,
		LapTime:     elapsed[n-1],
		Valid:       true,
	}
}

func TestDetectFlatLapNoCorners(t *testing.T) {
	seg := NewDetector(DefaultParams()).Detect(flatProfile(3000, 50).lap())
	if len(seg.Corners) != 0 {
		t.Errorf("flat lap should have no corners, got %d", len(seg.Corners))
	}
}

func TestDetectSingleCorner(t *testing.T) {
	p := flatProfile(3000, 60)
	p.dip(1200, 1500, 1800, 40)

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 1 {
		t.Fatalf("got %d corners, want 1", len(seg.Corners))
	}
	c := seg.Corners[0]
	if c.Number != 1 {
		t.Errorf("corner number = %d, want 1", c.Number)
	}
	if math.Abs(c.ApexDistance-1500) > 100 {
		t.Errorf("apex at %v, want within 100 of 1500", c.ApexDistance)
	}
	if !(c.StartDistance < c.ApexDistance && c.ApexDistance < c.EndDistance) {
		t.Errorf("corner bounds out of order: start %v apex %v end %v",
			c.StartDistance, c.ApexDistance, c.EndDistance)
	}
	if c.ApexSpeed >= c.EntrySpeed {
		t.Errorf("apex speed %v should be below entry speed %v", c.ApexSpeed, c.EntrySpeed)
	}
	// Entry should sit at braking onset, near the top of the dip.
	if math.Abs(c.StartDistance-1200) > 50 {
		t.Errorf("corner starts at %v, want near braking onset 1200", c.StartDistance)
	}
	if c.BrakingPoint != c.StartDistance {
		t.Errorf("braking point %v should match corner start %v", c.BrakingPoint, c.StartDistance)
	}
}

func TestDetectChicaneMergesIntoOne(t *testing.T) {
	p := flatProfile(3000, 60)
	// Two dips with a short recovery between them.
	p.dip(1300, 1400, 1460, 45)
	p.dip(1460, 1520, 1650, 44)

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 1 {
		t.Fatalf("chicane should merge into one corner, got %d", len(seg.Corners))
	}
	c := seg.Corners[0]
	// The merged corner keeps the slower apex.
	if math.Abs(c.ApexDistance-1520) > 100 {
		t.Errorf("merged apex at %v, want near the slower dip at 1520", c.ApexDistance)
	}
	if c.StartDistance > 1310 || c.EndDistance < 1600 {
		t.Errorf("merged corner [%v, %v] should span both dips", c.StartDistance, c.EndDistance)
	}
}

func TestDetectTwoSeparateCorners(t *testing.T) {
	p := flatProfile(4000, 60)
	p.dip(700, 900, 1100, 35)
	p.dip(2400, 2600, 2800, 42)

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 2 {
		t.Fatalf("got %d corners, want 2", len(seg.Corners))
	}
	c1, c2 := seg.Corners[0], seg.Corners[1]
	if c1.Number != 1 || c2.Number != 2 {
		t.Errorf("corners numbered %d, %d; want 1, 2", c1.Number, c2.Number)
	}
	if c1.EndDistance > c2.StartDistance {
		t.Errorf("corners overlap: first ends %v, second starts %v",
			c1.EndDistance, c2.StartDistance)
	}
	if c1.ApexDistance > c2.ApexDistance {
		t.Error("corners not in track order")
	}
}

func TestDetectUnbrakedCornerStaysLocal(t *testing.T) {
	p := flatProfile(4000, 60)
	p.dip(800, 1000, 1200, 35)
	// A lift-only corner much later: same shape, no brake input.
	p.dip(2300, 2500, 2700, 45)
	for i := 2300; i < 2500; i++ {
		p.brake[i] = 0
	}

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 2 {
		t.Fatalf("got %d corners, want 2 separate ones", len(seg.Corners))
	}
	c2 := seg.Corners[1]
	// The unbraked corner's entry must come from its own speed crest,
	// not from the previous corner's braking zone 1.5 km back.
	if c2.StartDistance < 2000 {
		t.Errorf("unbraked corner starts at %v, should stay near its own dip", c2.StartDistance)
	}
	if !(c2.StartDistance < c2.ApexDistance) {
		t.Errorf("corner bounds out of order: start %v apex %v", c2.StartDistance, c2.ApexDistance)
	}
}

func TestDetectShorterThanSmoothingWindow(t *testing.T) {
	p := flatProfile(20, 60)
	p.dip(5, 10, 15, 30)

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 0 {
		t.Errorf("trace shorter than the smoothing window should yield no corners, got %d", len(seg.Corners))
	}
}

func TestDetectShallowDipFiltered(t *testing.T) {
	p := flatProfile(3000, 60)
	p.dip(1400, 1500, 1600, 58) // 2 m/s drop, below the default threshold

	seg := NewDetector(DefaultParams()).Detect(p.lap())
	if len(seg.Corners) != 0 {
		t.Errorf("2 m/s dip should be filtered, got %d corners", len(seg.Corners))
	}
}

func TestDetectEmptyLap(t *testing.T) {
	seg := NewDetector(DefaultParams()).Detect(telemetry.NormalizedLap{})
	if len(seg.Corners) != 0 {
		t.Errorf("empty lap should yield no corners, got %d", len(seg.Corners))
	}
}

func TestOvalPresetWiderSpacing(t *testing.T) {
	road := ParamsFor(TrackRoad)
	oval := ParamsFor(TrackOval)
	if oval.MinCornerSpacing <= road.MinCornerSpacing {
		t.Error("oval preset should require wider apex spacing than road")
	}
	if oval.MinSpeedDrop >= road.MinSpeedDrop {
		t.Error("oval preset should be more sensitive to shallow speed drops")
	}
}
