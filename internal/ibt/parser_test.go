package ibt

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// testChannel is one scalar channel for the synthetic capture builder.
type testChannel struct {
	name   string
	typ    VarType
	values []float64
}

const testSessionYAML = `---
WeekendInfo:
 TrackDisplayName: Mount Panorama Circuit
 TrackID: 219
 TrackLength: 6.21 km
DriverInfo:
 DriverCarIdx: 0
 Drivers:
 - CarScreenName: Global Mazda MX-5 Cup
   CarID: 67
   UserName: Test Driver
   UserID: 411981
SessionInfo:
 Sessions:
 - SessionType: Practice
 - SessionType: Race
`

// buildCapture assembles a minimal but structurally faithful .ibt byte
// buffer: header, disk sub-header, session YAML, var table, samples.
func buildCapture(t *testing.T, yamlStr string, chans []testChannel) []byte {
	t.Helper()

	recordCount := 0
	if len(chans) > 0 {
		recordCount = len(chans[0].values)
	}
	for _, c := range chans {
		if len(c.values) != recordCount {
			t.Fatalf("channel %s has %d values, want %d", c.name, len(c.values), recordCount)
		}
	}

	// Assign record-relative offsets.
	offsets := make([]int, len(chans))
	stride := 0
	for i, c := range chans {
		offsets[i] = stride
		size := c.typ.byteSize()
		if size == 0 {
			size = 4 // reserve space even for unknown types
		}
		stride += size
	}

	sessionInfoOffset := totalHeaderSize + diskSubHeaderSize
	varHeaderOffset := sessionInfoOffset + len(yamlStr)
	varBufOffset := varHeaderOffset + len(chans)*varHeaderSize
	total := varBufOffset + recordCount*stride

	data := make([]byte, total)
	le := binary.LittleEndian

	// Header.
	le.PutUint32(data[0:], 2)                              // version
	le.PutUint32(data[4:], 1)                              // status
	le.PutUint32(data[8:], 60)                             // tick rate
	le.PutUint32(data[16:], uint32(len(yamlStr)))          // sessionInfoLen
	le.PutUint32(data[20:], uint32(sessionInfoOffset))     // sessionInfoOffset
	le.PutUint32(data[24:], uint32(len(chans)))            // numVars
	le.PutUint32(data[28:], uint32(varHeaderOffset))       // varHeaderOffset
	le.PutUint32(data[32:], 1)                             // numBuf
	le.PutUint32(data[36:], uint32(stride))                // bufLen
	le.PutUint32(data[headerFieldsSize+headerPadSize+4:], uint32(varBufOffset)) // varBuf[0].bufOffset

	// Disk sub-header.
	le.PutUint64(data[totalHeaderSize:], 20260801)
	le.PutUint64(data[totalHeaderSize+8:], math.Float64bits(0))
	le.PutUint64(data[totalHeaderSize+16:], math.Float64bits(float64(recordCount)/60.0))
	le.PutUint32(data[totalHeaderSize+24:], 3)
	le.PutUint32(data[totalHeaderSize+28:], uint32(recordCount))

	copy(data[sessionInfoOffset:], yamlStr)

	// Var headers.
	for i, c := range chans {
		rec := data[varHeaderOffset+i*varHeaderSize:]
		le.PutUint32(rec[0:], uint32(c.typ))
		le.PutUint32(rec[4:], uint32(offsets[i]))
		le.PutUint32(rec[8:], 1)
		copy(rec[16:], c.name)
	}

	// Samples.
	for r := 0; r < recordCount; r++ {
		base := varBufOffset + r*stride
		for i, c := range chans {
			off := base + offsets[i]
			v := c.values[r]
			switch c.typ {
			case VarChar:
				data[off] = byte(int(v))
			case VarBool:
				if v != 0 {
					data[off] = 1
				}
			case VarInt:
				le.PutUint32(data[off:], uint32(int32(v)))
			case VarBitField:
				le.PutUint32(data[off:], uint32(v))
			case VarFloat:
				le.PutUint32(data[off:], math.Float32bits(float32(v)))
			case VarDouble:
				le.PutUint64(data[off:], math.Float64bits(v))
			}
		}
	}

	return data
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func TestParseHeader(t *testing.T) {
	data := buildCapture(t, testSessionYAML, []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: constant(40, 120)},
	})

	c, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if c.Header.Version != 2 {
		t.Errorf("Version = %d, want 2", c.Header.Version)
	}
	if c.Header.TickRate != 60 {
		t.Errorf("TickRate = %d, want 60", c.Header.TickRate)
	}
	if c.DiskSubHeader.SessionRecordCount != 120 {
		t.Errorf("SessionRecordCount = %d, want 120", c.DiskSubHeader.SessionRecordCount)
	}
	if len(c.VarHeaders) != 1 || c.VarHeaders[0].Name != ChanSpeed {
		t.Errorf("unexpected var headers: %+v", c.VarHeaders)
	}
}

func TestParseTooSmall(t *testing.T) {
	_, err := Parse(make([]byte, 50), nil)
	if err == nil {
		t.Fatal("Parse of undersized buffer should fail")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("error should be a FormatError, got %T: %v", err, err)
	}
}

func TestParseSessionInfo(t *testing.T) {
	data := buildCapture(t, testSessionYAML, []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: constant(40, 120)},
	})

	c, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	s := c.Session
	if s.TrackName != "Mount Panorama Circuit" {
		t.Errorf("TrackName = %q", s.TrackName)
	}
	if s.TrackID != 219 {
		t.Errorf("TrackID = %d, want 219", s.TrackID)
	}
	if math.Abs(s.TrackLengthM-6210) > 1e-6 {
		t.Errorf("TrackLengthM = %v, want 6210", s.TrackLengthM)
	}
	if s.CarName != "Global Mazda MX-5 Cup" || s.CarID != 67 {
		t.Errorf("car = %q/%d", s.CarName, s.CarID)
	}
	if s.DriverName != "Test Driver" || s.DriverID != 411981 {
		t.Errorf("driver = %q/%d", s.DriverName, s.DriverID)
	}
	if s.SessionType != "Race" {
		t.Errorf("SessionType = %q, want Race (most recent session)", s.SessionType)
	}
}

func TestParseMalformedSessionInfo(t *testing.T) {
	data := buildCapture(t, "WeekendInfo: [unclosed", []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: constant(40, 120)},
	})

	c, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("malformed YAML should not fail the parse, got: %v", err)
	}
	if c.Session != (Session{}) {
		t.Errorf("malformed YAML should yield empty session, got %+v", c.Session)
	}
}

func TestParseSkipsUnknownTypes(t *testing.T) {
	data := buildCapture(t, testSessionYAML, []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: constant(40, 120)},
		{name: "Mystery", typ: VarType(9), values: constant(1, 120)},
	})

	c, err := Parse(data, []string{ChanSpeed, "Mystery"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !c.Telemetry.Has(ChanSpeed) {
		t.Error("Speed channel should be extracted")
	}
	if c.Telemetry.Has("Mystery") {
		t.Error("unknown-typed channel should be skipped")
	}
}

func TestParseChannelValues(t *testing.T) {
	speeds := ramp(10, 50, 200)
	gears := constant(3, 200)
	data := buildCapture(t, testSessionYAML, []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: speeds},
		{name: ChanGear, typ: VarInt, values: gears},
		{name: ChanSessionTime, typ: VarDouble, values: ramp(100, 103.3166, 200)},
	})

	c, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	speed, ok := c.Telemetry.Channel(ChanSpeed)
	if !ok || len(speed) != 200 {
		t.Fatalf("Speed channel missing or wrong length")
	}
	// float32 round trip tolerance
	if math.Abs(speed[0]-10) > 1e-4 || math.Abs(speed[199]-50) > 1e-4 {
		t.Errorf("speed endpoints = %v, %v", speed[0], speed[199])
	}

	gear, _ := c.Telemetry.Channel(ChanGear)
	if gear[100] != 3 {
		t.Errorf("gear[100] = %v, want 3", gear[100])
	}

	st, _ := c.Telemetry.Channel(ChanSessionTime)
	if math.Abs(st[0]-100) > 1e-12 {
		t.Errorf("double channel lost precision: %v", st[0])
	}
}

func TestParseTruncatedSampleBuffer(t *testing.T) {
	data := buildCapture(t, testSessionYAML, []testChannel{
		{name: ChanSpeed, typ: VarFloat, values: constant(40, 200)},
	})
	// Chop off the last 50 records' worth of bytes.
	data = data[:len(data)-50*4]

	c, err := Parse(data, nil)
	if err != nil {
		t.Fatalf("truncated sample buffer should clamp, not fail: %v", err)
	}
	speed, _ := c.Telemetry.Channel(ChanSpeed)
	if len(speed) != 150 {
		t.Errorf("clamped record count = %d, want 150", len(speed))
	}
}
