// Package ibt reads iRacing .ibt binary telemetry captures.
//
// An .ibt file is laid out as:
//
//	[header          - 112 bytes]
//	[disk sub-header -  32 bytes]
//	[session info YAML at SessionInfoOffset, SessionInfoLen bytes]
//	[var headers at VarHeaderOffset, NumVars * 144 bytes]
//	[samples at varBuf[0].bufOffset, recordCount * BufLen bytes]
//
// The package exposes the parsed header blocks, the session metadata,
// and the requested telemetry channels as uniform float64 columns.
package ibt

// Binary layout constants. All integers are little-endian.
const (
	headerFieldsSize  = 40 // 10 int32 fields
	headerPadSize     = 8  // pad1[2]
	varBufEntrySize   = 16 // tickCount, bufOffset, pad[2]
	varBufEntryCount  = 4
	totalHeaderSize   = headerFieldsSize + headerPadSize + varBufEntrySize*varBufEntryCount // 112
	diskSubHeaderSize = 32
	varHeaderSize     = 144

	varHeaderNameLen = 32
	varHeaderDescLen = 64
	varHeaderUnitLen = 32
)

// VarType identifies the storage encoding of one telemetry channel.
type VarType int32

// Channel storage types as they appear in the var header table.
const (
	VarChar     VarType = 0
	VarBool     VarType = 1
	VarInt      VarType = 2
	VarBitField VarType = 3
	VarFloat    VarType = 4
	VarDouble   VarType = 5
)

// byteSize returns the per-sample width of the type, or 0 when the type
// is unknown and the channel should be skipped.
func (t VarType) byteSize() int {
	switch t {
	case VarChar, VarBool:
		return 1
	case VarInt, VarBitField, VarFloat:
		return 4
	case VarDouble:
		return 8
	default:
		return 0
	}
}

// Header is the fixed 112-byte file header.
type Header struct {
	Version           int32
	Status            int32
	TickRate          int32
	SessionInfoUpdate int32
	SessionInfoLen    int32
	SessionInfoOffset int32
	NumVars           int32
	VarHeaderOffset   int32
	NumBuf            int32
	BufLen            int32
	VarBufOffset      int32 // from varBuf[0].bufOffset
}

// DiskSubHeader carries session-level counters recorded at capture time.
type DiskSubHeader struct {
	SessionStartDate   int64
	SessionStartTime   float64
	SessionEndTime     float64
	SessionLapCount    int32
	SessionRecordCount int32
}

// VarHeader describes a single telemetry channel within a sample record.
type VarHeader struct {
	Type        VarType
	Offset      int32
	Count       int32
	CountAsTime bool
	Name        string
	Desc        string
	Unit        string
}

// Capture is a fully parsed .ibt file.
type Capture struct {
	Header        Header
	DiskSubHeader DiskSubHeader
	Session       Session
	VarHeaders    []VarHeader
	Telemetry     *Telemetry
}

// Names of the channels the coaching pipeline consumes.
const (
	ChanSpeed          = "Speed"
	ChanThrottle       = "Throttle"
	ChanBrake          = "Brake"
	ChanSteering       = "SteeringWheelAngle"
	ChanLat            = "Lat"
	ChanLon            = "Lon"
	ChanAlt            = "Alt"
	ChanLap            = "Lap"
	ChanLapCurrentTime = "LapCurrentLapTime"
	ChanLapDist        = "LapDist"
	ChanLapDistPct     = "LapDistPct"
	ChanSessionTime    = "SessionTime"
	ChanSessionTick    = "SessionTick"
	ChanRPM            = "RPM"
	ChanGear           = "Gear"
	ChanTrackSurface   = "PlayerTrackSurface"
	ChanIncidentCount  = "PlayerCarMyIncidentCount"
	ChanOnPitRoad      = "OnPitRoad"
)

// CoreChannels is the default channel set extracted by Parse.
var CoreChannels = []string{
	ChanSpeed,
	ChanThrottle,
	ChanBrake,
	ChanSteering,
	ChanLat,
	ChanLon,
	ChanAlt,
	ChanLap,
	ChanLapCurrentTime,
	ChanLapDist,
	ChanLapDistPct,
	ChanSessionTime,
	ChanSessionTick,
	ChanRPM,
	ChanGear,
	ChanTrackSurface,
	ChanIncidentCount,
	ChanOnPitRoad,
}
