// Package units provides shared constants and conversions for speed and
// distance units. Telemetry channels store speed in m/s and distance in
// meters; these helpers convert for display and parse the unit-tagged
// strings that appear in session metadata.
package units

import (
	"strconv"
	"strings"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Telemetry stores speeds in m/s (meters per second).
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ParseTrackLength parses a session-metadata track length string like
// "3.60 km" or "2.45 mi" and returns the length in meters. A bare number
// is treated as kilometers, matching how the sim reports lengths.
// Malformed input returns 0 rather than an error; callers treat an
// unknown track length as "no coverage check possible".
func ParseTrackLength(s string) float64 {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}

	unit := "km"
	if len(fields) > 1 {
		unit = strings.ToLower(fields[1])
	}
	switch unit {
	case "km":
		return value * 1000
	case "mi", "mile", "miles":
		return value * 1609.344
	case "m":
		return value
	default:
		return value * 1000
	}
}
