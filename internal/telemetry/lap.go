// Package telemetry converts time-indexed lap samples into the
// distance-indexed representation the rest of the pipeline works on.
// Every lap is resampled onto a uniform distance grid so channels can
// be compared point-for-point across laps of different durations.
package telemetry

// NormalizedLap is the canonical analysis unit: one lap's channels
// resampled onto a uniform distance grid. All slices are parallel and
// equal length. Instances are treated as immutable once built.
type NormalizedLap struct {
	LapNumber   int     `json:"lap_number"`
	LapTime     float64 `json:"lap_time"`
	TrackLength float64 `json:"track_length"`

	Distance    []float64 `json:"distance"`
	Speed       []float64 `json:"speed"`
	Throttle    []float64 `json:"throttle"`
	Brake       []float64 `json:"brake"`
	Steering    []float64 `json:"steering"`
	Gear        []float64 `json:"gear"`
	RPM         []float64 `json:"rpm"`
	Lat         []float64 `json:"lat"`
	Lon         []float64 `json:"lon"`
	ElapsedTime []float64 `json:"elapsed_time"`

	// Valid marks laps that passed distance-channel validation; only
	// valid laps propagate into comparison and coaching.
	Valid bool `json:"valid"`
}

// emptyLap returns a zero-sample lap, used for degenerate inputs.
func emptyLap(lapNumber int, trackLength float64) NormalizedLap {
	return NormalizedLap{
		LapNumber:   lapNumber,
		TrackLength: trackLength,
		Distance:    []float64{},
		Speed:       []float64{},
		Throttle:    []float64{},
		Brake:       []float64{},
		Steering:    []float64{},
		Gear:        []float64{},
		RPM:         []float64{},
		Lat:         []float64{},
		Lon:         []float64{},
		ElapsedTime: []float64{},
		Valid:       false,
	}
}
