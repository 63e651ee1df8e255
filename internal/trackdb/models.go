package trackdb

// Track is one stored circuit. IRacingID is zero when the seed source
// did not carry the simulator's numeric id.
type Track struct {
	ID        int64   `json:"id"`
	IRacingID int     `json:"iracing_id,omitempty"`
	Name      string  `json:"name"`
	LengthM   float64 `json:"length_m"`
	Type      string  `json:"track_type"`
}

// NamedCorner is one published corner of a track, as a distance range
// from the start line.
type NamedCorner struct {
	Number        int     `json:"number"`
	Name          string  `json:"name"`
	StartDistance float64 `json:"distance_start"`
	EndDistance   float64 `json:"distance_end"`
}

// SessionSummary is one stored analysis, without the full trace data.
type SessionSummary struct {
	ID              string  `json:"id"`
	TrackName       string  `json:"track_name"`
	Car             string  `json:"car"`
	Driver          string  `json:"driver"`
	SessionType     string  `json:"session_type"`
	ReferenceLap    int     `json:"reference_lap"`
	ComparisonLap   int     `json:"comparison_lap"`
	TotalDelta      float64 `json:"total_delta"`
	TheoreticalBest float64 `json:"theoretical_best"`
}
