package trackdb

import (
	"math"

	"github.com/lapsight-data/lapsight/internal/corners"
)

// apexProximityM is how close a detected apex must sit to a stored
// corner's midpoint to match when the distance ranges do not overlap.
const apexProximityM = 50.0

// Registry resolves detected corners against the stored layouts. It
// satisfies the coach's corner-naming dependency.
type Registry struct {
	db *DB
}

func NewRegistry(db *DB) *Registry {
	return &Registry{db: db}
}

// CornerNames maps detected corner numbers to stored names for the
// track. Lookup tries the iRacing id first, then the exact track name.
// Detected corners rarely align exactly with published boundaries, so
// matching is by largest distance-range overlap, falling back to
// apex-to-midpoint proximity.
func (r *Registry) CornerNames(trackID int, trackName string, seg corners.Segmentation) (map[int]string, error) {
	stored, err := r.db.CornersByIRacingID(trackID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 && trackName != "" {
		stored, err = r.db.CornersByTrackName(trackName)
		if err != nil {
			return nil, err
		}
	}
	if len(stored) == 0 {
		// First sighting of this track: record the detected geometry so
		// later community imports can attach names to it.
		if trackName != "" {
			err := r.db.SeedDetected(Track{
				IRacingID: trackID,
				Name:      trackName,
				LengthM:   seg.TrackLength,
			}, seg)
			if err != nil {
				return nil, err
			}
		}
		return map[int]string{}, nil
	}

	names := make(map[int]string, len(seg.Corners))
	for _, detected := range seg.Corners {
		if match, ok := matchCorner(detected, stored); ok && match.Name != "" {
			names[detected.Number] = match.Name
		}
	}
	return names, nil
}

func matchCorner(detected corners.Corner, stored []NamedCorner) (NamedCorner, bool) {
	var best NamedCorner
	bestOverlap := 0.0
	for _, s := range stored {
		o := overlap(detected.StartDistance, detected.EndDistance, s.StartDistance, s.EndDistance)
		if o > bestOverlap {
			bestOverlap = o
			best = s
		}
	}
	if bestOverlap > 0 {
		return best, true
	}

	// No range overlap: take the stored corner whose midpoint is
	// nearest the detected apex, if it is near at all.
	bestDist := math.Inf(1)
	for _, s := range stored {
		mid := (s.StartDistance + s.EndDistance) / 2
		d := math.Abs(detected.ApexDistance - mid)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	if bestDist <= apexProximityM {
		return best, true
	}
	return NamedCorner{}, false
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := math.Max(aStart, bStart)
	hi := math.Min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
