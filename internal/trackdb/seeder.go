package trackdb

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// crewChiefFile mirrors the Crew Chief trackLandmarksData.json layout:
// one entry per track, landmarks as distance ranges round the lap.
type crewChiefFile struct {
	TrackLandmarksData []struct {
		IRTrackName    string `json:"irTrackName"`
		TrackLandmarks []struct {
			Name  string  `json:"landmarkName"`
			Start float64 `json:"distanceRoundLapStart"`
			End   float64 `json:"distanceRoundLapEnd"`
		} `json:"trackLandmarks"`
	} `json:"TrackLandmarksData"`
}

// SeedCrewChief imports corner layouts from a Crew Chief landmarks
// file. Entries without an iRacing track name belong to other sims and
// are skipped. overrides rewrites landmark names (the community data
// has a few local nicknames) keyed as "track/landmark". Returns the
// number of tracks and corners imported.
func (db *DB) SeedCrewChief(r io.Reader, overrides map[string]string) (int, int, error) {
	var file crewChiefFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return 0, 0, fmt.Errorf("decode landmarks file: %w", err)
	}

	tracksSeeded, cornersSeeded := 0, 0
	for _, entry := range file.TrackLandmarksData {
		if entry.IRTrackName == "" || len(entry.TrackLandmarks) == 0 {
			continue
		}

		trackRef, err := db.UpsertTrack(Track{Name: entry.IRTrackName, Type: "road"})
		if err != nil {
			return tracksSeeded, cornersSeeded, err
		}

		landmarks := entry.TrackLandmarks
		sort.Slice(landmarks, func(i, j int) bool { return landmarks[i].Start < landmarks[j].Start })

		named := make([]NamedCorner, 0, len(landmarks))
		for i, lm := range landmarks {
			name := lm.Name
			if override, ok := overrides[entry.IRTrackName+"/"+lm.Name]; ok {
				name = override
			}
			named = append(named, NamedCorner{
				Number:        i + 1,
				Name:          name,
				StartDistance: lm.Start,
				EndDistance:   lm.End,
			})
		}
		if err := db.ReplaceCorners(trackRef, named); err != nil {
			return tracksSeeded, cornersSeeded, err
		}
		tracksSeeded++
		cornersSeeded += len(named)
	}
	return tracksSeeded, cornersSeeded, nil
}
