package ibt

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/lapsight-data/lapsight/internal/units"
)

// Session is the metadata extracted from the embedded YAML block.
// TrackLengthM is normalized to meters regardless of the unit the sim
// reported.
type Session struct {
	TrackName    string
	TrackID      int
	TrackLengthM float64
	CarName      string
	CarID        int
	DriverName   string
	DriverID     int
	SessionType  string
}

// sessionYAML maps only the fields the pipeline needs; everything else
// in the (large) session info document is ignored.
type sessionYAML struct {
	WeekendInfo struct {
		TrackDisplayName string `yaml:"TrackDisplayName"`
		TrackID          int    `yaml:"TrackID"`
		TrackLength      string `yaml:"TrackLength"`
	} `yaml:"WeekendInfo"`
	DriverInfo struct {
		DriverCarIdx int `yaml:"DriverCarIdx"`
		Drivers      []struct {
			CarScreenName string `yaml:"CarScreenName"`
			CarID         int    `yaml:"CarID"`
			UserName      string `yaml:"UserName"`
			UserID        int    `yaml:"UserID"`
		} `yaml:"Drivers"`
	} `yaml:"DriverInfo"`
	SessionInfo struct {
		Sessions []struct {
			SessionType string `yaml:"SessionType"`
		} `yaml:"Sessions"`
	} `yaml:"SessionInfo"`
}

// readSessionInfo parses the YAML session block. Any parse failure
// yields an empty Session; missing fields default to zero values. The
// session block being unreadable never fails the capture as a whole.
func readSessionInfo(data []byte, h Header) Session {
	start := int(h.SessionInfoOffset)
	end := start + int(h.SessionInfoLen)
	if start < 0 || end > len(data) || start >= end {
		return Session{}
	}

	raw := data[start:end]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	var doc sessionYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Session{}
	}

	s := Session{
		TrackName:    doc.WeekendInfo.TrackDisplayName,
		TrackID:      doc.WeekendInfo.TrackID,
		TrackLengthM: units.ParseTrackLength(doc.WeekendInfo.TrackLength),
	}

	drivers := doc.DriverInfo.Drivers
	idx := doc.DriverInfo.DriverCarIdx
	if idx >= 0 && idx < len(drivers) {
		s.CarName = drivers[idx].CarScreenName
		s.CarID = drivers[idx].CarID
		s.DriverName = drivers[idx].UserName
		s.DriverID = drivers[idx].UserID
	}

	if sessions := doc.SessionInfo.Sessions; len(sessions) > 0 {
		s.SessionType = sessions[len(sessions)-1].SessionType
	}
	return s
}
