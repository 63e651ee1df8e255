// Package trackdb persists track corner layouts and analysis history
// in a local sqlite database. Corner layouts come from seeded community
// data; analyses are appended as sessions are processed.
package trackdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/corners"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database at path and
// ensures the baseline schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			iracing_id        INTEGER,
			name              TEXT UNIQUE NOT NULL,
			length_m          DOUBLE DEFAULT 0,
			track_type        TEXT DEFAULT 'road'
		);
		CREATE TABLE IF NOT EXISTS corners (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			track_ref         INTEGER NOT NULL,
			number            INTEGER,
			name              TEXT,
			distance_start    DOUBLE,
			distance_end      DOUBLE,
			FOREIGN KEY(track_ref) REFERENCES tracks(id)
		);
		CREATE TABLE IF NOT EXISTS sessions (
			id                TEXT PRIMARY KEY,
			track_name        TEXT,
			car               TEXT,
			driver            TEXT,
			session_type      TEXT,
			track_type        TEXT,
			reference_lap     INTEGER,
			comparison_lap    INTEGER,
			total_delta       DOUBLE,
			theoretical_best  DOUBLE,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS session_laps (
			session_id        TEXT NOT NULL,
			lap_number        INTEGER,
			lap_time          DOUBLE,
			disrupted         INTEGER DEFAULT 0,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// UpsertTrack inserts or updates a track by name and returns its row id.
func (db *DB) UpsertTrack(t Track) (int64, error) {
	_, err := db.Exec(`
		INSERT INTO tracks (iracing_id, name, length_m, track_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			iracing_id = CASE WHEN excluded.iracing_id != 0 THEN excluded.iracing_id ELSE tracks.iracing_id END,
			length_m   = CASE WHEN excluded.length_m > 0 THEN excluded.length_m ELSE tracks.length_m END,
			track_type = excluded.track_type`,
		t.IRacingID, t.Name, t.LengthM, t.Type,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert track %q: %w", t.Name, err)
	}

	var id int64
	if err := db.QueryRow(`SELECT id FROM tracks WHERE name = ?`, t.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Tracks lists every stored track.
func (db *DB) Tracks() ([]Track, error) {
	rows, err := db.Query(`SELECT id, iracing_id, name, length_m, track_type FROM tracks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		var iracingID sql.NullInt64
		if err := rows.Scan(&t.ID, &iracingID, &t.Name, &t.LengthM, &t.Type); err != nil {
			return nil, err
		}
		t.IRacingID = int(iracingID.Int64)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceCorners swaps a track's corner layout for the given set.
func (db *DB) ReplaceCorners(trackRef int64, corners []NamedCorner) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM corners WHERE track_ref = ?`, trackRef); err != nil {
		return err
	}
	for _, c := range corners {
		_, err := tx.Exec(`
			INSERT INTO corners (track_ref, number, name, distance_start, distance_end)
			VALUES (?, ?, ?, ?, ?)`,
			trackRef, c.Number, c.Name, c.StartDistance, c.EndDistance,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedDetected records a detected corner layout for a track that has no
// stored corners yet. The rows carry geometry only; names stay empty
// until community data is imported. Tracks with an existing layout are
// left untouched.
func (db *DB) SeedDetected(t Track, seg corners.Segmentation) error {
	ref, err := db.UpsertTrack(t)
	if err != nil {
		return err
	}

	var existing int
	if err := db.QueryRow(`SELECT COUNT(*) FROM corners WHERE track_ref = ?`, ref).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	layout := make([]NamedCorner, 0, len(seg.Corners))
	for _, c := range seg.Corners {
		layout = append(layout, NamedCorner{
			Number:        c.Number,
			StartDistance: c.StartDistance,
			EndDistance:   c.EndDistance,
		})
	}
	return db.ReplaceCorners(ref, layout)
}

// CornersByTrackName returns the stored corner layout for a track,
// matched by exact name.
func (db *DB) CornersByTrackName(name string) ([]NamedCorner, error) {
	return db.queryCorners(`
		SELECT c.number, c.name, c.distance_start, c.distance_end
		FROM corners c JOIN tracks t ON c.track_ref = t.id
		WHERE t.name = ? ORDER BY c.distance_start`, name)
}

// CornersByIRacingID returns the stored corner layout for a track,
// matched by its iRacing track id.
func (db *DB) CornersByIRacingID(id int) ([]NamedCorner, error) {
	return db.queryCorners(`
		SELECT c.number, c.name, c.distance_start, c.distance_end
		FROM corners c JOIN tracks t ON c.track_ref = t.id
		WHERE t.iracing_id = ? ORDER BY c.distance_start`, id)
}

func (db *DB) queryCorners(query string, arg any) ([]NamedCorner, error) {
	rows, err := db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedCorner
	for rows.Next() {
		var c NamedCorner
		if err := rows.Scan(&c.Number, &c.Name, &c.StartDistance, &c.EndDistance); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecordAnalysis appends one completed analysis and its lap summaries.
func (db *DB) RecordAnalysis(a *coach.Analysis) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (
			id, track_name, car, driver, session_type, track_type,
			reference_lap, comparison_lap, total_delta, theoretical_best
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Session.TrackName, a.Session.CarName, a.Session.DriverName,
		a.Session.SessionType, a.TrackType,
		a.ReferenceLap, a.ComparisonLap, a.Comparison.TotalDelta, a.Theoretical.BestTime,
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", a.ID, err)
	}

	for _, lap := range a.Laps {
		_, err := tx.Exec(`
			INSERT INTO session_laps (session_id, lap_number, lap_time, disrupted)
			VALUES (?, ?, ?, ?)`,
			a.ID, lap.LapNumber, lap.LapTime, lap.Disrupted,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SessionSummaries lists stored analyses, newest first.
func (db *DB) SessionSummaries() ([]SessionSummary, error) {
	rows, err := db.Query(`
		SELECT id, track_name, car, driver, session_type,
		       reference_lap, comparison_lap, total_delta, theoretical_best
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		err := rows.Scan(&s.ID, &s.TrackName, &s.Car, &s.Driver, &s.SessionType,
			&s.ReferenceLap, &s.ComparisonLap, &s.TotalDelta, &s.TheoreticalBest)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
