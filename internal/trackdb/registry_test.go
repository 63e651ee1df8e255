package trackdb

import (
	"testing"

	"github.com/lapsight-data/lapsight/internal/corners"
)

func seedBathurst(t *testing.T, db *DB) {
	t.Helper()
	ref, err := db.UpsertTrack(Track{Name: "Mount Panorama Circuit", IRacingID: 219})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	err = db.ReplaceCorners(ref, []NamedCorner{
		{Number: 1, Name: "Hell Corner", StartDistance: 200, EndDistance: 350},
		{Number: 2, Name: "Griffins Bend", StartDistance: 1450, EndDistance: 1650},
		{Number: 3, Name: "The Cutting", StartDistance: 1900, EndDistance: 2050},
	})
	if err != nil {
		t.Fatalf("ReplaceCorners failed: %v", err)
	}
}

func TestRegistryMatchesByOverlap(t *testing.T) {
	db := testDB(t)
	seedBathurst(t, db)

	seg := corners.Segmentation{Corners: []corners.Corner{
		// Overlaps Hell Corner's range, offset as detection usually is.
		{Number: 1, StartDistance: 150, ApexDistance: 280, EndDistance: 320},
		// Overlaps Griffins Bend.
		{Number: 2, StartDistance: 1500, ApexDistance: 1560, EndDistance: 1700},
	}}

	names, err := NewRegistry(db).CornerNames(219, "Mount Panorama Circuit", seg)
	if err != nil {
		t.Fatalf("CornerNames failed: %v", err)
	}
	if names[1] != "Hell Corner" || names[2] != "Griffins Bend" {
		t.Errorf("names = %v", names)
	}
}

func TestRegistryApexProximityFallback(t *testing.T) {
	db := testDB(t)
	seedBathurst(t, db)

	seg := corners.Segmentation{Corners: []corners.Corner{
		// No range overlap with The Cutting (1900-2050), but the apex is
		// within 50 m of its midpoint (1975).
		{Number: 1, StartDistance: 2060, ApexDistance: 2010, EndDistance: 2120},
		// Nowhere near anything stored.
		{Number: 2, StartDistance: 4000, ApexDistance: 4100, EndDistance: 4200},
	}}

	names, err := NewRegistry(db).CornerNames(219, "Mount Panorama Circuit", seg)
	if err != nil {
		t.Fatalf("CornerNames failed: %v", err)
	}
	if names[1] != "The Cutting" {
		t.Errorf("proximity match = %q, want The Cutting", names[1])
	}
	if _, ok := names[2]; ok {
		t.Error("far corner should stay unnamed, never guessed")
	}
}

func TestRegistryFallsBackToTrackName(t *testing.T) {
	db := testDB(t)
	// Seeded without an iRacing id (community data often lacks it).
	ref, err := db.UpsertTrack(Track{Name: "Okayama International Circuit"})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	if err := db.ReplaceCorners(ref, []NamedCorner{
		{Number: 1, Name: "Williams", StartDistance: 500, EndDistance: 650},
	}); err != nil {
		t.Fatalf("ReplaceCorners failed: %v", err)
	}

	seg := corners.Segmentation{Corners: []corners.Corner{
		{Number: 1, StartDistance: 480, ApexDistance: 560, EndDistance: 640},
	}}
	names, err := NewRegistry(db).CornerNames(166, "Okayama International Circuit", seg)
	if err != nil {
		t.Fatalf("CornerNames failed: %v", err)
	}
	if names[1] != "Williams" {
		t.Errorf("name lookup by track name failed: %v", names)
	}
}

func TestRegistryUnknownTrack(t *testing.T) {
	db := testDB(t)

	seg := corners.Segmentation{Corners: []corners.Corner{
		{Number: 1, StartDistance: 100, ApexDistance: 150, EndDistance: 200},
	}}
	names, err := NewRegistry(db).CornerNames(999, "Nowhere Raceway", seg)
	if err != nil {
		t.Fatalf("unknown track should not error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("unknown track should yield no names, got %v", names)
	}

	// The detected geometry is recorded for later naming, unnamed.
	stored, err := db.CornersByTrackName("Nowhere Raceway")
	if err != nil {
		t.Fatalf("CornersByTrackName failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Name != "" || stored[0].StartDistance != 100 {
		t.Errorf("detected layout not seeded: %v", stored)
	}

	// A second analysis must not duplicate or overwrite the layout.
	if _, err := NewRegistry(db).CornerNames(999, "Nowhere Raceway", seg); err != nil {
		t.Fatalf("repeat CornerNames failed: %v", err)
	}
	stored, err = db.CornersByTrackName("Nowhere Raceway")
	if err != nil {
		t.Fatalf("CornersByTrackName failed: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("seeded layout duplicated: %v", stored)
	}
}
