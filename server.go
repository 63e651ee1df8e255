package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/corners"
	"github.com/lapsight-data/lapsight/internal/ibt"
	"github.com/lapsight-data/lapsight/internal/report"
	"github.com/lapsight-data/lapsight/internal/trackdb"
)

// maxUploadBytes bounds telemetry uploads; an hour-long capture with
// every channel stays well under this.
const maxUploadBytes = 512 << 20

type Server struct {
	db    *trackdb.DB
	coach *coach.Coach
}

func NewServer(db *trackdb.DB, c *coach.Coach) *Server {
	return &Server{db: db, coach: c}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/tracks", s.listTracks)
	mux.HandleFunc("GET /api/tracks/{id}/corners", s.listCorners)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("lapsight telemetry coach\n\nPOST /api/analyze with an .ibt capture to get started.\n"))
}

// handleAnalyze accepts a multipart upload ("telemetry" field) with an
// optional track_type ("road", "street", "oval") and format ("json" or
// "html") and runs the full coaching pipeline.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "expected multipart form upload: "+err.Error())
		return
	}
	file, _, err := r.FormFile("telemetry")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing telemetry file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	trackType := corners.TrackRoad
	if v := r.FormValue("track_type"); v != "" {
		trackType, err = corners.ParseTrackType(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	analysis, err := s.coach.AnalyzeSession(data, trackType)
	if err != nil {
		status := http.StatusInternalServerError
		var formatErr *ibt.FormatError
		var insufficient *coach.InsufficientDataError
		switch {
		case errors.As(err, &formatErr):
			status = http.StatusBadRequest
		case errors.As(err, &insufficient):
			status = http.StatusUnprocessableEntity
		}
		writeJSONError(w, status, err.Error())
		return
	}

	if s.db != nil {
		if err := s.db.RecordAnalysis(analysis); err != nil {
			log.Printf("failed to record analysis %s: %v", analysis.ID, err)
		}
	}

	if r.FormValue("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.RenderHTML(w, analysis, analysis.ReferenceTrace, analysis.ComparisonTrace); err != nil {
			log.Printf("failed to render report for %s: %v", analysis.ID, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.db.Tracks()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list tracks: "+err.Error())
		return
	}
	if tracks == nil {
		tracks = []trackdb.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) listCorners(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "track id must be numeric")
		return
	}
	layout, err := s.db.CornersByIRacingID(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load corners: "+err.Error())
		return
	}
	if layout == nil {
		layout = []trackdb.NamedCorner{}
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.SessionSummaries()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list sessions: "+err.Error())
		return
	}
	if sessions == nil {
		sessions = []trackdb.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
