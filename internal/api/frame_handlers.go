package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/security"
)

// handleFrames dispatches the frame collection endpoint: GET lists
// stored frames, POST saves a new one.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		s.listFrames(w, r)
	case http.MethodPost:
		s.saveFrame(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listFrames(w http.ResponseWriter, r *http.Request) {
	limit := 0 // store default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	frames, err := s.frames.ListFrames(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list frames: %v", err))
		return
	}
	if frames == nil {
		frames = []*framestore.FrameRecord{}
	}

	if err := json.NewEncoder(w).Encode(frames); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frames")
		return
	}
}

type saveFrameRequest struct {
	Name   string        `json:"name"`
	Points []laser.Point `json:"points"`
}

func (s *Server) saveFrame(w http.ResponseWriter, r *http.Request) {
	var req saveFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Points == nil {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'points' field")
		return
	}
	if err := laser.ValidateFrame(req.Points); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid frame: %v", err))
		return
	}

	record := &framestore.FrameRecord{
		Name:   req.Name,
		Points: req.Points,
	}
	if err := s.frames.InsertFrame(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save frame: %v", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
		return
	}
}

// handleFrame serves a single stored frame by ID: GET retrieves it with
// its points, DELETE removes it.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	frameID := r.URL.Query().Get("frame_id")
	if frameID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'frame_id' parameter")
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := s.frames.GetFrame(frameID)
		if err != nil {
			if errors.Is(err, framestore.ErrNotFound) {
				s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", frameID))
				return
			}
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load frame: %v", err))
			return
		}
		if err := json.NewEncoder(w).Encode(record); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
			return
		}
	case http.MethodDelete:
		if err := s.frames.DeleteFrame(frameID); err != nil {
			if errors.Is(err, framestore.ErrNotFound) {
				s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", frameID))
				return
			}
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete frame: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type renameFrameRequest struct {
	FrameID string `json:"frame_id"`
	Name    string `json:"name"`
}

func (s *Server) renameFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req renameFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.FrameID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'frame_id' field")
		return
	}
	if req.Name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'name' field")
		return
	}

	record, err := s.frames.GetFrame(req.FrameID)
	if err != nil {
		if errors.Is(err, framestore.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", req.FrameID))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load frame: %v", err))
		return
	}

	record.Name = req.Name
	if err := s.frames.UpdateFrame(record); err != nil {
		if errors.Is(err, framestore.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", req.FrameID))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to rename frame: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
		return
	}
}

// exportFrame serves a stored frame as a JSON file download. The body
// matches the save endpoint's request shape, so an exported file can be
// posted straight back to /api/frames or /api/stream/frame.
func (s *Server) exportFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	frameID := r.URL.Query().Get("frame_id")
	if frameID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'frame_id' parameter")
		return
	}

	record, err := s.frames.GetFrame(frameID)
	if err != nil {
		if errors.Is(err, framestore.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", frameID))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load frame: %v", err))
		return
	}

	// The download filename embeds the user-supplied frame name.
	name := record.Name
	if name == "" {
		name = record.FrameID
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", security.SanitizeFilename(name)))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(saveFrameRequest{Name: record.Name, Points: record.Points}); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
		return
	}
}

func (s *Server) listPatterns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := map[string]interface{}{
		"patterns": laser.PatternNames(),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write patterns")
		return
	}
}

type colorSpec struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type generateFrameRequest struct {
	Pattern string     `json:"pattern"`
	Name    string     `json:"name"`
	Points  int        `json:"points"`
	Radius  float64    `json:"radius"`
	Spokes  int        `json:"spokes"`
	FreqX   int        `json:"freq_x"`
	FreqY   int        `json:"freq_y"`
	Color   *colorSpec `json:"color"`
}

// generateFrame builds a synthetic pattern frame and saves it to the
// store. Zero-valued tuning fields fall back to the generator defaults.
func (s *Server) generateFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req generateFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Pattern == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'pattern' field")
		return
	}
	if req.Points < 0 || req.Points > laser.MaxFramePoints {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'points' field")
		return
	}

	gen := laser.NewGenerator()
	if req.Points > 0 {
		gen.PointCount = req.Points
	}
	if req.Radius > 0 {
		gen.Radius = req.Radius
	}
	if req.Spokes > 0 {
		gen.Spokes = req.Spokes
	}
	if req.FreqX > 0 {
		gen.FreqX = req.FreqX
	}
	if req.FreqY > 0 {
		gen.FreqY = req.FreqY
	}
	if req.Color != nil {
		gen.R, gen.G, gen.B = req.Color.R, req.Color.G, req.Color.B
	}

	points, err := gen.Generate(req.Pattern)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to generate frame: %v", err))
		return
	}

	name := req.Name
	if name == "" {
		name = req.Pattern
	}

	record := &framestore.FrameRecord{
		Name:   name,
		Points: points,
	}
	if err := s.frames.InsertFrame(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save frame: %v", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
		return
	}
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 0 // store default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	subs, err := s.frames.ListSubmissions(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list submissions: %v", err))
		return
	}
	if subs == nil {
		subs = []*framestore.Submission{}
	}

	if err := json.NewEncoder(w).Encode(subs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write submissions")
		return
	}
}
