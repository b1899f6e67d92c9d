package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	laserframe "github.com/mitchmindtree/laser-frame"
	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/monitor"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

// Batch size bounds for the points endpoint. A request above the cap is
// clamped rather than rejected.
const (
	defaultBatchPoints = 512
	maxBatchPoints     = 10000
)

// wirePoint is the flat wire form of one emitted point. Blanked points
// keep their position but carry zeroed colour channels.
type wirePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     uint8   `json:"r"`
	G     uint8   `json:"g"`
	B     uint8   `json:"b"`
	Blank bool    `json:"blank"`
}

func toWirePoints(batch []laserframe.Point[laser.Point]) []wirePoint {
	out := make([]wirePoint, len(batch))
	for i, pt := range batch {
		wp := wirePoint{X: pt.Payload.X, Y: pt.Payload.Y, Blank: pt.Blanked()}
		if !pt.Blanked() {
			wp.R, wp.G, wp.B = pt.Payload.R, pt.Payload.G, pt.Payload.B
		}
		out[i] = wp
	}
	return out
}

// statsAPI controls the wire form of a stats snapshot; without it the
// response would carry the snapshot's raw field names.
type statsAPI struct {
	PointsPerSec    float64 `json:"points_per_sec"`
	BlanksPerSec    float64 `json:"blanks_per_sec"`
	WrapCount       int64   `json:"wrap_count"`
	FramesSubmitted int64   `json:"frames_submitted"`
	Timestamp       string  `json:"timestamp"`
}

func statsToAPI(snap *monitor.StatsSnapshot) *statsAPI {
	if snap == nil {
		return nil
	}
	return &statsAPI{
		PointsPerSec:    snap.PointsPerSec,
		BlanksPerSec:    snap.BlanksPerSec,
		WrapCount:       snap.WrapCount,
		FramesSubmitted: snap.FramesSubmitted,
		Timestamp:       snap.Timestamp.Format(time.RFC3339),
	}
}

type streamStatusResponse struct {
	Stream        streammux.Status[laser.Point] `json:"stream"`
	Stats         *statsAPI                     `json:"stats,omitempty"`
	Metrics       monitor.FrameMetrics          `json:"metrics"`
	UptimeSeconds float64                       `json:"uptime_seconds"`
}

func (s *Server) showStreamStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := streamStatusResponse{
		Stream:  s.m.Status(),
		Metrics: monitor.ComputeFrameMetrics(s.m.CurrentFrame()),
	}
	if s.stats != nil {
		resp.Stats = statsToAPI(s.stats.GetLatestSnapshot())
		resp.UptimeSeconds = s.stats.GetUptime().Seconds()
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write stream status")
		return
	}
}

type submitFrameRequest struct {
	FrameID string        `json:"frame_id"`
	Points  []laser.Point `json:"points"`
}

// submitFrame replaces the live frame, either from an inline point list
// or from a stored frame looked up by ID. An empty inline list is legal:
// it clears the frame and the stream still blanks the last emitted
// point. Every accepted submission is recorded in the audit log.
func (s *Server) submitFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req submitFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if req.FrameID != "" && req.Points != nil {
		s.writeJSONError(w, http.StatusBadRequest, "'frame_id' and 'points' are mutually exclusive")
		return
	}
	if req.FrameID == "" && req.Points == nil {
		s.writeJSONError(w, http.StatusBadRequest, "Request needs either 'frame_id' or 'points'")
		return
	}

	points := req.Points
	source := "inline"
	if req.FrameID != "" {
		record, err := s.frames.GetFrame(req.FrameID)
		if err != nil {
			if errors.Is(err, framestore.ErrNotFound) {
				s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Frame %s not found", req.FrameID))
				return
			}
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load frame: %v", err))
			return
		}
		points = record.Points
		source = "store"
	}

	if err := laser.ValidateFrame(points); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid frame: %v", err))
		return
	}

	s.m.SubmitFrame(points)

	sub := &framestore.Submission{
		FrameID:    req.FrameID,
		Source:     source,
		PointCount: len(points),
	}
	if err := s.frames.RecordSubmission(sub); err != nil {
		// The frame already reached the mux; the audit row is best-effort.
		log.Printf("record submission: %v", err)
	}

	resp := map[string]interface{}{
		"status":      "submitted",
		"source":      source,
		"point_count": len(points),
	}
	if req.FrameID != "" {
		resp["frame_id"] = req.FrameID
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write response")
		return
	}
}

type pullPointsResponse struct {
	Points []wirePoint `json:"points"`
	Count  int         `json:"count"`
}

// pullPoints advances the stream and returns the next batch: the surface
// a DAC driver polls. Pulling mutates streamer state, hence POST.
func (s *Server) pullPoints(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count := defaultBatchPoints
	if c := r.URL.Query().Get("count"); c != "" {
		parsed, err := strconv.Atoi(c)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'count' parameter")
			return
		}
		count = parsed
	}
	if count > maxBatchPoints {
		count = maxBatchPoints
	}

	batch := s.m.NextBatch(count)

	resp := pullPointsResponse{
		Points: toWirePoints(batch),
		Count:  len(batch),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write points")
		return
	}
}
