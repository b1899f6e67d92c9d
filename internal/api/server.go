// Package api serves the HTTP surface of the streaming daemon: stream
// control, frame store CRUD, pattern generation and the health check.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/monitor"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

// ANSI escape codes used by the request logger
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	m       streammux.StreamMuxInterface[laser.Point]
	frames  *framestore.FrameStore
	stats   *monitor.StreamStats
	version string
}

// NewServer creates the API server. The stats collector may be nil, in
// which case the status endpoint omits the rate snapshot.
func NewServer(m streammux.StreamMuxInterface[laser.Point], frames *framestore.FrameStore, stats *monitor.StreamStats, version string) *Server {
	return &Server{
		m:       m,
		frames:  frames,
		stats:   stats,
		version: version,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/api/stream/status", s.showStreamStatus)
	mux.HandleFunc("/api/stream/frame", s.submitFrame)
	mux.HandleFunc("/api/stream/points", s.pullPoints)
	mux.HandleFunc("/api/frames", s.handleFrames)
	mux.HandleFunc("/api/frames/generate", s.generateFrame)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/frame/rename", s.renameFrame)
	mux.HandleFunc("/api/frame/export", s.exportFrame)
	mux.HandleFunc("/api/patterns", s.listPatterns)
	mux.HandleFunc("/api/submissions", s.listSubmissions)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := map[string]string{
		"status":  "ok",
		"version": s.version,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write health response")
		return
	}
}
