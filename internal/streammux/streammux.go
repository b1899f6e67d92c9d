// Package streammux owns the live point streamer behind a mutex so that
// frame submissions and point pulls coming from different goroutines stay
// serialized, and fans every emitted batch out to subscribers for live
// monitoring.
package streammux

import (
	"bytes"
	crand "crypto/rand"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"

	"tailscale.com/tsweb"

	laserframe "github.com/mitchmindtree/laser-frame"
)

//go:embed templates/*
var adminTemplateFS embed.FS

var submitFrameTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/submit-frame.html.tmpl"))

// StreamStatsInterface provides emission statistics management
type StreamStatsInterface interface {
	AddEmitted(count int)
	AddBlanks(count int)
	AddWrap()
	AddFrameSubmitted(points int)
}

// Status is a point-in-time view of the streamer state and its subscribers.
type Status[P any] struct {
	FrameLen     int   `json:"frame_len"`
	Cursor       int   `json:"cursor"`
	PendingBlank bool  `json:"pending_blank"`
	LastEmitted  *P    `json:"last_emitted,omitempty"`
	Subscribers  int   `json:"subscribers"`
	TotalPoints  int64 `json:"total_points"`
	TotalBlanks  int64 `json:"total_blanks"`
	TotalWraps   int64 `json:"total_wraps"`
	TotalFrames  int64 `json:"total_frames"`
}

// EmittedPoint is the wire form of one streamed point: the payload tagged
// with a kind string ("regular" or "blank").
type EmittedPoint[P any] struct {
	Kind    string `json:"kind"`
	Payload P      `json:"payload"`
}

// WirePoints converts an emitted batch to its wire form.
func WirePoints[P any](batch []laserframe.Point[P]) []EmittedPoint[P] {
	out := make([]EmittedPoint[P], len(batch))
	for i, pt := range batch {
		out[i] = EmittedPoint[P]{Kind: pt.Kind.String(), Payload: pt.Payload}
	}
	return out
}

// StreamMux is a generic point stream multiplexer. It wraps a single
// laserframe.Streamer, serializes frame submission against batch pulls, and
// allows multiple clients to observe the emitted sequence.
type StreamMux[P any] struct {
	streamer   *laserframe.Streamer[P]
	frame      []P
	streamerMu sync.Mutex

	subscribers  map[string]chan []laserframe.Point[P]
	subscriberMu sync.Mutex

	closing   bool
	closingMu sync.Mutex

	buffer int
	stats  StreamStatsInterface

	// emission totals since construction, guarded by streamerMu
	totalPoints int64
	totalBlanks int64
	totalWraps  int64
	totalFrames int64
}

// StreamMuxInterface defines the interface for the StreamMux type.
type StreamMuxInterface[P any] interface {
	// SubmitFrame replaces the live frame. The next pull emits a blank copy
	// of the last emitted point so the beam travels dark to the new frame.
	SubmitFrame(frame []P)
	// NextBatch pulls up to max points from the stream and fans the batch
	// out to subscribers. It returns fewer than max points only when the
	// current frame is empty.
	NextBatch(max int) []laserframe.Point[P]
	// CurrentFrame returns a copy of the frame currently being streamed.
	CurrentFrame() []P
	// Status returns a snapshot of the streamer state and emission totals.
	Status() Status[P]
	// Subscribe creates a new channel receiving every emitted batch. The
	// channel ID is used to identify the unique channel when unsubscribing.
	Subscribe() (string, chan []laserframe.Point[P])
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Close closes all subscribed channels.
	Close() error

	// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP
	// mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewStreamMux creates a StreamMux around an empty streamer. Subscriber
// channels are created with the given buffer; a slow subscriber whose
// buffer is full misses batches rather than stalling the stream. A nil
// stats collector is replaced with a no-op implementation.
func NewStreamMux[P any](subscriberBuffer int, stats StreamStatsInterface) *StreamMux[P] {
	if subscriberBuffer < 0 {
		subscriberBuffer = 0
	}
	if stats == nil {
		stats = &noopStats{}
	}
	return &StreamMux[P]{
		streamer:    laserframe.New[P](),
		subscribers: make(map[string]chan []laserframe.Point[P]),
		buffer:      subscriberBuffer,
		stats:       stats,
	}
}

// noopStats is a StreamStatsInterface implementation that does nothing.
// It is used as a safe default when no stats collector is provided.
type noopStats struct{}

func (n *noopStats) AddEmitted(count int)         {}
func (n *noopStats) AddBlanks(count int)          {}
func (n *noopStats) AddWrap()                     {}
func (n *noopStats) AddFrameSubmitted(points int) {}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *StreamMux[P]) Subscribe() (string, chan []laserframe.Point[P]) {
	id := randomID()
	ch := make(chan []laserframe.Point[P], m.buffer)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the stream mux.
func (m *StreamMux[P]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// SubmitFrame replaces the live frame. The slice is copied, so the caller
// may keep using it after submission.
func (m *StreamMux[P]) SubmitFrame(frame []P) {
	owned := make([]P, len(frame))
	copy(owned, frame)

	m.streamerMu.Lock()
	m.frame = owned
	m.streamer.SubmitFrame(owned)
	m.totalFrames++
	m.streamerMu.Unlock()

	m.stats.AddFrameSubmitted(len(owned))
}

// CurrentFrame returns a copy of the frame currently being streamed.
func (m *StreamMux[P]) CurrentFrame() []P {
	m.streamerMu.Lock()
	defer m.streamerMu.Unlock()
	frame := make([]P, len(m.frame))
	copy(frame, m.frame)
	return frame
}

// NextBatch pulls up to max points from the stream, records emission stats
// and fans the batch out to subscribers. The batch holds fewer than max
// points only when the current frame is empty.
func (m *StreamMux[P]) NextBatch(max int) []laserframe.Point[P] {
	if max <= 0 {
		return nil
	}

	m.closingMu.Lock()
	closing := m.closing
	m.closingMu.Unlock()
	if closing {
		return nil
	}

	m.streamerMu.Lock()
	pendingSubmit := m.streamer.PendingBlank()
	it := m.streamer.NextPoints()
	batch := make([]laserframe.Point[P], 0, max)
	var emitted, blanks int
	for len(batch) < max {
		pt, ok := it.Next()
		if !ok {
			break
		}
		if pt.Blanked() {
			blanks++
			// The first point after a SubmitFrame is the scheduled
			// transition blank; any other blank marks a wrap back to the
			// frame start. SubmitFrame cannot interleave mid-batch because
			// it needs streamerMu, so the distinction is unambiguous here.
			if !(pendingSubmit && len(batch) == 0) {
				m.totalWraps++
				m.stats.AddWrap()
			}
		} else {
			emitted++
		}
		batch = append(batch, pt)
	}
	m.totalPoints += int64(emitted)
	m.totalBlanks += int64(blanks)
	m.streamerMu.Unlock()

	if emitted > 0 {
		m.stats.AddEmitted(emitted)
	}
	if blanks > 0 {
		m.stats.AddBlanks(blanks)
	}

	if len(batch) == 0 {
		return batch
	}

	m.closingMu.Lock()
	if m.closing {
		m.closingMu.Unlock()
		return batch
	}
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	for _, ch := range m.subscribers {
		select {
		case ch <- batch:
		default:
			// if the channel is full/blocking skip so as not to block the stream
		}
	}
	m.subscriberMu.Unlock()

	return batch
}

// Status returns a snapshot of the streamer state and emission totals.
func (m *StreamMux[P]) Status() Status[P] {
	m.streamerMu.Lock()
	st := Status[P]{
		FrameLen:     m.streamer.FrameLen(),
		Cursor:       m.streamer.Cursor(),
		PendingBlank: m.streamer.PendingBlank(),
		TotalPoints:  m.totalPoints,
		TotalBlanks:  m.totalBlanks,
		TotalWraps:   m.totalWraps,
		TotalFrames:  m.totalFrames,
	}
	if last, ok := m.streamer.LastEmitted(); ok {
		st.LastEmitted = &last
	}
	m.streamerMu.Unlock()

	m.subscriberMu.Lock()
	st.Subscribers = len(m.subscribers)
	m.subscriberMu.Unlock()

	return st
}

func (m *StreamMux[P]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return nil
}

func (m *StreamMux[P]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Frame submission console with a live tail built on the two API
	// endpoints below.
	debug.HandleFunc("submit-frame", "submit a frame to the point streamer", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := submitFrameTemplate.Execute(buf, nil); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	// API endpoint to submit a frame as a JSON array of payloads
	debug.HandleSilentFunc("submit-frame-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		raw := strings.TrimSpace(r.FormValue("frame"))
		if raw == "" {
			http.Error(w, "Missing frame", http.StatusBadRequest)
			return
		}
		var frame []P
		if err := json.Unmarshal([]byte(raw), &frame); err != nil {
			http.Error(w, fmt.Sprintf("Invalid frame JSON: %v", err), http.StatusBadRequest)
			return
		}
		m.SubmitFrame(frame)
		io.WriteString(w, fmt.Sprintf("Submitted frame with %d points", len(frame)))
	})

	// API endpoint to issue Server-Side Events (SSE) carrying each emitted batch.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := m.Subscribe()
		defer m.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case batch, ok := <-c:
				if !ok {
					// Channel closed, exit gracefully
					return
				}
				payload, err := json.Marshal(WirePoints(batch))
				if err != nil {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	// JSON snapshot of the streamer state for dashboards and scripts
	debug.HandleSilentFunc("stream-status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Status())
	})

	debug.HandleSilentFunc("tail.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// serve tail.js from adminTemplateFS
		f, err := adminTemplateFS.Open("templates/tail.js")
		if err != nil {
			http.Error(w, "Failed to open tail.js", http.StatusInternalServerError)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
}
