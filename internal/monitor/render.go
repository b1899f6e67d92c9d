package monitor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/fogleman/gg"

	laserframe "github.com/mitchmindtree/laser-frame"
	"github.com/mitchmindtree/laser-frame/internal/laser"
)

// defaultProjectionSize is the canvas edge length in pixels when no
// size is requested.
const defaultProjectionSize = 640

// RenderProjection draws an emitted point sequence the way the
// projector would paint it: lit segments between consecutive regular
// points in the destination point's colour, pen-up travel wherever a
// blanked point sits between them, all on a black background.
func RenderProjection(window []laserframe.Point[laser.Point], size int) image.Image {
	if size <= 0 {
		size = defaultProjectionSize
	}

	dc := gg.NewContext(size, size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	// Map normalised [-1, 1] coordinates onto the canvas with a small
	// margin. Canvas Y grows downwards, projection Y upwards.
	margin := float64(size) * 0.05
	scale := (float64(size) - 2*margin) / 2.0
	toCanvas := func(p laser.Point) (float64, float64) {
		x := margin + (p.X+1)*scale
		y := float64(size) - (margin + (p.Y+1)*scale)
		return x, y
	}

	dc.SetLineWidth(1.5)

	var (
		havePrev     bool
		prevX, prevY float64
		prevBlank    bool
	)
	for _, pt := range window {
		x, y := toCanvas(pt.Payload)
		if havePrev && !prevBlank && !pt.Blanked() {
			c := pt.Payload
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.DrawLine(prevX, prevY, x, y)
			dc.Stroke()
		}
		if !pt.Blanked() {
			c := pt.Payload
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.DrawCircle(x, y, 1.5)
			dc.Fill()
		}
		havePrev, prevX, prevY, prevBlank = true, x, y, pt.Blanked()
	}

	return dc.Image()
}

// handleProjectionPNG serves a beam simulation of the recent emitted
// window. Query param `size` (optional, 64..2048) sets the canvas edge
// length in pixels.
func (cs *ChartServer) handleProjectionPNG(w http.ResponseWriter, r *http.Request) {
	window := cs.EmittedWindow()
	if len(window) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no emitted points yet")
		return
	}

	size := defaultProjectionSize
	if s := r.URL.Query().Get("size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 64 && v <= 2048 {
			size = v
		}
	}

	img := RenderProjection(window, size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		cs.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode png: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
