package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mitchmindtree/laser-frame/internal/laser"
)

// PlotFramePNG renders a frame as a connected scan path with point
// markers and writes the result as a PNG. The axes are fixed to the
// projection area so successive frames render at the same scale.
func PlotFramePNG(frame []laser.Point, title string, w io.Writer) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.X.Min, p.X.Max = -1.1, 1.1
	p.Y.Min, p.Y.Max = -1.1, 1.1

	xys := make(plotter.XYs, 0, len(frame))
	for _, pt := range frame {
		xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("create path line: %w", err)
	}
	line.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	points, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("create point markers: %w", err)
	}
	points.GlyphStyle.Color = color.RGBA{R: 64, G: 220, B: 96, A: 255}
	points.GlyphStyle.Radius = vg.Points(2)
	p.Add(points)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("prepare png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// handleFramePNG serves the current frame as a rendered PNG plot.
func (cs *ChartServer) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	frame := cs.mux.CurrentFrame()
	if len(frame) == 0 {
		cs.writeJSONError(w, http.StatusNotFound, "no frame loaded")
		return
	}

	var buf bytes.Buffer
	if err := PlotFramePNG(frame, fmt.Sprintf("Frame (%d points)", len(frame)), &buf); err != nil {
		cs.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
