package monitor

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mitchmindtree/laser-frame/internal/laser"
)

// FrameMetrics summarises the geometry of a frame as the scanner will
// trace it: total path length, step statistics, the bounding box and
// the fraction of lit points.
type FrameMetrics struct {
	NumPoints  int     `json:"num_points"`
	PathLength float64 `json:"path_length"`
	MeanStep   float64 `json:"mean_step"`
	StddevStep float64 `json:"stddev_step"`
	MinX       float64 `json:"min_x"`
	MaxX       float64 `json:"max_x"`
	MinY       float64 `json:"min_y"`
	MaxY       float64 `json:"max_y"`
	Duty       float64 `json:"duty"`
}

// ComputeFrameMetrics derives path and extent statistics for a frame.
// The path includes the closing segment back to the first point, since
// the streamer cycles the frame after each pass. Duty is the fraction
// of points with at least one non-zero colour channel.
func ComputeFrameMetrics(frame []laser.Point) FrameMetrics {
	m := FrameMetrics{NumPoints: len(frame)}
	if len(frame) == 0 {
		return m
	}

	minX, maxX := frame[0].X, frame[0].X
	minY, maxY := frame[0].Y, frame[0].Y
	lit := 0
	steps := make([]float64, 0, len(frame))

	for i, p := range frame {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
		if p.R > 0 || p.G > 0 || p.B > 0 {
			lit++
		}
		if i > 0 {
			prev := frame[i-1]
			steps = append(steps, math.Hypot(p.X-prev.X, p.Y-prev.Y))
		}
	}

	// Closing segment back to the start of the frame.
	if len(frame) > 1 {
		last := frame[len(frame)-1]
		steps = append(steps, math.Hypot(frame[0].X-last.X, frame[0].Y-last.Y))
	}

	m.MinX, m.MaxX = minX, maxX
	m.MinY, m.MaxY = minY, maxY
	m.Duty = float64(lit) / float64(len(frame))

	if len(steps) > 0 {
		for _, s := range steps {
			m.PathLength += s
		}
		mean, std := stat.MeanStdDev(steps, nil)
		m.MeanStep = mean
		if !math.IsNaN(std) {
			m.StddevStep = std
		}
	}

	return m
}
