package monitor

import (
	"math"
	"time"

	laserframe "github.com/mitchmindtree/laser-frame"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

// FramePoint is a frame point annotated with its scan order.
type FramePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Index int     `json:"index"`
}

// FrameChartData holds prepared data for the current-frame scatter chart.
type FrameChartData struct {
	Points    []FramePoint `json:"points"`
	MaxAbs    float64      `json:"max_abs"`
	MaxIndex  float64      `json:"max_index"`
	NumPoints int          `json:"num_points"`
}

// TracePoint is one step of the emitted trace.
type TracePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Blank bool    `json:"blank"`
}

// EmittedChartData holds prepared data for the emitted-window chart,
// with regular and blanked points split into separate series.
type EmittedChartData struct {
	Regular      []TracePoint `json:"regular"`
	Blanks       []TracePoint `json:"blanks"`
	MaxAbs       float64      `json:"max_abs"`
	NumPoints    int          `json:"num_points"`
	BlankCount   int          `json:"blank_count"`
	BlankPercent float64      `json:"blank_percent"`
}

// TotalsChartData holds stream counters for chart display.
type TotalsChartData struct {
	PointsPerSec float64 `json:"points_per_sec"`
	BlanksPerSec float64 `json:"blanks_per_sec"`
	TotalPoints  int64   `json:"total_points"`
	TotalBlanks  int64   `json:"total_blanks"`
	TotalWraps   int64   `json:"total_wraps"`
	TotalFrames  int64   `json:"total_frames"`
	Subscribers  int     `json:"subscribers"`
	FrameLen     int     `json:"frame_len"`
	Timestamp    string  `json:"timestamp"`
}

// PrepareFrameChartData transforms the current frame into scatter chart
// data, tagging each point with its scan order for the visual map.
func PrepareFrameChartData(frame []laser.Point) *FrameChartData {
	if len(frame) == 0 {
		return &FrameChartData{
			Points:   []FramePoint{},
			MaxIndex: 1,
		}
	}

	points := make([]FramePoint, 0, len(frame))
	maxAbs := 0.0
	for i, p := range frame {
		if math.Abs(p.X) > maxAbs {
			maxAbs = math.Abs(p.X)
		}
		if math.Abs(p.Y) > maxAbs {
			maxAbs = math.Abs(p.Y)
		}
		points = append(points, FramePoint{X: p.X, Y: p.Y, Index: i})
	}

	// Add padding so points at the edges are visible
	if maxAbs > 0 {
		maxAbs *= 1.05
	} else {
		maxAbs = 1.0
	}

	maxIndex := float64(len(frame) - 1)
	if maxIndex == 0 {
		maxIndex = 1
	}

	return &FrameChartData{
		Points:    points,
		MaxAbs:    maxAbs,
		MaxIndex:  maxIndex,
		NumPoints: len(points),
	}
}

// PrepareEmittedChartData transforms a window of emitted points into
// chart-ready form, splitting regular points from blanked ones.
func PrepareEmittedChartData(window []laserframe.Point[laser.Point]) *EmittedChartData {
	regular := make([]TracePoint, 0, len(window))
	blanks := make([]TracePoint, 0)
	maxAbs := 0.0

	for _, pt := range window {
		p := pt.Payload
		if math.Abs(p.X) > maxAbs {
			maxAbs = math.Abs(p.X)
		}
		if math.Abs(p.Y) > maxAbs {
			maxAbs = math.Abs(p.Y)
		}
		tp := TracePoint{X: p.X, Y: p.Y, Blank: pt.Blanked()}
		if tp.Blank {
			blanks = append(blanks, tp)
		} else {
			regular = append(regular, tp)
		}
	}

	if maxAbs > 0 {
		maxAbs *= 1.05
	} else {
		maxAbs = 1.0
	}

	blankPercent := 0.0
	if len(window) > 0 {
		blankPercent = float64(len(blanks)) / float64(len(window)) * 100
	}

	return &EmittedChartData{
		Regular:      regular,
		Blanks:       blanks,
		MaxAbs:       maxAbs,
		NumPoints:    len(window),
		BlankCount:   len(blanks),
		BlankPercent: blankPercent,
	}
}

// PrepareTotalsData merges the latest rate snapshot with the stream
// status counters into chart-ready form. A nil snapshot leaves the
// rates at zero.
func PrepareTotalsData(snap *StatsSnapshot, status streammux.Status[laser.Point]) *TotalsChartData {
	out := &TotalsChartData{
		TotalPoints: status.TotalPoints,
		TotalBlanks: status.TotalBlanks,
		TotalWraps:  status.TotalWraps,
		TotalFrames: status.TotalFrames,
		Subscribers: status.Subscribers,
		FrameLen:    status.FrameLen,
	}
	if snap != nil {
		out.PointsPerSec = snap.PointsPerSec
		out.BlanksPerSec = snap.BlanksPerSec
		out.Timestamp = snap.Timestamp.Format(time.RFC3339)
	}
	return out
}
