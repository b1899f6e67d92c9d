package monitor

import (
	"math"
	"testing"
	"time"

	laserframe "github.com/mitchmindtree/laser-frame"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

func TestPrepareFrameChartData_Empty(t *testing.T) {
	result := PrepareFrameChartData(nil)

	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if len(result.Points) != 0 {
		t.Errorf("expected empty points, got %d", len(result.Points))
	}
	if result.MaxIndex != 1 {
		t.Errorf("expected MaxIndex=1 for empty frame, got %f", result.MaxIndex)
	}
}

func TestPrepareFrameChartData_SinglePoint(t *testing.T) {
	frame := []laser.Point{{X: 0.5, Y: -0.25, G: 255}}

	result := PrepareFrameChartData(frame)

	if len(result.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(result.Points))
	}

	p := result.Points[0]
	if p.X != 0.5 || p.Y != -0.25 {
		t.Errorf("expected point (0.5, -0.25), got (%f, %f)", p.X, p.Y)
	}
	if p.Index != 0 {
		t.Errorf("expected Index=0, got %d", p.Index)
	}
	// MaxIndex defaults to 1 for a single point so the visual map has
	// a non-degenerate range.
	if result.MaxIndex != 1 {
		t.Errorf("expected MaxIndex=1, got %f", result.MaxIndex)
	}
}

func TestPrepareFrameChartData_ScanOrder(t *testing.T) {
	frame := []laser.Point{
		{X: 0, Y: 0},
		{X: 0.1, Y: 0},
		{X: 0.2, Y: 0},
		{X: 0.3, Y: 0},
	}

	result := PrepareFrameChartData(frame)

	if result.NumPoints != 4 {
		t.Fatalf("expected 4 points, got %d", result.NumPoints)
	}
	for i, p := range result.Points {
		if p.Index != i {
			t.Errorf("point %d: expected Index=%d, got %d", i, i, p.Index)
		}
	}
	if result.MaxIndex != 3 {
		t.Errorf("expected MaxIndex=3, got %f", result.MaxIndex)
	}
}

func TestPrepareFrameChartData_MaxAbsPadding(t *testing.T) {
	frame := []laser.Point{{X: 0.8, Y: 0.2}}

	result := PrepareFrameChartData(frame)

	// MaxAbs should be 0.8 * 1.05 = 0.84
	expected := 0.8 * 1.05
	if math.Abs(result.MaxAbs-expected) > 0.001 {
		t.Errorf("expected MaxAbs=%f, got %f", expected, result.MaxAbs)
	}
}

func TestPrepareFrameChartData_OriginOnly(t *testing.T) {
	frame := []laser.Point{{X: 0, Y: 0}}

	result := PrepareFrameChartData(frame)

	// MaxAbs should fall back to 1.0 when every coordinate is zero
	if result.MaxAbs != 1.0 {
		t.Errorf("expected MaxAbs=1.0 for origin-only frame, got %f", result.MaxAbs)
	}
}

func TestPrepareEmittedChartData_Empty(t *testing.T) {
	result := PrepareEmittedChartData(nil)

	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if len(result.Regular) != 0 || len(result.Blanks) != 0 {
		t.Errorf("expected empty series, got %d regular and %d blanks", len(result.Regular), len(result.Blanks))
	}
	if result.BlankPercent != 0 {
		t.Errorf("expected BlankPercent=0, got %f", result.BlankPercent)
	}
	if result.MaxAbs != 1.0 {
		t.Errorf("expected MaxAbs=1.0, got %f", result.MaxAbs)
	}
}

func TestPrepareEmittedChartData_SplitsSeries(t *testing.T) {
	window := []laserframe.Point[laser.Point]{
		laserframe.RegularPoint(laser.Point{X: 0.1, Y: 0.2, R: 255}),
		laserframe.RegularPoint(laser.Point{X: 0.3, Y: 0.4, R: 255}),
		laserframe.BlankPoint(laser.Point{X: 0.3, Y: 0.4, R: 255}),
	}

	result := PrepareEmittedChartData(window)

	if len(result.Regular) != 2 {
		t.Errorf("expected 2 regular points, got %d", len(result.Regular))
	}
	if len(result.Blanks) != 1 {
		t.Errorf("expected 1 blanked point, got %d", len(result.Blanks))
	}
	if result.NumPoints != 3 {
		t.Errorf("expected NumPoints=3, got %d", result.NumPoints)
	}
	if result.BlankCount != 1 {
		t.Errorf("expected BlankCount=1, got %d", result.BlankCount)
	}

	wantPercent := 100.0 / 3.0
	if math.Abs(result.BlankPercent-wantPercent) > 0.001 {
		t.Errorf("expected BlankPercent=%f, got %f", wantPercent, result.BlankPercent)
	}

	// MaxAbs covers both series: 0.4 * 1.05
	wantMaxAbs := 0.4 * 1.05
	if math.Abs(result.MaxAbs-wantMaxAbs) > 0.001 {
		t.Errorf("expected MaxAbs=%f, got %f", wantMaxAbs, result.MaxAbs)
	}

	if !result.Blanks[0].Blank {
		t.Error("blanked point should carry Blank=true")
	}
	if result.Regular[0].Blank {
		t.Error("regular point should carry Blank=false")
	}
}

func TestPrepareEmittedChartData_AllBlanks(t *testing.T) {
	window := []laserframe.Point[laser.Point]{
		laserframe.BlankPoint(laser.Point{X: 0.5}),
		laserframe.BlankPoint(laser.Point{Y: -0.5}),
	}

	result := PrepareEmittedChartData(window)

	if len(result.Regular) != 0 {
		t.Errorf("expected no regular points, got %d", len(result.Regular))
	}
	if result.BlankCount != 2 {
		t.Errorf("expected BlankCount=2, got %d", result.BlankCount)
	}
	if result.BlankPercent != 100 {
		t.Errorf("expected BlankPercent=100, got %f", result.BlankPercent)
	}
}

func TestPrepareTotalsData_NilSnapshot(t *testing.T) {
	status := streammux.Status[laser.Point]{
		FrameLen:    3,
		TotalPoints: 42,
		TotalBlanks: 7,
		TotalWraps:  5,
		TotalFrames: 2,
		Subscribers: 1,
	}

	result := PrepareTotalsData(nil, status)

	if result.PointsPerSec != 0 || result.BlanksPerSec != 0 {
		t.Errorf("expected zero rates without a snapshot, got %f and %f", result.PointsPerSec, result.BlanksPerSec)
	}
	if result.Timestamp != "" {
		t.Errorf("expected empty timestamp, got %q", result.Timestamp)
	}
	if result.TotalPoints != 42 {
		t.Errorf("expected TotalPoints=42, got %d", result.TotalPoints)
	}
	if result.TotalBlanks != 7 {
		t.Errorf("expected TotalBlanks=7, got %d", result.TotalBlanks)
	}
	if result.TotalWraps != 5 {
		t.Errorf("expected TotalWraps=5, got %d", result.TotalWraps)
	}
	if result.TotalFrames != 2 {
		t.Errorf("expected TotalFrames=2, got %d", result.TotalFrames)
	}
	if result.FrameLen != 3 {
		t.Errorf("expected FrameLen=3, got %d", result.FrameLen)
	}
	if result.Subscribers != 1 {
		t.Errorf("expected Subscribers=1, got %d", result.Subscribers)
	}
}

func TestPrepareTotalsData_WithSnapshot(t *testing.T) {
	snap := &StatsSnapshot{
		PointsPerSec: 1200.5,
		BlanksPerSec: 4.5,
		Timestamp:    time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	}

	result := PrepareTotalsData(snap, streammux.Status[laser.Point]{})

	if result.PointsPerSec != 1200.5 {
		t.Errorf("expected PointsPerSec=1200.5, got %f", result.PointsPerSec)
	}
	if result.BlanksPerSec != 4.5 {
		t.Errorf("expected BlanksPerSec=4.5, got %f", result.BlanksPerSec)
	}
	if result.Timestamp != "2026-02-14T12:00:00Z" {
		t.Errorf("expected timestamp '2026-02-14T12:00:00Z', got %q", result.Timestamp)
	}
}
