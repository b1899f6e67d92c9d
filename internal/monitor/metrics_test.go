package monitor

import (
	"math"
	"testing"

	"github.com/mitchmindtree/laser-frame/internal/laser"
)

func TestComputeFrameMetrics_Empty(t *testing.T) {
	m := ComputeFrameMetrics(nil)

	if m.NumPoints != 0 {
		t.Errorf("expected NumPoints=0, got %d", m.NumPoints)
	}
	if m.PathLength != 0 {
		t.Errorf("expected PathLength=0, got %f", m.PathLength)
	}
	if m.Duty != 0 {
		t.Errorf("expected Duty=0, got %f", m.Duty)
	}
}

func TestComputeFrameMetrics_SinglePoint(t *testing.T) {
	m := ComputeFrameMetrics([]laser.Point{{X: 0.25, Y: -0.5, R: 255}})

	if m.NumPoints != 1 {
		t.Errorf("expected NumPoints=1, got %d", m.NumPoints)
	}
	if m.PathLength != 0 {
		t.Errorf("expected PathLength=0 for a single point, got %f", m.PathLength)
	}
	if m.MeanStep != 0 || m.StddevStep != 0 {
		t.Errorf("expected zero step stats, got mean=%f stddev=%f", m.MeanStep, m.StddevStep)
	}
	if m.MinX != 0.25 || m.MaxX != 0.25 {
		t.Errorf("expected X bounds 0.25, got [%f, %f]", m.MinX, m.MaxX)
	}
	if m.MinY != -0.5 || m.MaxY != -0.5 {
		t.Errorf("expected Y bounds -0.5, got [%f, %f]", m.MinY, m.MaxY)
	}
	if m.Duty != 1.0 {
		t.Errorf("expected Duty=1 for a lit point, got %f", m.Duty)
	}
}

func TestComputeFrameMetrics_Square(t *testing.T) {
	// Unit-side square traced corner to corner; the closing segment
	// back to the first corner is part of the path.
	frame := []laser.Point{
		{X: -0.5, Y: -0.5, G: 255},
		{X: 0.5, Y: -0.5, G: 255},
		{X: 0.5, Y: 0.5, G: 255},
		{X: -0.5, Y: 0.5, G: 255},
	}

	m := ComputeFrameMetrics(frame)

	if m.NumPoints != 4 {
		t.Fatalf("expected NumPoints=4, got %d", m.NumPoints)
	}
	if math.Abs(m.PathLength-4.0) > 0.001 {
		t.Errorf("expected PathLength=4, got %f", m.PathLength)
	}
	if math.Abs(m.MeanStep-1.0) > 0.001 {
		t.Errorf("expected MeanStep=1, got %f", m.MeanStep)
	}
	if math.Abs(m.StddevStep) > 0.001 {
		t.Errorf("expected StddevStep=0 for equal steps, got %f", m.StddevStep)
	}
	if m.MinX != -0.5 || m.MaxX != 0.5 || m.MinY != -0.5 || m.MaxY != 0.5 {
		t.Errorf("unexpected bounding box [%f, %f] x [%f, %f]", m.MinX, m.MaxX, m.MinY, m.MaxY)
	}
	if m.Duty != 1.0 {
		t.Errorf("expected Duty=1, got %f", m.Duty)
	}
}

func TestComputeFrameMetrics_TwoPoints(t *testing.T) {
	// 3-4-5 triangle legs: the step distance is 0.5 in each direction.
	frame := []laser.Point{
		{X: 0, Y: 0, B: 255},
		{X: 0.3, Y: 0.4, B: 255},
	}

	m := ComputeFrameMetrics(frame)

	if math.Abs(m.PathLength-1.0) > 0.001 {
		t.Errorf("expected PathLength=1 (out and back), got %f", m.PathLength)
	}
	if math.Abs(m.MeanStep-0.5) > 0.001 {
		t.Errorf("expected MeanStep=0.5, got %f", m.MeanStep)
	}
	if math.Abs(m.StddevStep) > 0.001 {
		t.Errorf("expected StddevStep=0, got %f", m.StddevStep)
	}
}

func TestComputeFrameMetrics_Duty(t *testing.T) {
	frame := []laser.Point{
		{X: 0, Y: 0, R: 255},
		{X: 0.1, Y: 0},
		{X: 0.2, Y: 0, G: 1},
		{X: 0.3, Y: 0},
	}

	m := ComputeFrameMetrics(frame)

	if m.Duty != 0.5 {
		t.Errorf("expected Duty=0.5 with half the points lit, got %f", m.Duty)
	}
}

func TestComputeFrameMetrics_UnevenSteps(t *testing.T) {
	// Steps of 0.1, 0.3 and a closing 0.4 back to the origin.
	frame := []laser.Point{
		{X: 0, Y: 0, R: 255},
		{X: 0.1, Y: 0, R: 255},
		{X: 0.4, Y: 0, R: 255},
	}

	m := ComputeFrameMetrics(frame)

	if math.Abs(m.PathLength-0.8) > 0.001 {
		t.Errorf("expected PathLength=0.8, got %f", m.PathLength)
	}
	wantMean := 0.8 / 3.0
	if math.Abs(m.MeanStep-wantMean) > 0.001 {
		t.Errorf("expected MeanStep=%f, got %f", wantMean, m.MeanStep)
	}
	if m.StddevStep <= 0 {
		t.Errorf("expected positive StddevStep for uneven steps, got %f", m.StddevStep)
	}
}
