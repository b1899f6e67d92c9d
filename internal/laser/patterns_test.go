package laser

import (
	"math"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator()

	if gen == nil {
		t.Fatal("expected non-nil Generator")
	}
	if gen.PointCount != 500 {
		t.Errorf("expected PointCount=500, got %d", gen.PointCount)
	}
	if gen.Radius != 0.8 {
		t.Errorf("expected Radius=0.8, got %f", gen.Radius)
	}
	if gen.Spokes != 8 {
		t.Errorf("expected Spokes=8, got %d", gen.Spokes)
	}
	if gen.FreqX != 3 || gen.FreqY != 2 {
		t.Errorf("expected FreqX=3 FreqY=2, got %d/%d", gen.FreqX, gen.FreqY)
	}
	if gen.rng == nil {
		t.Error("expected non-nil rng")
	}
}

func TestGenerator_Circle(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 100

	pts := gen.Circle()

	if len(pts) != 100 {
		t.Fatalf("expected 100 points, got %d", len(pts))
	}
	for i, p := range pts {
		dist := math.Sqrt(p.X*p.X + p.Y*p.Y)
		if math.Abs(dist-gen.Radius) > 1e-9 {
			t.Errorf("point %d: expected radius %.3f, got %.6f", i, gen.Radius, dist)
		}
		if p.R != gen.R || p.G != gen.G || p.B != gen.B {
			t.Errorf("point %d: colour %d/%d/%d does not match generator", i, p.R, p.G, p.B)
		}
	}
}

func TestGenerator_Square(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 80

	pts := gen.Square()

	if len(pts) != 80 {
		t.Fatalf("expected 80 points, got %d", len(pts))
	}
	for i, p := range pts {
		// Every point sits on the square's perimeter.
		edge := math.Max(math.Abs(p.X), math.Abs(p.Y))
		if math.Abs(edge-gen.Radius) > 1e-9 {
			t.Errorf("point %d (%.3f, %.3f): expected on perimeter at %.3f, got %.6f",
				i, p.X, p.Y, gen.Radius, edge)
		}
	}
	// First point is the top-left corner.
	if pts[0].X != -gen.Radius || pts[0].Y != gen.Radius {
		t.Errorf("expected first point at (-r, r), got (%.3f, %.3f)", pts[0].X, pts[0].Y)
	}
}

func TestGenerator_Lissajous(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 200

	pts := gen.Lissajous()

	if len(pts) != 200 {
		t.Fatalf("expected 200 points, got %d", len(pts))
	}
	if err := ValidateFrame(pts); err != nil {
		t.Fatalf("lissajous frame failed validation: %v", err)
	}
	for i, p := range pts {
		if math.Abs(p.X) > gen.Radius+1e-9 || math.Abs(p.Y) > gen.Radius+1e-9 {
			t.Errorf("point %d (%.3f, %.3f) outside pattern radius %.3f", i, p.X, p.Y, gen.Radius)
		}
	}
}

func TestGenerator_Starburst(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 160
	gen.Spokes = 8

	pts := gen.Starburst()

	// Point count rounds down to a multiple of the spoke count.
	if len(pts) != 160 {
		t.Fatalf("expected 160 points, got %d", len(pts))
	}
	if err := ValidateFrame(pts); err != nil {
		t.Fatalf("starburst frame failed validation: %v", err)
	}
	// Every spoke starts at the centre.
	perSpoke := len(pts) / gen.Spokes
	for s := 0; s < gen.Spokes; s++ {
		p := pts[s*perSpoke]
		if p.X != 0 || p.Y != 0 {
			t.Errorf("spoke %d: expected first point at origin, got (%.3f, %.3f)", s, p.X, p.Y)
		}
	}
	for i, p := range pts {
		dist := math.Sqrt(p.X*p.X + p.Y*p.Y)
		if dist > gen.Radius+1e-9 {
			t.Errorf("point %d distance %.3f exceeds radius %.3f", i, dist, gen.Radius)
		}
	}
}

func TestGenerator_Reproducible(t *testing.T) {
	a := NewGenerator()
	b := NewGenerator()
	a.PointCount = 80
	b.PointCount = 80

	first, err := a.Generate(PatternStarburst)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := b.Generate(PatternStarburst)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("fresh generators disagree on length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fresh generators with the same config diverge at point %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 64

	for _, name := range PatternNames() {
		pts, err := gen.Generate(name)
		if err != nil {
			t.Errorf("Generate(%q) failed: %v", name, err)
			continue
		}
		if len(pts) == 0 {
			t.Errorf("Generate(%q) produced an empty frame", name)
		}
		if err := ValidateFrame(pts); err != nil {
			t.Errorf("Generate(%q) frame failed validation: %v", name, err)
		}
	}
}

func TestGenerator_Generate_CaseInsensitive(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 16

	if _, err := gen.Generate("Circle"); err != nil {
		t.Errorf("expected mixed-case name accepted, got %v", err)
	}
}

func TestGenerator_Generate_UnknownPattern(t *testing.T) {
	gen := NewGenerator()

	if _, err := gen.Generate("spiral"); err == nil {
		t.Error("expected error for unknown pattern")
	}
}

func TestGenerator_ZeroPointCount(t *testing.T) {
	gen := NewGenerator()
	gen.PointCount = 0

	for _, name := range PatternNames() {
		pts, err := gen.Generate(name)
		if err != nil {
			t.Errorf("Generate(%q) failed: %v", name, err)
		}
		if len(pts) != 0 {
			t.Errorf("Generate(%q) with zero point count produced %d points", name, len(pts))
		}
	}
}

func TestPointValidate(t *testing.T) {
	ok := Point{X: 0.5, Y: -0.5, G: 255}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid point, got %v", err)
	}

	if err := (Point{X: 1.5}).Validate(); err == nil {
		t.Error("expected error for x out of range")
	}
	if err := (Point{Y: -1.01}).Validate(); err == nil {
		t.Error("expected error for y out of range")
	}
	if err := (Point{X: math.NaN()}).Validate(); err == nil {
		t.Error("expected error for NaN coordinate")
	}
	// Boundary values are inside the projection area.
	if err := (Point{X: 1, Y: -1}).Validate(); err != nil {
		t.Errorf("expected boundary point valid, got %v", err)
	}
}

func TestValidateFrame(t *testing.T) {
	frame := []Point{{X: 0, Y: 0}, {X: 2, Y: 0}}
	err := ValidateFrame(frame)
	if err == nil {
		t.Fatal("expected error for out-of-range point")
	}

	if err := ValidateFrame(nil); err != nil {
		t.Errorf("expected nil frame valid, got %v", err)
	}

	big := make([]Point, MaxFramePoints+1)
	if err := ValidateFrame(big); err == nil {
		t.Error("expected error for oversized frame")
	}
}
