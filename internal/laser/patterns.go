package laser

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Pattern names accepted by Generator.Generate.
const (
	PatternCircle    = "circle"
	PatternSquare    = "square"
	PatternLissajous = "lissajous"
	PatternStarburst = "starburst"
)

// jitterSeed keeps generated frames reproducible.
const jitterSeed = 1

// PatternNames lists the patterns accepted by Generate, in a stable
// order suitable for API responses.
func PatternNames() []string {
	return []string{PatternCircle, PatternSquare, PatternLissajous, PatternStarburst}
}

// Generator generates pattern frames in the normalised [-1, 1]
// coordinate space.
type Generator struct {
	// Configuration
	PointCount int     // points per frame
	Radius     float64 // pattern radius in normalised units
	Spokes     int     // starburst spoke count
	FreqX      int     // lissajous x frequency
	FreqY      int     // lissajous y frequency
	R, G, B    uint8   // beam colour

	rng *rand.Rand
}

// NewGenerator creates a generator with demo-friendly defaults. The
// jitter source is seeded with a fixed value: a fresh generator with the
// same configuration always produces the same frame.
func NewGenerator() *Generator {
	return &Generator{
		PointCount: 500,
		Radius:     0.8,
		Spokes:     8,
		FreqX:      3,
		FreqY:      2,
		R:          0,
		G:          255,
		B:          64,
		rng:        rand.New(rand.NewSource(jitterSeed)),
	}
}

// Generate builds a frame for the named pattern. Pattern names are
// case-insensitive. A non-positive PointCount yields an empty frame.
func (g *Generator) Generate(pattern string) ([]Point, error) {
	switch strings.ToLower(pattern) {
	case PatternCircle:
		return g.Circle(), nil
	case PatternSquare:
		return g.Square(), nil
	case PatternLissajous:
		return g.Lissajous(), nil
	case PatternStarburst:
		return g.Starburst(), nil
	default:
		return nil, fmt.Errorf("unknown pattern %q", pattern)
	}
}

// Circle generates evenly spaced points around a circle.
func (g *Generator) Circle() []Point {
	if g.PointCount <= 0 {
		return nil
	}
	pts := make([]Point, g.PointCount)
	for i := range pts {
		angle := float64(i) * 2 * math.Pi / float64(g.PointCount)
		pts[i] = g.point(g.Radius*math.Cos(angle), g.Radius*math.Sin(angle))
	}
	return pts
}

// Square walks the perimeter of an axis-aligned square clockwise from
// the top-left corner.
func (g *Generator) Square() []Point {
	if g.PointCount <= 0 {
		return nil
	}
	pts := make([]Point, g.PointCount)
	r := g.Radius
	for i := range pts {
		// Position along the perimeter in [0, 4): one unit per side.
		t := float64(i) * 4 / float64(g.PointCount)
		side := int(t)
		f := t - float64(side)

		var x, y float64
		switch side {
		case 0: // top, left to right
			x, y = -r+2*r*f, r
		case 1: // right, top to bottom
			x, y = r, r-2*r*f
		case 2: // bottom, right to left
			x, y = r-2*r*f, -r
		default: // left, bottom to top
			x, y = -r, -r+2*r*f
		}
		pts[i] = g.point(x, y)
	}
	return pts
}

// Lissajous traces a closed lissajous curve with the configured
// frequency ratio.
func (g *Generator) Lissajous() []Point {
	if g.PointCount <= 0 {
		return nil
	}
	pts := make([]Point, g.PointCount)
	for i := range pts {
		t := float64(i) * 2 * math.Pi / float64(g.PointCount)
		x := g.Radius * math.Sin(float64(g.FreqX)*t+math.Pi/2)
		y := g.Radius * math.Sin(float64(g.FreqY)*t)
		pts[i] = g.point(x, y)
	}
	return pts
}

// Starburst draws out-and-back spokes from the centre. Tip radii get a
// little jitter so successive frames shimmer. The point count rounds
// down to a multiple of the spoke count.
func (g *Generator) Starburst() []Point {
	spokes := g.Spokes
	if spokes <= 0 {
		spokes = 8
	}
	perSpoke := g.PointCount / spokes
	if perSpoke <= 0 {
		return nil
	}
	pts := make([]Point, 0, perSpoke*spokes)
	for s := 0; s < spokes; s++ {
		angle := float64(s) * 2 * math.Pi / float64(spokes)
		tip := g.Radius * (0.9 + 0.1*g.rng.Float64())
		for j := 0; j < perSpoke; j++ {
			// Triangle wave: centre to tip and back.
			f := float64(j) * 2 / float64(perSpoke)
			if f > 1 {
				f = 2 - f
			}
			pts = append(pts, g.point(tip*f*math.Cos(angle), tip*f*math.Sin(angle)))
		}
	}
	return pts
}

func (g *Generator) point(x, y float64) Point {
	return Point{X: clamp(x), Y: clamp(y), R: g.R, G: g.G, B: g.B}
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
