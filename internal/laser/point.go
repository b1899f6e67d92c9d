// Package laser defines the projector point geometry shared by the
// streaming pipeline, the frame store and the HTTP API.
package laser

import (
	"fmt"
	"math"
)

// Point is a single projector point. Coordinates are normalised to
// [-1, 1] on both axes with the origin at the centre of the projection
// area; colour channels are 8-bit.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
}

// MaxFramePoints bounds the size of a single frame accepted over HTTP
// or written to the frame store. The streaming core itself has no
// limit; this guards the outer boundary.
const MaxFramePoints = 100000

// Validate reports whether the point lies inside the projection area.
func (p Point) Validate() error {
	if math.IsNaN(p.X) || p.X < -1 || p.X > 1 {
		return fmt.Errorf("x %v outside [-1, 1]", p.X)
	}
	if math.IsNaN(p.Y) || p.Y < -1 || p.Y > 1 {
		return fmt.Errorf("y %v outside [-1, 1]", p.Y)
	}
	return nil
}

// ValidateFrame checks a whole frame: the point budget and every
// point's coordinates.
func ValidateFrame(points []Point) error {
	if len(points) > MaxFramePoints {
		return fmt.Errorf("frame has %d points, max %d", len(points), MaxFramePoints)
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}
