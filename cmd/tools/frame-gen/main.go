// Command frame-gen generates pattern frames for the laser stream and
// writes them to JSON, PNG or straight into a frame database. With no
// sink flags the frame JSON goes to stdout, ready to pipe into curl:
//
//	frame-gen -pattern lissajous -n 800 | curl -d @- localhost:8080/api/stream/frame
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/monitor"
)

func main() {
	pattern := flag.String("pattern", "circle", "pattern to generate: "+strings.Join(laser.PatternNames(), ", "))
	numPoints := flag.Int("n", 500, "points per frame")
	name := flag.String("name", "", "frame name (defaults to the pattern)")
	color := flag.String("color", "", "beam colour as r,g,b with 0-255 channels, e.g. 255,0,0")
	jsonOut := flag.String("o", "", "write the frame as JSON to this path")
	pngOut := flag.String("png", "", "render the frame as a PNG plot to this path")
	dbOut := flag.String("db", "", "insert the frame into this SQLite frame database")
	flag.Parse()

	gen := laser.NewGenerator()
	gen.PointCount = *numPoints
	if *color != "" {
		r, g, b, err := parseColor(*color)
		if err != nil {
			log.Fatalf("bad -color: %v", err)
		}
		gen.R, gen.G, gen.B = r, g, b
	}

	points, err := gen.Generate(*pattern)
	if err != nil {
		log.Fatalf("generate failed: %v", err)
	}
	if *name == "" {
		*name = *pattern
	}

	m := monitor.ComputeFrameMetrics(points)
	log.Printf("%s: %d points, path length %.3f, extent [%.2f,%.2f]x[%.2f,%.2f], duty %.2f",
		*pattern, m.NumPoints, m.PathLength, m.MinX, m.MaxX, m.MinY, m.MaxY, m.Duty)

	wrote := false
	if *jsonOut != "" {
		if err := writeFrameJSON(*jsonOut, *name, points); err != nil {
			log.Fatalf("write JSON failed: %v", err)
		}
		log.Printf("✓ Created: %s", *jsonOut)
		wrote = true
	}
	if *pngOut != "" {
		if err := writeFramePNG(*pngOut, *name, points); err != nil {
			log.Fatalf("render PNG failed: %v", err)
		}
		log.Printf("✓ Created: %s", *pngOut)
		wrote = true
	}
	if *dbOut != "" {
		frameID, err := insertFrame(*dbOut, *name, points)
		if err != nil {
			log.Fatalf("insert frame failed: %v", err)
		}
		log.Printf("✓ Inserted %q as frame %s into %s", *name, frameID, *dbOut)
		wrote = true
	}

	if !wrote {
		if err := json.NewEncoder(os.Stdout).Encode(frameFile{Name: *name, Points: points}); err != nil {
			log.Fatalf("encode failed: %v", err)
		}
	}
}
