package monitor

import (
	"bytes"
	"testing"

	"github.com/mitchmindtree/laser-frame/internal/laser"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPlotFramePNG_WritesPNG(t *testing.T) {
	frame := []laser.Point{
		{X: -0.5, Y: -0.5, G: 255},
		{X: 0.5, Y: -0.5, G: 255},
		{X: 0.5, Y: 0.5, G: 255},
		{X: -0.5, Y: 0.5, G: 255},
	}

	var buf bytes.Buffer
	if err := PlotFramePNG(frame, "test frame", &buf); err != nil {
		t.Fatalf("PlotFramePNG failed: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output does not start with the PNG signature")
	}
	if buf.Len() < 1000 {
		t.Errorf("suspiciously small PNG: %d bytes", buf.Len())
	}
}

func TestPlotFramePNG_EmptyFrame(t *testing.T) {
	// An empty frame still renders the projection area axes.
	var buf bytes.Buffer
	if err := PlotFramePNG(nil, "empty", &buf); err != nil {
		t.Fatalf("PlotFramePNG failed on empty frame: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output does not start with the PNG signature")
	}
}
