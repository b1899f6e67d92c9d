package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/monitor"
)

// frameFile is the on-disk frame shape. It matches the request body of
// both the save and submit endpoints, so a generated file can be piped
// to either without editing.
type frameFile struct {
	Name   string        `json:"name,omitempty"`
	Points []laser.Point `json:"points"`
}

// parseColor parses an "r,g,b" triple with 0-255 channels.
func parseColor(s string) (uint8, uint8, uint8, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want r,g,b, got %q", s)
	}
	var vals [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return 0, 0, 0, fmt.Errorf("channel %q not in 0-255", part)
		}
		vals[i] = uint8(v)
	}
	return vals[0], vals[1], vals[2], nil
}

func writeFrameJSON(path, name string, points []laser.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(frameFile{Name: name, Points: points})
}

func writeFramePNG(path, title string, points []laser.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return monitor.PlotFramePNG(points, title, f)
}

// insertFrame opens (and if needed migrates) the frame database at
// dbPath and stores the frame, returning its generated ID.
func insertFrame(dbPath, name string, points []laser.Point) (string, error) {
	db, err := framestore.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	record := &framestore.FrameRecord{Name: name, Points: points}
	if err := framestore.NewFrameStore(db.DB).InsertFrame(record); err != nil {
		return "", err
	}
	return record.FrameID, nil
}
