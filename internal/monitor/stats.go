// Package monitor provides observability for the point stream: emission
// counters with periodic rate logging, chart pages for the current frame and
// recent emissions, PNG rendering of frames, and path metrics.
package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// StatsSnapshot represents a snapshot of current emission statistics
type StatsSnapshot struct {
	PointsPerSec    float64
	BlanksPerSec    float64
	WrapCount       int64
	FramesSubmitted int64
	Timestamp       time.Time
}

// StreamStats tracks point emission statistics with thread-safe operations
type StreamStats struct {
	mu             sync.Mutex
	emittedCount   int64
	blankCount     int64
	wrapCount      int64
	frameCount     int64
	framePoints    int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

// NewStreamStats creates a new StreamStats instance
func NewStreamStats() *StreamStats {
	now := time.Now()
	return &StreamStats{
		lastReset: now,
		startTime: now,
	}
}

// AddEmitted increments the count of regular points emitted
func (ss *StreamStats) AddEmitted(count int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.emittedCount += int64(count)
}

// AddBlanks increments the count of blanking points emitted
func (ss *StreamStats) AddBlanks(count int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.blankCount += int64(count)
}

// AddWrap increments the count of frame wrap-arounds
func (ss *StreamStats) AddWrap() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.wrapCount++
}

// AddFrameSubmitted increments the submitted frame count and the number of
// points carried by submitted frames
func (ss *StreamStats) AddFrameSubmitted(points int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.frameCount++
	ss.framePoints += int64(points)
}

// GetAndReset returns current stats and resets counters
func (ss *StreamStats) GetAndReset() (emitted int64, blanks int64, wraps int64, frames int64, framePoints int64, duration time.Duration) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ss.lastReset)
	emitted = ss.emittedCount
	blanks = ss.blankCount
	wraps = ss.wrapCount
	frames = ss.frameCount
	framePoints = ss.framePoints

	ss.emittedCount = 0
	ss.blankCount = 0
	ss.wrapCount = 0
	ss.frameCount = 0
	ss.framePoints = 0
	ss.lastReset = now

	return
}

// LogStats logs formatted statistics and stores snapshot for web interface
func (ss *StreamStats) LogStats() {
	emitted, blanks, wraps, frames, framePoints, duration := ss.GetAndReset()
	if emitted > 0 || frames > 0 {
		pointsPerSec := float64(emitted) / duration.Seconds()
		blanksPerSec := float64(blanks) / duration.Seconds()

		// Store snapshot for web interface
		ss.mu.Lock()
		ss.latestSnapshot = &StatsSnapshot{
			PointsPerSec:    pointsPerSec,
			BlanksPerSec:    blanksPerSec,
			WrapCount:       wraps,
			FramesSubmitted: frames,
			Timestamp:       time.Now(),
		}
		ss.mu.Unlock()

		logMsg := fmt.Sprintf("Stream stats (/sec): %s points, %.1f blanks",
			FormatWithCommas(int64(pointsPerSec)), blanksPerSec)

		if wraps > 0 {
			logMsg += fmt.Sprintf(", %d wraps", wraps)
		}
		if frames > 0 {
			logMsg += fmt.Sprintf(", %d frames submitted (%s points)",
				frames, FormatWithCommas(framePoints))
		}

		log.Print(logMsg)
	}
}

// GetUptime returns the time since the stats were created
func (ss *StreamStats) GetUptime() time.Duration {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return time.Since(ss.startTime)
}

// GetLatestSnapshot returns the most recent stats snapshot for web interface
func (ss *StreamStats) GetLatestSnapshot() *StatsSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.latestSnapshot == nil {
		return nil
	}
	// Return a copy to avoid race conditions
	snapshot := *ss.latestSnapshot
	return &snapshot
}

// FormatWithCommas formats a number with thousands separators
func FormatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}
