// Package laserframe turns laser frames into an endless, DAC-ready point
// sequence. A Streamer owns the current frame (an ordered closed path for
// the beam to trace) plus the minimal state needed to resume streaming
// exactly where the previous consumer stopped. Points is the pull iterator
// it hands out: it cycles the frame forever, inserting a single blank
// (beam-off) point wherever the beam must jump discontinuously — when
// wrapping from the end of the frame back to its start, and immediately
// after a new frame replaces one that was mid-trace.
//
// The payload type P is opaque to this package: callers choose its shape
// (typically a coordinate plus colour) and the sequencer passes it through
// unchanged. All operations are total; an empty frame is valid at every
// stage and simply yields nothing.
package laserframe

// Kind distinguishes the two output variants a DAC consumer must handle.
type Kind uint8

const (
	// Regular means the beam is on and should trace to the payload position.
	Regular Kind = iota
	// Blank means the beam is off while the scanners move to the payload
	// position. The coordinate is still carried because DAC protocols
	// require a position for every sample, dark or not.
	Blank
)

// String returns a short name for logs and debug output.
func (k Kind) String() string {
	if k == Blank {
		return "blank"
	}
	return "regular"
}

// Point is a single output item: the caller-supplied payload tagged with
// whether the beam is on (Regular) or off (Blank) for this sample.
type Point[P any] struct {
	Payload P
	Kind    Kind
}

// RegularPoint returns a beam-on point carrying p.
func RegularPoint[P any](p P) Point[P] { return Point[P]{Payload: p} }

// BlankPoint returns a beam-off point carrying p.
func BlankPoint[P any](p P) Point[P] { return Point[P]{Payload: p, Kind: Blank} }

// Blanked reports whether the beam is off for this point.
func (p Point[P]) Blanked() bool { return p.Kind == Blank }

// Streamer accepts new laser frames as input and produces iterators of
// laser points as output. The zero value is a ready-to-use Streamer with
// an empty frame.
//
// A Streamer is not internally synchronized. Callers that stream from one
// goroutine while submitting frames from another must serialize access
// themselves; see the streammux package for the standard wrapper.
type Streamer[P any] struct {
	frame []P

	// lastPoint is the most recently emitted regular point. Blanks never
	// update it; hasLastPoint stays false until the first regular emission.
	lastPoint    P
	hasLastPoint bool

	// blankLastPoint schedules a blank copy of lastPoint before anything
	// else is emitted.
	blankLastPoint bool

	// nextStart is the index to resume regular emission from. Between
	// iterator steps it is always within [0, len(frame)]; equal to
	// len(frame) means the frame is exhausted and a wrap is pending.
	nextStart int
}

// New returns a Streamer with an empty frame.
func New[P any]() *Streamer[P] {
	return FromFrame[P](nil)
}

// FromFrame returns a Streamer pre-loaded with the given frame. The
// Streamer takes ownership of the slice; the caller must not mutate it
// afterwards.
//
// Unlike SubmitFrame, no blank is scheduled: the very first points pulled
// from a fresh Streamer are regular, starting at the frame's first point.
func FromFrame[P any](frame []P) *Streamer[P] {
	return &Streamer[P]{frame: frame}
}

// SubmitFrame replaces the current frame and restarts the cycle at its
// first point. A blank transition is always scheduled: the beam physically
// sits wherever the previous frame left it, and the jump to the new
// frame's start must happen dark to avoid a stray line. This holds even
// when the new frame starts nearby — the sequencer has no geometric
// knowledge, so it blanks conservatively.
//
// The Streamer takes ownership of the slice. An empty (or nil) frame is
// valid and stops output after the scheduled blank.
func (s *Streamer[P]) SubmitFrame(frame []P) {
	s.frame = frame
	s.nextStart = 0
	s.blankLastPoint = true
}

// NextPoints returns an iterator that cycles the points of the current
// frame, resuming from the point that follows the last one yielded. The
// iterator mutates the Streamer's resumption state in place, so partial
// consumption is durable: drop the iterator at any step and the next call
// to NextPoints picks up exactly there.
//
// Only one iterator should be live at a time; pulling from two
// concurrently interleaves their cursors over the same state.
func (s *Streamer[P]) NextPoints() *Points[P] {
	return &Points[P]{s: s}
}

// FrameLen returns the number of points in the current frame.
func (s *Streamer[P]) FrameLen() int { return len(s.frame) }

// Cursor returns the index the next regular emission will come from.
// A value equal to FrameLen means the frame is exhausted and the next
// pull wraps (emitting the wrap blank first).
func (s *Streamer[P]) Cursor() int { return s.nextStart }

// PendingBlank reports whether a blank transition is scheduled before the
// next regular point.
func (s *Streamer[P]) PendingBlank() bool { return s.blankLastPoint }

// LastEmitted returns the most recently emitted regular point, if any.
func (s *Streamer[P]) LastEmitted() (P, bool) {
	return s.lastPoint, s.hasLastPoint
}

// Points is an iterator infinitely yielding the points of the owning
// Streamer's frame in a large cycle. It is a thin handle over the
// Streamer's own state: any pulls are immediately reflected there, and a
// Points carries no state of its own worth keeping — construct one per
// consumption burst and let it go.
type Points[P any] struct {
	s *Streamer[P]
}

// Next advances the stream by one point. It returns false only when the
// current frame is empty; for any non-empty frame the sequence is endless.
//
// Each call runs the transition loop at most twice: once to resolve a
// pending blank (or wrap) and once to emit the regular point.
func (it *Points[P]) Next() (Point[P], bool) {
	s := it.s
	for {
		// Emit the scheduled blank from the last point, if one exists.
		// With no prior emission there is nothing to blank: fall through
		// without yielding so the consumer never sees a phantom blank.
		if s.blankLastPoint {
			s.blankLastPoint = false
			if s.hasLastPoint {
				return BlankPoint(s.lastPoint), true
			}
		}

		// An empty frame has nothing to cycle.
		if len(s.frame) == 0 {
			var zero Point[P]
			return zero, false
		}

		// Frame exhausted: schedule the wrap blank and go round again.
		if s.nextStart >= len(s.frame) {
			s.blankLastPoint = true
			s.nextStart = 0
			continue
		}

		p := s.frame[s.nextStart]
		s.nextStart++
		s.lastPoint = p
		s.hasLastPoint = true
		return RegularPoint(p), true
	}
}
