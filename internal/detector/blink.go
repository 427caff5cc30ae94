package detector

import "time"

// spanClass is the classification of a completed continuous eye-closure span.
type spanClass int

const (
	spanNone   spanClass = iota // reopened inside the dead zone, or still open
	spanBlink                   // short closure, counts toward the blink rate
	spanDrowsy                  // sustained closure, a completed drowsy episode
)

// blinkTracker measures continuous eyes-closed spans and classifies them on
// reopen: [minBlink, maxBlink] is a blink, >= drowsyMin is a drowsy episode,
// anything between is neither. A span that is still running is not
// classified; the drowsy channel handles live sustained closure.
type blinkTracker struct {
	minBlink  float64 // seconds
	maxBlink  float64
	drowsyMin float64

	closed   bool
	closedAt time.Time
}

// observe consumes one frame's eye state and returns the classification of
// the span that just completed, if any.
func (b *blinkTracker) observe(eyesClosed bool, now time.Time) spanClass {
	if eyesClosed {
		if !b.closed {
			b.closed = true
			b.closedAt = now
		}
		return spanNone
	}
	if !b.closed {
		return spanNone
	}
	b.closed = false

	span := now.Sub(b.closedAt).Seconds()
	switch {
	case span >= b.drowsyMin:
		return spanDrowsy
	case span >= b.minBlink && span <= b.maxBlink:
		return spanBlink
	}
	return spanNone
}
