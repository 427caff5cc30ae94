package detector

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Each detection channel is a two-state machine: awake, or active (currently
// yawning / currently drowsy). Transitions are debounced through a sliding
// window so single-frame classifier noise cannot toggle the state.

// yawnChannel debounces the per-frame mouth classification. It goes active
// when the recency-weighted ratio of yawning frames exceeds the threshold
// AND the newest frames form a long enough unbroken yawning run; it drops
// back to awake as soon as that stops holding.
type yawnChannel struct {
	win       *Window
	threshold float64 // weighted-ratio threshold
	minRun    int     // minimum continuous tail frames

	active    bool
	startedAt time.Time
	durations []float64 // completed yawn lengths, seconds
}

// observe pushes one frame and reports whether a yawn started or ended at
// this frame.
func (c *yawnChannel) observe(isYawning bool, now time.Time) (started, ended bool) {
	c.win.Push(isYawning)

	hold := c.win.WeightedRatio() > c.threshold && c.win.TailRun() > c.minRun
	switch {
	case !c.active && hold:
		c.active = true
		c.startedAt = now
		return true, false
	case c.active && !hold:
		c.active = false
		c.durations = append(c.durations, now.Sub(c.startedAt).Seconds())
		return false, true
	}
	return false, false
}

// avgDuration returns the mean completed yawn length in seconds, rounded to
// two decimals.
func (c *yawnChannel) avgDuration() float64 {
	if len(c.durations) == 0 {
		return 0
	}
	mean, err := stats.Mean(stats.Float64Data(c.durations))
	if err != nil {
		return 0
	}
	rounded, _ := stats.Round(mean, 2)
	return rounded
}

// count returns how many yawns have completed so far.
func (c *yawnChannel) count() int {
	return len(c.durations)
}

// drowsyChannel debounces eye closure over a fixed-duration window (about
// two seconds of frames): active while closed frames make up at least the
// configured fraction of the window.
type drowsyChannel struct {
	win      *Window
	fraction float64

	active bool
}

// observe pushes one frame and reports whether a drowsy episode started or
// ended at this frame.
func (c *drowsyChannel) observe(eyesClosed bool, now time.Time) (started, ended bool) {
	c.win.Push(eyesClosed)

	hold := c.win.TrueFraction() >= c.fraction
	switch {
	case !c.active && hold:
		c.active = true
		return true, false
	case c.active && !hold:
		c.active = false
		return false, true
	}
	return false, false
}
