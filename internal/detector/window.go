package detector

// Window is a fixed-capacity ring buffer of per-frame booleans. Capacity is
// derived from frame rate times window seconds; once full, each push evicts
// the oldest entry. A window belongs to exactly one session's detector and
// is never shared.
type Window struct {
	buf  []bool
	head int // index of the next write
	size int
}

// NewWindow creates a window holding up to capacity frames. Capacity is
// clamped to at least 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]bool, capacity)}
}

// Push appends a frame state, evicting the oldest entry when full.
func (w *Window) Push(v bool) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

// Len returns the number of frames currently held.
func (w *Window) Len() int {
	return w.size
}

// at returns the i-th entry with 0 being the oldest frame present.
func (w *Window) at(i int) bool {
	start := (w.head - w.size + len(w.buf)) % len(w.buf)
	return w.buf[(start+i)%len(w.buf)]
}

// WeightedRatio returns the recency-weighted fraction of true frames.
// Frame i (oldest first) weighs (i+1)/n; the sum over true frames is
// normalized by the total weight, so the result is always in [0,1] and an
// all-true window yields exactly 1. Computed over the frames actually
// present, so a warming-up window needs no special casing.
func (w *Window) WeightedRatio() float64 {
	if w.size == 0 {
		return 0
	}
	var sum, total float64
	for i := 0; i < w.size; i++ {
		weight := float64(i+1) / float64(w.size)
		total += weight
		if w.at(i) {
			sum += weight
		}
	}
	return sum / total
}

// TailRun returns the length of the unbroken run of true frames at the
// newest end of the window.
func (w *Window) TailRun() int {
	run := 0
	for i := w.size - 1; i >= 0; i-- {
		if !w.at(i) {
			break
		}
		run++
	}
	return run
}

// TrueFraction returns the plain fraction of true frames over the frames
// actually present.
func (w *Window) TrueFraction() float64 {
	if w.size == 0 {
		return 0
	}
	count := 0
	for i := 0; i < w.size; i++ {
		if w.at(i) {
			count++
		}
	}
	return float64(count) / float64(w.size)
}
