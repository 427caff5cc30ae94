// Package detector turns a stream of per-frame facial measurements into
// discrete, debounced fatigue events and a running attention score. One
// Detector exists per monitored session and is written to by exactly one
// goroutine; nothing in here is shared across sessions.
package detector

import (
	"math"
	"time"

	"focustrack-go/internal/config"
)

// No-face policies. Skip freezes the sliding windows on frames with no
// detected landmarks; Absent pushes false into them (no face reads as
// eyes-open, not-yawning).
const (
	NoFaceSkip   = "skip"
	NoFaceAbsent = "absent"
)

// Config carries everything a per-session detector needs. Values come from
// application configuration; DefaultConfig mirrors the config defaults so
// tests and tools can run without a config file.
type Config struct {
	FPS           float64
	YawnRatio     float64 // mouth open ratio above which a frame is yawning
	EyeClosedArea float64

	YawnWindowSeconds     float64
	YawnWeightedThreshold float64
	YawnMinDurationFrames int

	DrowsyWindowSeconds  float64
	DrowsyClosedFraction float64

	NoFacePolicy string

	Baseline         int
	YawnPenalty      int
	DrowsyPenalty    int
	BlinkRatePenalty int
	BlinkRateMin     float64
	BlinkRateMax     float64
	BlinkMinSeconds  float64
	BlinkMaxSeconds  float64
	DrowsyMinSeconds float64
}

// DefaultConfig returns the stock calibration.
func DefaultConfig() Config {
	return Config{
		FPS:                   15,
		YawnRatio:             0.55,
		EyeClosedArea:         0.0009,
		YawnWindowSeconds:     3,
		YawnWeightedThreshold: 0.4,
		YawnMinDurationFrames: 5,
		DrowsyWindowSeconds:   2,
		DrowsyClosedFraction:  0.8,
		NoFacePolicy:          NoFaceSkip,
		Baseline:              100,
		YawnPenalty:           2,
		DrowsyPenalty:         5,
		BlinkRatePenalty:      2,
		BlinkRateMin:          5,
		BlinkRateMax:          25,
		BlinkMinSeconds:       0.1,
		BlinkMaxSeconds:       0.3,
		DrowsyMinSeconds:      0.5,
	}
}

// FromConf builds a detector Config from the loaded application config.
func FromConf() Config {
	d := config.Conf.Detection
	s := config.Conf.Scoring
	return Config{
		FPS:                   d.FPS,
		YawnRatio:             d.YawnRatio,
		EyeClosedArea:         d.EyeClosedArea,
		YawnWindowSeconds:     d.YawnWindowSeconds,
		YawnWeightedThreshold: d.YawnWeightedThreshold,
		YawnMinDurationFrames: d.YawnMinDurationFrames,
		DrowsyWindowSeconds:   d.DrowsyWindowSeconds,
		DrowsyClosedFraction:  d.DrowsyClosedFraction,
		NoFacePolicy:          d.NoFacePolicy,
		Baseline:              s.Baseline,
		YawnPenalty:           s.YawnPenalty,
		DrowsyPenalty:         s.DrowsyPenalty,
		BlinkRatePenalty:      s.BlinkRatePenalty,
		BlinkRateMin:          s.BlinkRateMin,
		BlinkRateMax:          s.BlinkRateMax,
		BlinkMinSeconds:       s.BlinkMinSeconds,
		BlinkMaxSeconds:       s.BlinkMaxSeconds,
		DrowsyMinSeconds:      s.DrowsyMinSeconds,
	}
}

// windowFrames converts a duration in seconds to a frame capacity.
func windowFrames(fps, seconds float64) int {
	return int(math.Round(fps * seconds))
}

// Frame is one per-frame measurement. When FaceDetected is false the other
// measurements are meaningless and the configured no-face policy applies.
type Frame struct {
	FaceDetected   bool
	EyesClosed     bool
	MouthOpenRatio float64
	At             time.Time
}

// Detector is the temporal event detector for one session: two debounced
// channels (yawn, drowsy), a closure-span tracker feeding the blink rate,
// and the attention score accumulator.
type Detector struct {
	cfg    Config
	yawn   yawnChannel
	drowsy drowsyChannel
	blinks blinkTracker
	score  *Accumulator
}

// New creates a detector with fresh windows and a full baseline score.
func New(cfg Config) *Detector {
	return &Detector{
		cfg: cfg,
		yawn: yawnChannel{
			win:       NewWindow(windowFrames(cfg.FPS, cfg.YawnWindowSeconds)),
			threshold: cfg.YawnWeightedThreshold,
			minRun:    cfg.YawnMinDurationFrames,
		},
		drowsy: drowsyChannel{
			win:      NewWindow(windowFrames(cfg.FPS, cfg.DrowsyWindowSeconds)),
			fraction: cfg.DrowsyClosedFraction,
		},
		blinks: blinkTracker{
			minBlink:  cfg.BlinkMinSeconds,
			maxBlink:  cfg.BlinkMaxSeconds,
			drowsyMin: cfg.DrowsyMinSeconds,
		},
		score: NewAccumulator(cfg.Baseline, cfg.YawnPenalty, cfg.DrowsyPenalty,
			cfg.BlinkRatePenalty, cfg.BlinkRateMin, cfg.BlinkRateMax),
	}
}

// ProcessFrame consumes one frame and returns the events it triggered, in
// emission order. Pure in-memory computation; persistence is the caller's
// concern.
func (d *Detector) ProcessFrame(f Frame) []Event {
	d.score.Tick(f.At)

	if !f.FaceDetected {
		if d.cfg.NoFacePolicy == NoFaceSkip {
			return nil
		}
		// Absent: the frame participates as eyes-open, not-yawning.
		f.EyesClosed = false
		f.MouthOpenRatio = 0
	}

	var events []Event

	// Closure-span classification is the scoring authority for drowsiness:
	// any reopen after >= DrowsyMinSeconds is one completed episode, whether
	// or not the window channel saw it.
	switch d.blinks.observe(f.EyesClosed, f.At) {
	case spanBlink:
		d.score.NoteBlink()
	case spanDrowsy:
		d.score.NoteDrowsyEpisode()
	}

	isYawning := f.MouthOpenRatio > d.cfg.YawnRatio
	if started, ended := d.yawn.observe(isYawning, f.At); started {
		events = append(events, Event{Kind: EventYawnStart, At: f.At})
	} else if ended {
		d.score.NoteYawnEnd()
		events = append(events, Event{
			Kind:            EventYawnEnd,
			At:              f.At,
			AttentionScore:  d.score.Score(),
			AvgYawnDuration: d.yawn.avgDuration(),
		})
	}

	if started, ended := d.drowsy.observe(f.EyesClosed, f.At); started {
		events = append(events, Event{Kind: EventSleepStart, At: f.At})
	} else if ended {
		events = append(events, Event{
			Kind:           EventSleepEnd,
			At:             f.At,
			AttentionScore: d.score.Score(),
		})
	}

	return events
}

// Score returns the current attention score in [0, 100].
func (d *Detector) Score() float64 {
	return d.score.Score()
}

// YawnCount returns the number of completed yawns this session.
func (d *Detector) YawnCount() int {
	return d.yawn.count()
}

// AvgYawnDuration returns the mean completed yawn length in seconds, rounded
// to two decimals, or 0 before the first yawn completes.
func (d *Detector) AvgYawnDuration() float64 {
	return d.yawn.avgDuration()
}

// PerMinuteBlinks returns the completed per-minute blink counts, oldest
// first.
func (d *Detector) PerMinuteBlinks() []int64 {
	return d.score.PerMinuteBlinks()
}
