package detector

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Accumulator maintains the session's attention score. The public score is
// always clamp(baseline - drowsyPenalty*episodes - yawnPenalty*yawnEnds -
// ratePenalty*penalizedMinutes, 0, 100): penalties accumulate as counters
// and the score is recomputed from them, so clamping can never lose or
// invent penalty history.
type Accumulator struct {
	baseline         int
	yawnPenalty      int
	drowsyPenalty    int
	blinkRatePenalty int
	rateMin          float64
	rateMax          float64

	yawnEnds       int
	drowsyEpisodes int
	rateMinutes    int

	minuteStart  time.Time
	minuteBlinks int
	perMinute    []float64 // completed per-minute blink counts
}

// NewAccumulator creates an accumulator with the given baseline and penalty
// weights. Baselines above 100 are clamped by Score, not here.
func NewAccumulator(baseline, yawnPenalty, drowsyPenalty, ratePenalty int, rateMin, rateMax float64) *Accumulator {
	return &Accumulator{
		baseline:         baseline,
		yawnPenalty:      yawnPenalty,
		drowsyPenalty:    drowsyPenalty,
		blinkRatePenalty: ratePenalty,
		rateMin:          rateMin,
		rateMax:          rateMax,
	}
}

// Score returns the current attention score, clamped to [0, 100].
func (a *Accumulator) Score() float64 {
	score := a.baseline -
		a.drowsyPenalty*a.drowsyEpisodes -
		a.yawnPenalty*a.yawnEnds -
		a.blinkRatePenalty*a.rateMinutes
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return float64(score)
}

// NoteYawnEnd records one completed yawn.
func (a *Accumulator) NoteYawnEnd() {
	a.yawnEnds++
}

// NoteDrowsyEpisode records one completed drowsy episode.
func (a *Accumulator) NoteDrowsyEpisode() {
	a.drowsyEpisodes++
}

// NoteBlink counts a blink into the current minute.
func (a *Accumulator) NoteBlink() {
	a.minuteBlinks++
}

// PerMinuteBlinks returns the completed per-minute blink counts, oldest
// first.
func (a *Accumulator) PerMinuteBlinks() []int64 {
	out := make([]int64, len(a.perMinute))
	for i, v := range a.perMinute {
		out[i] = int64(v)
	}
	return out
}

// Tick advances the per-minute blink bookkeeping to now. Whenever a minute
// boundary rolls over, the finished minute's blink count joins the history
// and the trailing average (last two minutes, or just the one if that is all
// the history there is) is checked against the healthy range; an average
// below rateMin or above rateMax costs one rate penalty for that minute.
func (a *Accumulator) Tick(now time.Time) {
	if a.minuteStart.IsZero() {
		a.minuteStart = now
		return
	}
	for now.Sub(a.minuteStart) >= time.Minute {
		a.perMinute = append(a.perMinute, float64(a.minuteBlinks))
		a.minuteBlinks = 0
		a.minuteStart = a.minuteStart.Add(time.Minute)

		window := a.perMinute
		if len(window) > 2 {
			window = window[len(window)-2:]
		}
		avg, err := stats.Mean(stats.Float64Data(window))
		if err != nil {
			continue
		}
		if avg < a.rateMin || avg > a.rateMax {
			a.rateMinutes++
		}
	}
}
