package detector

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig runs at 10 fps so one frame is exactly 100ms.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FPS = 10
	cfg.YawnWindowSeconds = 1 // 10-frame yawn window
	cfg.YawnWeightedThreshold = 0.4
	cfg.YawnMinDurationFrames = 5
	cfg.DrowsyWindowSeconds = 2 // 20-frame drowsy window
	cfg.DrowsyClosedFraction = 0.8
	return cfg
}

type frameSim struct {
	det *Detector
	now time.Time
}

func newFrameSim(cfg Config) *frameSim {
	return &frameSim{
		det: New(cfg),
		now: time.Date(2025, 3, 10, 14, 0, 0, 0, time.Local),
	}
}

// step advances one frame interval and processes a frame.
func (s *frameSim) step(eyesClosed bool, mouthRatio float64) []Event {
	s.now = s.now.Add(100 * time.Millisecond)
	return s.det.ProcessFrame(Frame{
		FaceDetected:   true,
		EyesClosed:     eyesClosed,
		MouthOpenRatio: mouthRatio,
		At:             s.now,
	})
}

// settle feeds n neutral frames (eyes open, mouth shut).
func (s *frameSim) settle(n int) []Event {
	var all []Event
	for i := 0; i < n; i++ {
		all = append(all, s.step(false, 0)...)
	}
	return all
}

func collectKinds(events []Event) []EventKind {
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func TestYawnStartAndEnd(t *testing.T) {
	s := newFrameSim(testConfig())
	s.settle(20)

	var events []Event
	// Ten yawning frames: the channel must go active exactly once.
	for i := 0; i < 10; i++ {
		events = append(events, s.step(false, 0.8)...)
	}
	require.Equal(t, []EventKind{EventYawnStart}, collectKinds(events))

	// Mouth closes; the channel must drop back with one yawn_end.
	events = s.settle(10)
	require.Equal(t, []EventKind{EventYawnEnd}, collectKinds(events))

	end := events[0]
	assert.Equal(t, 1, s.det.YawnCount())
	assert.Greater(t, end.AvgYawnDuration, 0.0)
	// One completed yawn costs 2 from a 100 baseline.
	assert.Equal(t, 98.0, end.AttentionScore)
}

func TestYawnAlternationInvariant(t *testing.T) {
	// For any frame sequence: one start before each end, never two starts
	// or two ends in a row, per channel.
	s := newFrameSim(testConfig())
	r := rand.New(rand.NewSource(42))

	lastYawn := EventYawnEnd // "not active" sentinel: next yawn event must be a start
	lastSleep := EventSleepEnd
	for i := 0; i < 5000; i++ {
		ratio := 0.0
		if r.Float64() < 0.5 {
			ratio = 0.9
		}
		closed := r.Float64() < 0.5
		for _, ev := range s.step(closed, ratio) {
			switch ev.Kind {
			case EventYawnStart:
				require.Equal(t, EventYawnEnd, lastYawn, "yawn_start without preceding yawn_end at frame %d", i)
				lastYawn = EventYawnStart
			case EventYawnEnd:
				require.Equal(t, EventYawnStart, lastYawn, "yawn_end without preceding yawn_start at frame %d", i)
				lastYawn = EventYawnEnd
			case EventSleepStart:
				require.Equal(t, EventSleepEnd, lastSleep, "sleep_start without preceding sleep_end at frame %d", i)
				lastSleep = EventSleepStart
			case EventSleepEnd:
				require.Equal(t, EventSleepStart, lastSleep, "sleep_end without preceding sleep_start at frame %d", i)
				lastSleep = EventSleepEnd
			}
		}
	}
}

func TestDrowsyEpisode(t *testing.T) {
	s := newFrameSim(testConfig())
	s.settle(20)

	var events []Event
	// Three seconds of closed eyes: sleep_start once the window majority
	// flips, no end yet.
	for i := 0; i < 30; i++ {
		events = append(events, s.step(true, 0)...)
	}
	require.Equal(t, []EventKind{EventSleepStart}, collectKinds(events))

	// Reopen. The 3s closure span is one completed drowsy episode (-5);
	// the sleep_end it produces must carry the already-penalized score.
	events = s.settle(20)
	require.Equal(t, []EventKind{EventSleepEnd}, collectKinds(events))
	assert.Equal(t, 95.0, events[0].AttentionScore)
	assert.Equal(t, 95.0, s.det.Score())
}

func TestBlinkSpanClassification(t *testing.T) {
	closedFrames := func(seconds float64) int {
		return int(seconds * 10)
	}

	tests := []struct {
		name      string
		span      float64 // seconds of continuous closure
		wantScore float64
	}{
		{"short blink counts, no penalty", 0.2, 100},
		{"dead zone counts nothing", 0.4, 100},
		{"long closure is a drowsy episode", 0.6, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFrameSim(testConfig())
			s.settle(25)
			for i := 0; i < closedFrames(tt.span); i++ {
				s.step(true, 0)
			}
			s.settle(25)
			assert.Equal(t, tt.wantScore, s.det.Score())
		})
	}
}

func TestBlinkCountedIntoMinute(t *testing.T) {
	s := newFrameSim(testConfig())
	s.settle(5)
	// 0.2s closure = one blink.
	s.step(true, 0)
	s.step(true, 0)
	s.settle(5)

	// Push past the minute boundary so the count lands in history.
	s.now = s.now.Add(61 * time.Second)
	s.settle(1)

	require.Len(t, s.det.PerMinuteBlinks(), 1)
	assert.Equal(t, int64(1), s.det.PerMinuteBlinks()[0])
}

// blinkCycle is a 0.2s closure followed by a reopen frame: one counted blink.
func (s *frameSim) blinkCycle() {
	s.step(true, 0)
	s.step(true, 0)
	s.step(false, 0)
}

func TestBlinkRatePenalty(t *testing.T) {
	tests := []struct {
		name      string
		blinks    int
		wantScore float64
	}{
		{"too few blinks costs the minute", 1, 98},
		{"healthy rate costs nothing", 10, 100},
		{"too many blinks costs the minute", 30, 98},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFrameSim(testConfig())
			s.settle(5)
			for i := 0; i < tt.blinks; i++ {
				s.blinkCycle()
			}

			// Complete the minute so the rate check runs on it.
			s.now = s.now.Add(61 * time.Second)
			s.settle(1)

			require.Len(t, s.det.PerMinuteBlinks(), 1)
			assert.Equal(t, int64(tt.blinks), s.det.PerMinuteBlinks()[0])
			assert.Equal(t, tt.wantScore, s.det.Score())
		})
	}
}

func TestBlinkRateTrailingAverage(t *testing.T) {
	// A sparse first minute is penalized, but a healthy second minute pulls
	// the trailing two-minute average back into range, so no second penalty.
	s := newFrameSim(testConfig())
	s.settle(5)
	s.blinkCycle()

	s.now = s.now.Add(61 * time.Second)
	s.settle(1)
	assert.Equal(t, 98.0, s.det.Score())

	for i := 0; i < 10; i++ {
		s.blinkCycle()
	}
	s.now = s.now.Add(61 * time.Second)
	s.settle(1)

	require.Len(t, s.det.PerMinuteBlinks(), 2)
	assert.Equal(t, 98.0, s.det.Score())
}

func TestNoFaceSkipFreezesWindows(t *testing.T) {
	cfg := testConfig()
	s := newFrameSim(cfg)
	s.settle(20)

	// Nine yawning frames, then a no-face gap, then one more yawning frame.
	// With the skip policy the gap must not dilute the window: the tail run
	// keeps growing across it.
	var events []Event
	for i := 0; i < 9; i++ {
		events = append(events, s.step(false, 0.9)...)
	}
	for i := 0; i < 5; i++ {
		s.now = s.now.Add(100 * time.Millisecond)
		got := s.det.ProcessFrame(Frame{FaceDetected: false, At: s.now})
		assert.Empty(t, got)
	}
	events = append(events, s.step(false, 0.9)...)
	assert.Equal(t, []EventKind{EventYawnStart}, collectKinds(events))
}

func TestNoFaceAbsentPushesFalse(t *testing.T) {
	cfg := testConfig()
	cfg.NoFacePolicy = NoFaceAbsent
	s := newFrameSim(cfg)
	s.settle(20)

	// Go active first.
	for i := 0; i < 10; i++ {
		s.step(false, 0.9)
	}
	require.Equal(t, 0, s.det.YawnCount())

	// A burst of no-face frames reads as not-yawning and ends the yawn.
	ended := false
	for i := 0; i < 10; i++ {
		s.now = s.now.Add(100 * time.Millisecond)
		for _, ev := range s.det.ProcessFrame(Frame{FaceDetected: false, At: s.now}) {
			if ev.Kind == EventYawnEnd {
				ended = true
			}
		}
	}
	assert.True(t, ended)
	assert.Equal(t, 1, s.det.YawnCount())
}

func TestScoreNeverLeavesRange(t *testing.T) {
	cfg := testConfig()
	s := newFrameSim(cfg)
	s.settle(20)

	// Hammer the detector with alternating long closures and yawns until
	// the penalties far exceed the baseline.
	for round := 0; round < 40; round++ {
		for i := 0; i < 10; i++ {
			s.step(true, 0.9)
		}
		for i := 0; i < 10; i++ {
			s.step(false, 0)
		}
		score := s.det.Score()
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 100.0)
	}
	assert.Equal(t, 0.0, s.det.Score())
}
