package services

import (
	"context"
	"sync"

	"focustrack-go/internal/detector"
	"focustrack-go/internal/repository"

	"go.uber.org/zap"
)

// frameBuffer is the per-session frame queue depth. Frame processing is
// cheap, so the buffer only has to absorb short bursts; when it is full the
// newest frame is dropped rather than blocking the reader.
const frameBuffer = 64

// Monitor routes every frame of a monitored session through that session's
// single worker goroutine. That goroutine is the only writer of the
// session's detector state, which is what keeps the sliding windows safe
// without any locking in the hot path.
type Monitor struct {
	log *zap.Logger

	mu      sync.Mutex
	workers map[string]*sessionWorker // by session ID
	byUser  map[uint]string           // user -> active session ID
}

// NewMonitor creates the session monitor registry.
func NewMonitor(log *zap.Logger) *Monitor {
	return &Monitor{
		log:     log,
		workers: make(map[string]*sessionWorker),
		byUser:  make(map[uint]string),
	}
}

// Summary is the detector state at a point in time.
type Summary struct {
	AttentionScore  float64 `json:"attention_score"`
	YawnCount       int     `json:"yawn_count"`
	AvgYawnDuration float64 `json:"avg_yawn_duration"`
	BlinkCounts     []int64 `json:"blink_counts"`
}

// Begin starts monitoring a session with a fresh detector. Any worker still
// running for the same user is stopped first, mirroring the force-close of
// the previous open session.
func (m *Monitor) Begin(sessionID string, userID uint, cfg detector.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.byUser[userID]; ok {
		if w, ok := m.workers[prev]; ok {
			w.stop()
			delete(m.workers, prev)
		}
	}

	w := newSessionWorker(m.log, sessionID, detector.New(cfg))
	m.workers[sessionID] = w
	m.byUser[userID] = sessionID
	go w.run()

	m.log.Info("Session monitoring started",
		zap.String("session_id", sessionID),
		zap.Uint("user_id", userID))
}

// Feed hands one frame to the session's worker. Unknown sessions and full
// buffers drop the frame; the detector works fine over a lossy stream.
func (m *Monitor) Feed(sessionID string, f detector.Frame) bool {
	m.mu.Lock()
	w, ok := m.workers[sessionID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case w.frames <- f:
	default:
		m.log.Debug("Frame dropped, worker backlog full", zap.String("session_id", sessionID))
	}
	return true
}

// Snapshot returns the session's current detector state.
func (m *Monitor) Snapshot(sessionID string) (Summary, bool) {
	m.mu.Lock()
	w, ok := m.workers[sessionID]
	m.mu.Unlock()
	if !ok {
		return Summary{}, false
	}
	return w.snapshot(), true
}

// End stops the session's worker and returns its final state.
func (m *Monitor) End(sessionID string) (Summary, bool) {
	m.mu.Lock()
	w, ok := m.workers[sessionID]
	if ok {
		delete(m.workers, sessionID)
		for user, sid := range m.byUser {
			if sid == sessionID {
				delete(m.byUser, user)
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return Summary{}, false
	}

	w.stop()
	return w.snapshot(), true
}

// sessionWorker owns one detector. Only its run goroutine mutates the
// detector; the mutex exists so snapshots can read between frames.
type sessionWorker struct {
	log       *zap.Logger
	sessionID string

	mu  sync.Mutex
	det *detector.Detector

	frames chan detector.Frame
	done   chan struct{}
	once   sync.Once
}

func newSessionWorker(log *zap.Logger, sessionID string, det *detector.Detector) *sessionWorker {
	return &sessionWorker{
		log:       log,
		sessionID: sessionID,
		det:       det,
		frames:    make(chan detector.Frame, frameBuffer),
		done:      make(chan struct{}),
	}
}

func (w *sessionWorker) run() {
	for {
		select {
		case f := <-w.frames:
			w.mu.Lock()
			events := w.det.ProcessFrame(f)
			w.mu.Unlock()

			for _, ev := range events {
				if err := repository.SaveDetectorEvent(context.Background(), w.sessionID, ev); err != nil {
					w.log.Error("Failed to persist detector event",
						zap.String("session_id", w.sessionID),
						zap.String("kind", ev.Kind.String()),
						zap.Error(err))
				}
			}
		case <-w.done:
			return
		}
	}
}

func (w *sessionWorker) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *sessionWorker) snapshot() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Summary{
		AttentionScore:  w.det.Score(),
		YawnCount:       w.det.YawnCount(),
		AvgYawnDuration: w.det.AvgYawnDuration(),
		BlinkCounts:     w.det.PerMinuteBlinks(),
	}
}
