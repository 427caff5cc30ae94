package services

import (
	"testing"
	"time"

	"focustrack-go/internal/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func attentiveFrame(at time.Time) detector.Frame {
	return detector.Frame{FaceDetected: true, EyesClosed: false, MouthOpenRatio: 0.1, At: at}
}

func TestMonitorLifecycle(t *testing.T) {
	m := NewMonitor(zap.NewNop())
	m.Begin("sess-1", 7, detector.DefaultConfig())

	now := time.Now()
	for i := 0; i < 10; i++ {
		assert.True(t, m.Feed("sess-1", attentiveFrame(now.Add(time.Duration(i)*100*time.Millisecond))))
	}
	assert.False(t, m.Feed("sess-unknown", attentiveFrame(now)))

	summary, ok := m.Snapshot("sess-1")
	require.True(t, ok)
	assert.Equal(t, 100.0, summary.AttentionScore)
	assert.Zero(t, summary.YawnCount)

	final, ok := m.End("sess-1")
	require.True(t, ok)
	assert.Equal(t, 100.0, final.AttentionScore)

	_, ok = m.Snapshot("sess-1")
	assert.False(t, ok)
	assert.False(t, m.Feed("sess-1", attentiveFrame(now)))
}

func TestMonitorBeginReplacesUsersWorker(t *testing.T) {
	m := NewMonitor(zap.NewNop())
	m.Begin("sess-old", 7, detector.DefaultConfig())
	m.Begin("sess-new", 7, detector.DefaultConfig())

	assert.False(t, m.Feed("sess-old", attentiveFrame(time.Now())))
	assert.True(t, m.Feed("sess-new", attentiveFrame(time.Now())))

	_, ok := m.End("sess-new")
	assert.True(t, ok)
}

func TestMonitorEndUnknownSession(t *testing.T) {
	m := NewMonitor(zap.NewNop())
	_, ok := m.End("never-started")
	assert.False(t, ok)
}
